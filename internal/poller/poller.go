// Package poller sweeps the order store for pending orders that never got a
// ticket channel (for example when the checkout-time creation failed) and
// creates one for each.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/orders"
	"storefront/internal/ticket"
	"storefront/pkg/logkey"
)

// OrderStore is the slice of the order store the poller needs.
type OrderStore interface {
	PendingWithoutTicket(ctx context.Context, limit int) ([]orders.PendingOrder, error)
	SetTicketChannel(ctx context.Context, orderID int64, channelID string) (bool, error)
}

// TicketCreator opens a ticket channel and returns its id.
type TicketCreator interface {
	CreateTicket(ctx context.Context, req ticket.Request) (string, error)
}

type Poller struct {
	store    OrderStore
	tickets  TicketCreator
	interval time.Duration
	batch    int

	mu sync.Mutex // overlap guard: at most one cycle runs at a time
}

// New builds a poller. interval and batch fall back to 10s and 5 when not
// positive.
func New(store OrderStore, tickets TicketCreator, interval time.Duration, batch int) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if batch <= 0 {
		batch = 5
	}
	return &Poller{store: store, tickets: tickets, interval: interval, batch: batch}
}

// Run polls on a fixed interval until ctx is cancelled. A tick that fires
// while the previous cycle is still running is skipped rather than starting
// a second concurrent scan over the same batch.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("starting order polling", slog.String("Interval", p.interval.String()))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("order polling stopped")
			return
		case <-ticker.C:
			if !p.TryCycle(ctx) {
				slog.Info("previous poll cycle still running, skipping tick")
			}
		}
	}
}

// TryCycle runs one cycle unless another is already in flight; it reports
// whether the cycle ran.
func (p *Poller) TryCycle(ctx context.Context) bool {
	if !p.mu.TryLock() {
		return false
	}
	defer p.mu.Unlock()
	p.cycle(ctx)
	return true
}

// cycle scans one batch. One order's failure never aborts the rest; failed
// orders are simply seen again next cycle.
func (p *Poller) cycle(ctx context.Context) {
	pending, err := p.store.PendingWithoutTicket(ctx, p.batch)
	if err != nil {
		slog.Error("failed to poll pending orders", slog.String(logkey.ERROR, err.Error()))
		return
	}

	for _, order := range pending {
		// Buyer never linked Discord: leave the order untouched.
		if order.DiscordID == "" {
			continue
		}

		channelID, err := p.tickets.CreateTicket(ctx, ticket.Request{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			BuyerDiscordID: order.DiscordID,
			Items:          order.Items,
			TotalAmount:    order.TotalAmount,
		})
		if err != nil {
			slog.Error("failed to create ticket",
				slog.Int64(logkey.OrderID, order.ID),
				slog.String(logkey.OrderNumber, order.OrderNumber),
				slog.String(logkey.ERROR, err.Error()))
			continue
		}

		updated, err := p.store.SetTicketChannel(ctx, order.ID, channelID)
		if err != nil {
			slog.Error("failed to record ticket channel",
				slog.Int64(logkey.OrderID, order.ID),
				slog.String(logkey.ChannelID, channelID),
				slog.String(logkey.ERROR, err.Error()))
			continue
		}
		if !updated {
			// Someone else ticketed this order between scan and write.
			slog.Warn("order already has a ticket channel, keeping the first one",
				slog.Int64(logkey.OrderID, order.ID),
				slog.String(logkey.ChannelID, channelID))
			continue
		}

		slog.Info("created ticket for order",
			slog.Int64(logkey.OrderID, order.ID),
			slog.String(logkey.OrderNumber, order.OrderNumber),
			slog.String(logkey.ChannelID, channelID))
	}
}
