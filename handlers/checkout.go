package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/orders"
	"storefront/internal/stores/kafka"
	"storefront/internal/ticket"
	"storefront/internal/users"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type checkoutItem struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

type checkoutRequest struct {
	DiscordID   string         `json:"discordId" validate:"required"`
	Items       []checkoutItem `json:"items" validate:"required,min=1,dive"`
	TotalAmount float64        `json:"totalAmount"`
}

// Checkout persists an order for a linked buyer and hands it off to the bot
// for ticket creation. Ticket failure is non-fatal: the purchase succeeds
// and the poller picks the order up later.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid checkout body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		slog.Error("checkout validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if math.IsNaN(req.TotalAmount) || math.IsInf(req.TotalAmount, 0) || req.TotalAmount < 0 {
		slog.Error("invalid total amount", slog.String(logkey.TraceID, traceId), slog.Float64("TotalAmount", req.TotalAmount))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid totalAmount"})
		return
	}

	// Prices come from the client; re-derive the total server-side and
	// refuse a submitted total that does not match the items.
	items := make([]orders.Item, 0, len(req.Items))
	derived := 0.0
	for _, item := range req.Items {
		derived += item.Price * float64(item.Quantity)
		if catalogItem, ok := h.catalog.Get(item.Name); ok && catalogItem.Price != item.Price {
			slog.Warn("client price differs from catalog",
				slog.String(logkey.TraceID, traceId), slog.String("Item", item.Name),
				slog.Float64("ClientPrice", item.Price), slog.Float64("CatalogPrice", catalogItem.Price))
		}
		items = append(items, orders.Item{Name: item.Name, Price: item.Price, Quantity: item.Quantity})
	}
	if math.Abs(derived-req.TotalAmount) > 0.01 {
		slog.Error("total amount does not match items",
			slog.String(logkey.TraceID, traceId),
			slog.Float64("Submitted", req.TotalAmount), slog.Float64("Derived", derived))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid totalAmount"})
		return
	}

	user, err := h.u.GetByDiscordID(c.Request.Context(), req.DiscordID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found. Please link your Discord account first."})
			return
		}
		slog.Error("failed to look up user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process checkout"})
		return
	}

	orderNumber := orders.GenerateOrderNumber()
	order, err := h.o.CreateOrder(c.Request.Context(), user.ID, orderNumber, items, req.TotalAmount)
	if err != nil {
		slog.Error("failed to create order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process checkout"})
		return
	}

	h.publishOrderCreated(c, order, req.DiscordID)

	// Ticket creation is best-effort here. Failure is logged and left for
	// the poller's next cycle.
	if h.tickets != nil {
		channelID, err := h.tickets.CreateTicket(c.Request.Context(), ticket.Request{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			BuyerDiscordID: req.DiscordID,
			Items:          order.Items,
			TotalAmount:    order.TotalAmount,
		})
		if err != nil {
			slog.Error("failed to create ticket during checkout",
				slog.String(logkey.TraceID, traceId),
				slog.Int64(logkey.OrderID, order.ID),
				slog.String(logkey.ERROR, err.Error()))
		} else if channelID != "" {
			if _, err := h.o.SetTicketChannel(c.Request.Context(), order.ID, channelID); err != nil {
				slog.Error("failed to record ticket channel",
					slog.String(logkey.TraceID, traceId),
					slog.Int64(logkey.OrderID, order.ID),
					slog.String(logkey.ERROR, err.Error()))
			}
		}
	}

	slog.Info("checkout completed",
		slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, order.ID),
		slog.String(logkey.OrderNumber, order.OrderNumber))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order": gin.H{
			"id":          order.ID,
			"orderNumber": order.OrderNumber,
			"totalAmount": order.TotalAmount,
		},
	})
}

func (h *Handler) publishOrderCreated(c *gin.Context, order orders.Order, discordID string) {
	if h.k == nil {
		return
	}
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	event, err := json.Marshal(kafka.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		DiscordID:   discordID,
		TotalAmount: order.TotalAmount,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal order-created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	key := []byte(strconv.FormatInt(order.ID, 10))
	if err := h.k.ProduceMessage(c.Request.Context(), kafka.TopicOrderCreated, key, event); err != nil {
		slog.Error("failed to produce order-created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}
}
