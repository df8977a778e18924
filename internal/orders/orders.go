// Package orders persists order records and enforces the one-ticket-per-order
// rule at the store level.
package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an order id does not reference a stored order.
var ErrNotFound = errors.New("order not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateOrder inserts a new pending order and returns the stored record.
func (c *Conf) CreateOrder(ctx context.Context, userID int64, orderNumber string, items []Item, totalAmount float64) (Order, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return Order{}, fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (user_id, order_number, items, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	order := Order{
		UserID:      userID,
		OrderNumber: orderNumber,
		Items:       items,
		TotalAmount: totalAmount,
		Status:      StatusPending,
	}
	err = c.db.QueryRowContext(ctx, query, userID, orderNumber, itemsJSON, totalAmount, StatusPending).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return order, nil
}

// GetByID fetches a single order.
func (c *Conf) GetByID(ctx context.Context, orderID int64) (Order, error) {
	query := `
		SELECT id, user_id, order_number, items, total_amount, status,
		       COALESCE(payment_method, ''), COALESCE(discord_ticket_id, ''),
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var order Order
	var itemsJSON []byte
	err := c.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &itemsJSON, &order.TotalAmount,
		&order.Status, &order.PaymentMethod, &order.DiscordTicketID,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return Order{}, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	return order, nil
}

// PendingWithoutTicket returns up to limit pending orders that have no ticket
// channel yet, oldest first, joined with the buyer's Discord id.
func (c *Conf) PendingWithoutTicket(ctx context.Context, limit int) ([]PendingOrder, error) {
	query := `
		SELECT o.id, o.user_id, o.order_number, o.items, o.total_amount, o.status,
		       COALESCE(o.payment_method, ''), o.created_at, o.updated_at,
		       COALESCE(u.discord_id, '')
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status = $1 AND o.discord_ticket_id IS NULL
		ORDER BY o.created_at
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending orders: %w", err)
	}
	defer rows.Close()

	var pending []PendingOrder
	for rows.Next() {
		var p PendingOrder
		var itemsJSON []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.OrderNumber, &itemsJSON, &p.TotalAmount,
			&p.Status, &p.PaymentMethod, &p.CreatedAt, &p.UpdatedAt, &p.DiscordID); err != nil {
			return nil, fmt.Errorf("failed to scan pending order: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &p.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending orders: %w", err)
	}
	return pending, nil
}

// SetTicketChannel records the ticket channel id for an order. The write is
// guarded so an order only ever gets one ticket channel; it reports false
// when a channel id was already set.
func (c *Conf) SetTicketChannel(ctx context.Context, orderID int64, channelID string) (bool, error) {
	query := `
		UPDATE orders
		SET discord_ticket_id = $1, updated_at = NOW()
		WHERE id = $2 AND discord_ticket_id IS NULL
	`
	res, err := c.db.ExecContext(ctx, query, channelID, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to set ticket channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// SetPaymentMethod overwrites the chosen payment method. Re-selection is a
// plain overwrite.
func (c *Conf) SetPaymentMethod(ctx context.Context, orderID int64, method string) error {
	query := `
		UPDATE orders
		SET payment_method = $1, updated_at = NOW()
		WHERE id = $2
	`
	res, err := c.db.ExecContext(ctx, query, method, orderID)
	if err != nil {
		return fmt.Errorf("failed to set payment method: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
