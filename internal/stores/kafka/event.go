package kafka

import "time"

const (
	TopicOrderCreated    = `orders.order-created`
	TopicPaymentSelected = `orders.payment-selected`
)

// OrderCreatedEvent is published when checkout persists a new order.
type OrderCreatedEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	DiscordID   string    `json:"discord_id"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentSelectedEvent is published when a buyer picks a payment method in
// their ticket channel.
type PaymentSelectedEvent struct {
	OrderID       int64     `json:"order_id"`
	PaymentMethod string    `json:"payment_method"`
	SelectedAt    time.Time `json:"selected_at"`
}
