package orders

import "time"

// Order statuses. Other lifecycle values pass through the store unvalidated.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Order represents an order entity in the database
type Order struct {
	ID              int64     `json:"id"`                // Auto-incrementing ID
	UserID          int64     `json:"user_id"`           // ID of the user placing the order
	OrderNumber     string    `json:"order_number"`      // Human order number, globally unique
	Items           []Item    `json:"items"`             // Snapshot of the purchased items
	TotalAmount     float64   `json:"total_amount"`      // Total price of the order
	Status          string    `json:"status"`            // pending, completed, ...
	PaymentMethod   string    `json:"payment_method"`    // Chosen payment rail, empty until selected
	DiscordTicketID string    `json:"discord_ticket_id"` // Ticket channel id, empty until a ticket exists
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Item is a single line of an order, serialized as JSON in the items column.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PendingOrder is an order awaiting a ticket, joined with the buyer's
// Discord identity. DiscordID is empty when the buyer has not linked yet.
type PendingOrder struct {
	Order
	DiscordID string `json:"discord_id"`
}
