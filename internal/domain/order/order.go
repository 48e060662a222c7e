package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusPending is the status every order is created with. Later status
// changes are made outside this service.
const StatusPending = "Pending"

// Order represents a placed customer order with server-computed pricing.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Address   string          `json:"address"`
	CreatedAt time.Time       `json:"createdAt"`
	Status    string          `json:"status"`
}

// LineItem is a priced order line. Price is a snapshot of the catalog price
// at order time and does not follow later catalog changes.
type LineItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartLine is a single client-submitted cart entry. Quantity is the raw
// parsed value; the service normalizes it.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	// ListByUser returns the user's orders in insertion order.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
