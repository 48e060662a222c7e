package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/botica/internal/domain/product"
)

// ErrEmptyCart is returned when an order is placed without cart lines.
var ErrEmptyCart = errors.New("cart empty")

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID  string
	Lines   []CartLine
	Address string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides order ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service encapsulates order placement business logic.
type Service struct {
	products product.Repository
	orders   Repository

	now   func() time.Time
	newID func() string
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository, opts ...Option) *Service {
	s := &Service{
		products: products,
		orders:   orders,
		now:      time.Now,
		newID:    newOrderID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newOrderID returns a time-ordered UUIDv7 so IDs sort by creation.
func newOrderID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// PlaceOrder prices the cart against the current catalog and persists the
// resulting order. Lines referencing unknown products are dropped, so a cart
// of only unknown products produces an order with no items and a zero total.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	catalog, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	byID := product.Index(catalog)

	items := make([]LineItem, 0, len(req.Lines))
	total := decimal.Zero
	for _, line := range req.Lines {
		p, ok := byID[line.ProductID]
		if !ok {
			continue
		}

		qty := NormalizeQuantity(line.Quantity)
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		items = append(items, LineItem{
			ProductID: p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  qty,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	o := &Order{
		ID:        s.newID(),
		UserID:    req.UserID,
		Items:     items,
		Total:     total,
		Address:   req.Address,
		CreatedAt: s.now().UTC(),
		Status:    StatusPending,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// ListOrders returns every order owned by userID, oldest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}
