package storage

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/botica/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository over a document Backend.
type OrderRepository struct {
	backend Backend
}

// NewOrderRepository returns an OrderRepository that uses the given backend.
func NewOrderRepository(backend Backend) *OrderRepository {
	return &OrderRepository{backend: backend}
}

// Create appends the order and saves the document.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load orders")
	}

	doc.Orders = append(doc.Orders, *o)
	if err := r.backend.Save(ctx, doc); err != nil {
		return errors.Wrapf(err, "save order %s", o.ID)
	}
	return nil
}

// ListByUser returns the user's orders in insertion order.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load orders")
	}

	out := make([]order.Order, 0)
	for _, o := range doc.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}
