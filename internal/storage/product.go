package storage

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/botica/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository over a document Backend.
type ProductRepository struct {
	backend Backend
}

// NewProductRepository returns a ProductRepository that uses the given backend.
func NewProductRepository(backend Backend) *ProductRepository {
	return &ProductRepository{backend: backend}
}

// List returns the catalog in stored order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	return doc.Products, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	for i := range doc.Products {
		if doc.Products[i].ID == id {
			p := doc.Products[i]
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// Upsert replaces products with matching IDs and appends the rest, in one
// save. It returns how many products were inserted and updated.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) (inserted, updated int, err error) {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "load products")
	}

	pos := make(map[string]int, len(doc.Products))
	for i, p := range doc.Products {
		pos[p.ID] = i
	}
	for _, p := range products {
		if i, ok := pos[p.ID]; ok {
			doc.Products[i] = p
			updated++
			continue
		}
		pos[p.ID] = len(doc.Products)
		doc.Products = append(doc.Products, p)
		inserted++
	}

	if err := r.backend.Save(ctx, doc); err != nil {
		return 0, 0, errors.Wrap(err, "save products")
	}
	return inserted, updated, nil
}
