// Package storage persists the shop's record set as a single document that
// is loaded whole on every operation and saved whole after every mutation.
package storage

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/botica/internal/domain/contact"
	"github.com/xenking/botica/internal/domain/order"
	"github.com/xenking/botica/internal/domain/product"
	"github.com/xenking/botica/internal/domain/user"
)

func init() {
	// Money is stored as JSON numbers, e.g. "price": 9.99.
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrUnavailable is returned when the backing medium cannot be read, parsed
// or written. Backends wrap it, so match with errors.Is.
var ErrUnavailable = errors.New("storage unavailable")

// Document is the complete record set.
type Document struct {
	Users    []user.User       `json:"users"`
	Products []product.Product `json:"products"`
	Orders   []order.Order     `json:"orders"`
	Contacts []contact.Message `json:"contacts"`
}

// Normalize replaces nil collections with empty ones so documents always
// serialize as arrays.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []user.User{}
	}
	if d.Products == nil {
		d.Products = []product.Product{}
	}
	if d.Orders == nil {
		d.Orders = []order.Order{}
	}
	if d.Contacts == nil {
		d.Contacts = []contact.Message{}
	}
}

// Backend loads and saves the whole document.
//
// Save overwrites everything. Concurrent load-modify-save cycles race and the
// last writer wins.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	// Ping reports whether the medium is reachable.
	Ping(ctx context.Context) error
}

// Unavailable wraps err so that it matches ErrUnavailable.
func Unavailable(err error, msg string) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
}
