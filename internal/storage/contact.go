package storage

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/botica/internal/domain/contact"
)

var _ contact.Repository = (*ContactRepository)(nil)

// ContactRepository implements contact.Repository over a document Backend.
type ContactRepository struct {
	backend Backend
}

// NewContactRepository returns a ContactRepository that uses the given backend.
func NewContactRepository(backend Backend) *ContactRepository {
	return &ContactRepository{backend: backend}
}

// Append stores the message at the end of the contacts collection.
func (r *ContactRepository) Append(ctx context.Context, m *contact.Message) error {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load contacts")
	}

	doc.Contacts = append(doc.Contacts, *m)
	if err := r.backend.Save(ctx, doc); err != nil {
		return errors.Wrapf(err, "save contact %s", m.ID)
	}
	return nil
}
