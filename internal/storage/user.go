package storage

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/botica/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository over a document Backend.
type UserRepository struct {
	backend Backend
}

// NewUserRepository returns a UserRepository that uses the given backend.
func NewUserRepository(backend Backend) *UserRepository {
	return &UserRepository{backend: backend}
}

// FindByEmail looks up a user by email, ignoring letter case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load users")
	}
	for i := range doc.Users {
		if user.EmailEqual(doc.Users[i].Email, email) {
			u := doc.Users[i]
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

// Create appends the user unless the email is already registered.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	doc, err := r.backend.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load users")
	}
	for _, existing := range doc.Users {
		if user.EmailEqual(existing.Email, u.Email) {
			return user.ErrDuplicateEmail
		}
	}

	doc.Users = append(doc.Users, *u)
	if err := r.backend.Save(ctx, doc); err != nil {
		return errors.Wrapf(err, "save user %s", u.ID)
	}
	return nil
}
