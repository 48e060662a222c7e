// Package user defines registered shop customers.
package user

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when registering an email that is
	// already taken, compared case-insensitively.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a registered customer. PasswordHash never leaves the service
// boundary; use Public for anything sent to clients.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Phone        string `json:"phone"`
}

// Public is the outward projection of a User.
type Public struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Public strips credentials from the user record.
func (u *User) Public() Public {
	return Public{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}
}

// EmailEqual reports whether two addresses identify the same account.
func EmailEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Repository defines persistence operations for users.
type Repository interface {
	// FindByEmail returns ErrNotFound when no user has the address.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Create returns ErrDuplicateEmail when the address is taken.
	Create(ctx context.Context, u *User) error
}
