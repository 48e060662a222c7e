// Package auth registers and logs in customers and issues and verifies the
// bearer tokens that identify them on later requests.
package auth

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/botica/internal/domain/user"
)

// Authentication failures. Login never reveals whether the email exists.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("no token provided")
	ErrMalformedToken     = errors.New("malformed authorization header")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims identifies the user a token was issued to.
type Claims struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session is returned by a successful registration or login.
type Session struct {
	Token string
	User  user.Public
}

type claimsKey struct{}

// WithClaims stores verified claims in the context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
