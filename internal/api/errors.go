package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/botica/internal/domain/auth"
	"github.com/xenking/botica/internal/domain/order"
	"github.com/xenking/botica/internal/domain/product"
	"github.com/xenking/botica/internal/domain/user"
	"github.com/xenking/botica/internal/domain/validate"
)

// statusOf maps an error to its HTTP status and client-facing message.
func statusOf(err error) (int, string) {
	var missing *validate.MissingFieldsError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, "Missing fields"
	case errors.Is(err, errInvalidJSON):
		return http.StatusBadRequest, "Invalid JSON body"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "Request body too large"
	case errors.Is(err, user.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password too long"
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "No token provided"
	case errors.Is(err, auth.ErrMalformedToken):
		return http.StatusUnauthorized, "Token error"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest, "Cart empty"
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "Product not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// fail responds with the mapped error. Only server errors are logged, since
// client errors carry no detail beyond the response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusOf(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, message)
}
