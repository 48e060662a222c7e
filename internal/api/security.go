package api

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/botica/internal/domain/auth"
)

// RequireAuth rejects requests without a valid bearer token before they
// reach the handler, and stores the token claims in the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.auth.Verify(r.Header.Get("Authorization"))
		if err != nil {
			fail(w, r, err)
			return
		}
		ctx := auth.WithClaims(r.Context(), claims)
		ctx = zctx.With(ctx, zap.String("user_id", claims.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
