// Package api serves the storefront JSON API over chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/botica/internal/domain/auth"
	"github.com/xenking/botica/internal/domain/contact"
	"github.com/xenking/botica/internal/domain/order"
	"github.com/xenking/botica/internal/domain/product"
)

// Config holds non-dependency settings for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative product image paths.
	ImageBaseURL string
}

// Metrics records order placement.
type Metrics struct {
	placed metric.Int64Counter
	total  metric.Float64Histogram
}

// NewMetrics registers the order instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	placed, err := meter.Int64Counter("botica.orders.placed",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	total, err := meter.Float64Histogram("botica.order.total",
		metric.WithDescription("Order total"),
		metric.WithUnit("{currency}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "order total histogram")
	}
	return &Metrics{placed: placed, total: total}, nil
}

func (m *Metrics) orderPlaced(ctx context.Context, o *order.Order) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("empty", len(o.Items) == 0))
	m.placed.Add(ctx, 1, attrs)
	m.total.Record(ctx, o.Total.InexactFloat64(), attrs)
}

// Handler serves the HTTP API on top of the domain services.
type Handler struct {
	auth     *auth.Service
	orders   *order.Service
	products product.Repository
	contacts *contact.Service
	metrics  *Metrics

	imageBaseURL string
}

// NewHandler constructs a Handler. metrics may be nil.
func NewHandler(
	cfg Config,
	authService *auth.Service,
	orders *order.Service,
	products product.Repository,
	contacts *contact.Service,
	metrics *Metrics,
) *Handler {
	return &Handler{
		auth:         authService,
		orders:       orders,
		products:     products,
		contacts:     contacts,
		metrics:      metrics,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
	}
}

// Mount registers the API routes under /api on r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Post("/contact", h.SubmitContact)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.ListOrders)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}
