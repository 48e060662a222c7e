package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/botica/internal/domain/auth"
	"github.com/xenking/botica/internal/domain/order"
)

var errNoClaims = errors.New("no claims in authenticated context")

// PlaceOrder handles POST /api/orders. Prices always come from the catalog;
// any client-supplied price is ignored.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		fail(w, r, errNoClaims)
		return
	}

	req := order.PlaceOrderRequest{UserID: claims.ID}
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "items":
			req.Lines, err = readCart(d)
		case "address":
			req.Address, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.metrics.orderPlaced(r.Context(), o)
	zctx.From(r.Context()).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.Stringer("total", o.Total),
	)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Order created")
		e.FieldStart("order")
		encodeOrder(e, o)
		e.ObjEnd()
	})
}

// ListOrders handles GET /api/orders, returning only the caller's orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		fail(w, r, errNoClaims)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), claims.ID)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}
