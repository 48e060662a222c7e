package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/botica/internal/domain/contact"
	"github.com/xenking/botica/internal/domain/order"
	"github.com/xenking/botica/internal/domain/product"
	"github.com/xenking/botica/internal/domain/user"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = errors.New("invalid JSON body")

// readObject decodes the request body as a JSON object, calling field for
// each key. An empty body reads as an empty object.
func readObject(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	// Exactly one value, no trailing data.
	if !jx.Valid(body) {
		return errInvalidJSON
	}
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return errInvalidJSON
	}
	if err := d.Obj(field); err != nil {
		return errors.Wrap(errInvalidJSON, err.Error())
	}
	return nil
}

// readString reads a scalar as text. Numbers keep their literal form and
// anything else reads as empty.
func readString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		return n.String(), err
	default:
		return "", d.Skip()
	}
}

// readQuantity accepts a number or a numeric string. Fractions truncate and
// unparseable values read as 0, which the order service raises to 1.
func readQuantity(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		return order.ParseQuantity(n.String()), nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return order.ParseQuantity(s), nil
	case jx.Bool:
		b, err := d.Bool()
		if b {
			return 1, err
		}
		return 0, err
	default:
		return 0, d.Skip()
	}
}

// readCart reads the "items" value. Anything but an array yields nil so the
// order service reports an empty cart.
func readCart(d *jx.Decoder) ([]order.CartLine, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	var lines []order.CartLine
	err := d.Arr(func(d *jx.Decoder) error {
		var line order.CartLine
		if d.Next() != jx.Object {
			lines = append(lines, line)
			return d.Skip()
		}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				line.ProductID, err = readString(d)
			case "quantity":
				line.Quantity, err = readQuantity(d)
			default:
				err = d.Skip()
			}
			return err
		})
		lines = append(lines, line)
		return err
	})
	return lines, err
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeUser(e *jx.Encoder, u user.Public) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("name")
	e.Str(u.Name)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("phone")
	e.Str(u.Phone)
	e.ObjEnd()
}

func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.FieldStart("image")
	e.Str(h.imageURL(p.Image))
	e.FieldStart("prescription")
	e.Bool(p.Prescription)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("items")
	e.ArrStart()
	for i := range o.Items {
		item := &o.Items[i]
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(item.ProductID)
		e.FieldStart("title")
		e.Str(item.Title)
		e.FieldStart("price")
		encodeMoney(e, item.Price)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("subtotal")
		encodeMoney(e, item.Subtotal)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	e.FieldStart("address")
	e.Str(o.Address)
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("status")
	e.Str(o.Status)
	e.ObjEnd()
}

func encodeContact(e *jx.Encoder, m *contact.Message) {
	e.ObjStart()
	e.FieldStart("message")
	e.Str("Message received")
	e.FieldStart("id")
	e.Str(m.ID)
	e.ObjEnd()
}

// writeJSON runs encode into a pooled encoder and writes the result.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
