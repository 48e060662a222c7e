package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/botica/internal/domain/contact"
)

// SubmitContact handles POST /api/contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contact.SubmitRequest
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = readString(d)
		case "email":
			req.Email, err = readString(d)
		case "phone":
			req.Phone, err = readString(d)
		case "message":
			req.Message, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	msg, err := h.contacts.Submit(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeContact(e, msg)
	})
}
