package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/botica/internal/domain/auth"
)

func writeSession(w http.ResponseWriter, s *auth.Session) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("token")
		e.Str(s.Token)
		e.FieldStart("user")
		encodeUser(e, s.User)
		e.ObjEnd()
	})
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = readString(d)
		case "email":
			req.Email, err = readString(d)
		case "password":
			req.Password, err = readString(d)
		case "phone":
			req.Phone, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	session, err := h.auth.Register(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeSession(w, session)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			email, err = readString(d)
		case "password":
			password, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeSession(w, session)
}
