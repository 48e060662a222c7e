// Package contact accepts messages sent through the shop's contact form.
package contact

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/botica/internal/domain/validate"
)

// Message is a stored contact form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository appends contact messages.
type Repository interface {
	Append(ctx context.Context, m *Message) error
}

// SubmitRequest holds a contact form submission.
type SubmitRequest struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Service validates and stores contact messages.
type Service struct {
	messages Repository
	now      func() time.Time
}

// NewService creates a contact Service.
func NewService(messages Repository) *Service {
	return &Service{messages: messages, now: time.Now}
}

// Submit stores the message. Name, email and message text are required.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Message, error) {
	if err := validate.Required(
		validate.Field{Name: "name", Value: req.Name},
		validate.Field{Name: "email", Value: req.Email},
		validate.Field{Name: "message", Value: req.Message},
	); err != nil {
		return nil, err
	}

	m := &Message{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Append(ctx, m); err != nil {
		return nil, errors.Wrap(err, "append contact message")
	}
	return m, nil
}
