package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/botica/internal/domain/user"
	"github.com/xenking/botica/internal/domain/validate"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned when a password exceeds what bcrypt accepts.
var ErrPasswordTooLong = errors.New("password too long")

// Config holds the authentication settings.
type Config struct {
	// Secret is the HMAC key for signing tokens. Required.
	Secret []byte
	// TokenTTL defaults to DefaultTokenTTL.
	TokenTTL time.Duration
	// BcryptCost defaults to DefaultBcryptCost.
	BcryptCost int
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Service registers and authenticates users.
type Service struct {
	users     user.Repository
	passwords *PasswordHasher
	tokens    *TokenIssuer

	// dummyHash is compared against when the email is unknown so that
	// failed logins take the same time either way.
	dummyHash string
}

// NewService creates an auth Service.
func NewService(users user.Repository, cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}

	passwords := NewPasswordHasher(cfg.BcryptCost)
	dummy, err := passwords.Hash(uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(err, "prepare dummy hash")
	}

	return &Service{
		users:     users,
		passwords: passwords,
		tokens:    NewTokenIssuer(cfg.Secret, cfg.TokenTTL),
		dummyHash: dummy,
	}, nil
}

// Register creates a new user and returns a session for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if err := validate.Required(
		validate.Field{Name: "name", Value: req.Name},
		validate.Field{Name: "email", Value: req.Email},
		validate.Field{Name: "password", Value: req.Password},
	); err != nil {
		return nil, err
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	email := strings.TrimSpace(req.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, errors.Wrap(err, "find user")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, errors.Wrap(err, "create user")
	}

	return s.session(u)
}

// Login checks the credentials and returns a session. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := validate.Required(
		validate.Field{Name: "email", Value: email},
		validate.Field{Name: "password", Value: password},
	); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.passwords.Compare(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}

	if !s.passwords.Compare(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.session(u)
}

// Verify authenticates an Authorization header value.
func (s *Service) Verify(header string) (*Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return s.tokens.Parse(token)
}

func (s *Service) session(u *user.User) (*Session, error) {
	pub := u.Public()
	token, err := s.tokens.Issue(pub)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: pub}, nil
}
