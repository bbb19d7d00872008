package admins

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	Upsert(ctx context.Context, a Admin) (*Admin, error)
}

type TokenIssuer interface {
	Issue(sub, email, role string) (string, time.Time, error)
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	store  Store
	tokens TokenIssuer
	log    *slog.Logger
}

func NewService(store Store, tokens TokenIssuer, log *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, log: log}
}

// Seed makes sure the configured admin account exists. An empty email or
// hash disables seeding.
func (s *Service) Seed(ctx context.Context, email, passwordHash string) error {
	email = strings.TrimSpace(email)
	if email == "" || passwordHash == "" {
		s.log.Warn("admin seed skipped, auth.admin_email or auth.admin_password_hash not set")
		return nil
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return errors.New("admins: auth.admin_password_hash is not a bcrypt hash")
	}
	a, err := s.store.Upsert(ctx, Admin{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash})
	if err != nil {
		return err
	}
	s.log.Info("admin account seeded", "admin_id", a.ID, "email", a.Email)
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	a, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		s.log.Warn("admin login failed", "email", a.Email)
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.tokens.Issue(a.ID, a.Email, RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}
