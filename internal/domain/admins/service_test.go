package admins

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/cowork-booking/internal/infra/auth"
	"github.com/Spok95/cowork-booking/internal/infra/logger"
)

type memStore struct {
	byEmail map[string]Admin
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*Admin, error) {
	a, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memStore) Upsert(_ context.Context, a Admin) (*Admin, error) {
	a.Email = strings.ToLower(a.Email)
	if old, ok := m.byEmail[a.Email]; ok {
		a.ID = old.ID
	}
	m.byEmail[a.Email] = a
	return &a, nil
}

func TestSeedAndLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := &memStore{byEmail: map[string]Admin{}}
	tokens := auth.NewTokens("jwt-secret", time.Hour)
	svc := NewService(store, tokens, logger.Discard())
	ctx := context.Background()

	if err := svc.Seed(ctx, "Ops@Example.com", string(hash)); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := svc.Seed(ctx, "ops@example.com", string(hash)); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if len(store.byEmail) != 1 {
		t.Fatalf("seed must upsert, got %d admins", len(store.byEmail))
	}

	sess, err := svc.Login(ctx, "ops@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := tokens.Parse(sess.Token)
	if err != nil || claims.Role != RoleAdmin {
		t.Fatalf("token claims = %+v, err = %v", claims, err)
	}

	if _, err := svc.Login(ctx, "ops@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown admin: got %v", err)
	}
}

func TestSeedSkipsAndRejects(t *testing.T) {
	store := &memStore{byEmail: map[string]Admin{}}
	svc := NewService(store, auth.NewTokens("x", time.Hour), logger.Discard())

	if err := svc.Seed(context.Background(), "", ""); err != nil {
		t.Fatalf("empty seed should be skipped: %v", err)
	}
	if err := svc.Seed(context.Background(), "a@b.c", "plain-text"); err == nil {
		t.Fatalf("expected error for non-bcrypt hash")
	}
	if len(store.byEmail) != 0 {
		t.Fatalf("nothing should be stored")
	}
}
