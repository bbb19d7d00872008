package memberships

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type Store interface {
	List(ctx context.Context, status Status) ([]Membership, error)
	Get(ctx context.Context, id string) (*Membership, error)
	Create(ctx context.Context, m Membership) (*Membership, error)
	Update(ctx context.Context, m Membership) (*Membership, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func validate(m *Membership) error {
	m.CustomerName = strings.TrimSpace(m.CustomerName)
	m.CustomerEmail = strings.TrimSpace(m.CustomerEmail)
	if m.CustomerName == "" || m.CustomerEmail == "" || m.LocationID == "" || m.PlanID == "" || m.StartsOn.IsZero() {
		return ErrMissingField
	}
	if m.Status == "" {
		m.Status = StatusActive
	}
	if !m.Status.Valid() {
		return ErrInvalidStatus
	}
	if m.EndsOn != nil && m.EndsOn.Before(m.StartsOn) {
		return ErrInvalidPeriod
	}
	return nil
}

func (s *Service) List(ctx context.Context, status Status) ([]Membership, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, status)
}

func (s *Service) Get(ctx context.Context, id string) (*Membership, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m Membership) (*Membership, error) {
	if err := validate(&m); err != nil {
		return nil, err
	}
	m.ID = uuid.NewString()
	out, err := s.store.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	s.log.Info("membership created", "membership_id", out.ID, "plan_id", out.PlanID)
	return out, nil
}

func (s *Service) Update(ctx context.Context, m Membership) (*Membership, error) {
	if err := validate(&m); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
