package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type Store interface {
	ListLocations(ctx context.Context, onlyActive bool) ([]Location, error)
	GetLocation(ctx context.Context, id string) (*Location, error)
	CreateLocation(ctx context.Context, l Location) (*Location, error)
	UpdateLocation(ctx context.Context, l Location) (*Location, error)
	DeleteLocation(ctx context.Context, id string) error

	ListPlans(ctx context.Context, onlyActive bool) ([]Plan, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
	CreatePlan(ctx context.Context, p Plan) (*Plan, error)
	UpdatePlan(ctx context.Context, p Plan) (*Plan, error)
	DeletePlan(ctx context.Context, id string) error

	ListAddOns(ctx context.Context, onlyActive bool) ([]AddOn, error)
	GetAddOn(ctx context.Context, id string) (*AddOn, error)
	CreateAddOn(ctx context.Context, a AddOn) (*AddOn, error)
	UpdateAddOn(ctx context.Context, a AddOn) (*AddOn, error)
	DeleteAddOn(ctx context.Context, id string) error
}

// Cache keeps the public reference data warm. Misses and cache errors fall
// through to the store.
type Cache interface {
	GetReference(ctx context.Context) (*Reference, bool, error)
	SetReference(ctx context.Context, ref Reference) error
	InvalidateReference(ctx context.Context) error
}

type nopCache struct{}

func (nopCache) GetReference(context.Context) (*Reference, bool, error) { return nil, false, nil }
func (nopCache) SetReference(context.Context, Reference) error          { return nil }
func (nopCache) InvalidateReference(context.Context) error              { return nil }

type Service struct {
	store Store
	cache Cache
	log   *slog.Logger
}

func NewService(store Store, cache Cache, log *slog.Logger) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{store: store, cache: cache, log: log}
}

// Reference returns active locations, plans and add-ons.
func (s *Service) Reference(ctx context.Context) (Reference, error) {
	if ref, ok, err := s.cache.GetReference(ctx); err != nil {
		s.log.Warn("reference cache read failed", "err", err)
	} else if ok {
		return *ref, nil
	}

	var (
		ref Reference
		err error
	)
	if ref.Locations, err = s.store.ListLocations(ctx, true); err != nil {
		return Reference{}, err
	}
	if ref.Plans, err = s.store.ListPlans(ctx, true); err != nil {
		return Reference{}, err
	}
	if ref.AddOns, err = s.store.ListAddOns(ctx, true); err != nil {
		return Reference{}, err
	}

	if err := s.cache.SetReference(ctx, ref); err != nil {
		s.log.Warn("reference cache write failed", "err", err)
	}
	return ref, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateReference(ctx); err != nil {
		s.log.Warn("reference cache invalidate failed", "err", err)
	}
}

/* Locations */

func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.store.ListLocations(ctx, false)
}

func (s *Service) GetLocation(ctx context.Context, id string) (*Location, error) {
	return s.store.GetLocation(ctx, id)
}

func normalizeLocation(l *Location) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return ErrNameRequired
	}
	l.Slug = strings.TrimSpace(strings.ToLower(l.Slug))
	if l.Slug == "" {
		l.Slug = slugify(l.Name)
	}
	return nil
}

func (s *Service) CreateLocation(ctx context.Context, l Location) (*Location, error) {
	if err := normalizeLocation(&l); err != nil {
		return nil, err
	}
	l.ID = uuid.NewString()
	out, err := s.store.CreateLocation(ctx, l)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) UpdateLocation(ctx context.Context, l Location) (*Location, error) {
	if err := normalizeLocation(&l); err != nil {
		return nil, err
	}
	out, err := s.store.UpdateLocation(ctx, l)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	if err := s.store.DeleteLocation(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

/* Plans */

func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.store.ListPlans(ctx, false)
}

func (s *Service) GetPlan(ctx context.Context, id string) (*Plan, error) {
	return s.store.GetPlan(ctx, id)
}

func validatePlan(p *Plan) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrNameRequired
	}
	if !p.Type.Valid() {
		return ErrInvalidPlan
	}
	// A plan may rely entirely on location overrides and the fallback table.
	if p.Pricing.IsEmpty() {
		return nil
	}
	if err := p.Pricing.Validate(p.Type); err != nil {
		return ErrInvalidPrice
	}
	return nil
}

func (s *Service) CreatePlan(ctx context.Context, p Plan) (*Plan, error) {
	if err := validatePlan(&p); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	out, err := s.store.CreatePlan(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) UpdatePlan(ctx context.Context, p Plan) (*Plan, error) {
	if err := validatePlan(&p); err != nil {
		return nil, err
	}
	out, err := s.store.UpdatePlan(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

/* Add-ons */

func (s *Service) ListAddOns(ctx context.Context) ([]AddOn, error) {
	return s.store.ListAddOns(ctx, false)
}

func (s *Service) GetAddOn(ctx context.Context, id string) (*AddOn, error) {
	return s.store.GetAddOn(ctx, id)
}

func validateAddOn(a *AddOn) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return ErrNameRequired
	}
	if a.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

func (s *Service) CreateAddOn(ctx context.Context, a AddOn) (*AddOn, error) {
	if err := validateAddOn(&a); err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()
	out, err := s.store.CreateAddOn(ctx, a)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) UpdateAddOn(ctx context.Context, a AddOn) (*AddOn, error) {
	if err := validateAddOn(&a); err != nil {
		return nil, err
	}
	out, err := s.store.UpdateAddOn(ctx, a)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) DeleteAddOn(ctx context.Context, id string) error {
	if err := s.store.DeleteAddOn(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

