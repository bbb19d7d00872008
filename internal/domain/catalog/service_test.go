package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/logger"
)

type fakeStore struct {
	locations []Location
	plans     []Plan
	addOns    []AddOn

	listCalls int
	created   any
	listErr   error
}

func (f *fakeStore) ListLocations(_ context.Context, _ bool) ([]Location, error) {
	f.listCalls++
	return f.locations, f.listErr
}
func (f *fakeStore) GetLocation(_ context.Context, id string) (*Location, error) {
	for _, l := range f.locations {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, ErrNotFound
}
func (f *fakeStore) CreateLocation(_ context.Context, l Location) (*Location, error) {
	f.created = l
	return &l, nil
}
func (f *fakeStore) UpdateLocation(_ context.Context, l Location) (*Location, error) { return &l, nil }
func (f *fakeStore) DeleteLocation(context.Context, string) error                    { return nil }
func (f *fakeStore) ListPlans(context.Context, bool) ([]Plan, error)                 { return f.plans, nil }
func (f *fakeStore) GetPlan(context.Context, string) (*Plan, error)                  { return nil, ErrNotFound }
func (f *fakeStore) CreatePlan(_ context.Context, p Plan) (*Plan, error) {
	f.created = p
	return &p, nil
}
func (f *fakeStore) UpdatePlan(_ context.Context, p Plan) (*Plan, error) { return &p, nil }
func (f *fakeStore) DeletePlan(context.Context, string) error            { return nil }
func (f *fakeStore) ListAddOns(context.Context, bool) ([]AddOn, error)   { return f.addOns, nil }
func (f *fakeStore) GetAddOn(context.Context, string) (*AddOn, error)    { return nil, ErrNotFound }
func (f *fakeStore) CreateAddOn(_ context.Context, a AddOn) (*AddOn, error) {
	f.created = a
	return &a, nil
}
func (f *fakeStore) UpdateAddOn(_ context.Context, a AddOn) (*AddOn, error) { return &a, nil }
func (f *fakeStore) DeleteAddOn(context.Context, string) error              { return nil }

type memCache struct {
	ref         *Reference
	invalidated int
}

func (m *memCache) GetReference(context.Context) (*Reference, bool, error) {
	if m.ref == nil {
		return nil, false, nil
	}
	return m.ref, true, nil
}
func (m *memCache) SetReference(_ context.Context, ref Reference) error {
	m.ref = &ref
	return nil
}
func (m *memCache) InvalidateReference(context.Context) error {
	m.ref = nil
	m.invalidated++
	return nil
}

func TestReferenceUsesCache(t *testing.T) {
	store := &fakeStore{
		locations: []Location{{ID: "A", Name: "Andheri"}},
		plans:     []Plan{{ID: "p1", Type: pricing.PlanHotDesk}},
		addOns:    []AddOn{{ID: "a1", Price: 100}},
	}
	cache := &memCache{}
	svc := NewService(store, cache, logger.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ref, err := svc.Reference(ctx)
		if err != nil {
			t.Fatalf("Reference: %v", err)
		}
		if len(ref.Locations) != 1 || len(ref.Plans) != 1 || len(ref.AddOns) != 1 {
			t.Fatalf("unexpected reference: %+v", ref)
		}
	}
	if store.listCalls != 1 {
		t.Fatalf("expected one store read, got %d", store.listCalls)
	}

	if _, err := svc.CreateAddOn(ctx, AddOn{Name: "Locker", Price: 500}); err != nil {
		t.Fatalf("CreateAddOn: %v", err)
	}
	if cache.invalidated != 1 {
		t.Fatalf("expected cache invalidation on write")
	}
	if _, err := svc.Reference(ctx); err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if store.listCalls != 2 {
		t.Fatalf("expected reload after invalidation, got %d reads", store.listCalls)
	}
}

func TestReferenceStoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&fakeStore{listErr: boom}, nil, logger.Discard())
	if _, err := svc.Reference(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, logger.Discard())
	ctx := context.Background()

	if _, err := svc.CreateLocation(ctx, Location{Name: "  "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	l, err := svc.CreateLocation(ctx, Location{Name: "Koramangala Hub #2"})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	if l.Slug != "koramangala-hub-2" || l.ID == "" {
		t.Fatalf("unexpected location: %+v", l)
	}

	if _, err := svc.CreatePlan(ctx, Plan{Name: "Desk", Type: "cabin"}); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
	if _, err := svc.CreatePlan(ctx, Plan{Name: "Day", Type: pricing.PlanDayPass, Pricing: pricing.PriceTable{Monthly: 10}}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := svc.CreatePlan(ctx, Plan{Name: "Flex", Type: pricing.PlanHotDesk}); err != nil {
		t.Fatalf("plan without own prices must be accepted: %v", err)
	}
	if _, err := svc.CreateAddOn(ctx, AddOn{Name: "Phone", Price: -1}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestReferenceLookups(t *testing.T) {
	ref := Reference{
		Plans:  []Plan{{ID: "p1", Type: pricing.PlanDayPass}},
		AddOns: []AddOn{{ID: "a1", Price: 100}, {ID: "a2", Price: 250}},
	}
	if _, ok := ref.Plan("missing"); ok {
		t.Fatalf("unexpected plan hit")
	}
	got := ref.AddOnPrices([]string{"a2", "zzz", "a1"})
	if len(got) != 2 || got[0].Price != 250 || got[1].Price != 100 {
		t.Fatalf("AddOnPrices() = %+v", got)
	}
}
