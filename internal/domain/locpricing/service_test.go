package locpricing

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/logger"
)

type memStore struct {
	items  map[string]Override
	getErr error
}

func newMemStore() *memStore { return &memStore{items: map[string]Override{}} }

func (m *memStore) Get(_ context.Context, id string) (*Override, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	o, ok := m.items[id]
	if !ok {
		return nil, false, nil
	}
	return &o, true, nil
}

func (m *memStore) List(context.Context) ([]Override, error) {
	out := make([]Override, 0, len(m.items))
	for _, o := range m.items {
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, o Override) (*Override, error) {
	m.items[o.LocationID] = o
	return &o, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func TestSnapshotPlanPricingResolution(t *testing.T) {
	t.Parallel()

	hotDesk := catalog.Plan{ID: "p1", Type: pricing.PlanHotDesk, Pricing: pricing.PriceTable{Monthly: 9500}}
	bare := catalog.Plan{ID: "p2", Type: pricing.PlanPrivateOffice}

	snap := NewSnapshot([]Override{{
		LocationID: "B",
		Prices:     Pricing{pricing.PlanHotDesk: {Monthly: 11500}},
	}})

	tests := []struct {
		name     string
		location string
		plan     catalog.Plan
		want     pricing.PriceTable
	}{
		{"override wins", "B", hotDesk, pricing.PriceTable{Monthly: 11500}},
		{"plan default without override", "A", hotDesk, pricing.PriceTable{Monthly: 9500}},
		{"override for other tier falls to plan", "B", catalog.Plan{Type: pricing.PlanDayPass, Pricing: pricing.PriceTable{Daily: 400}}, pricing.PriceTable{Daily: 400}},
		{"hardcoded fallback last", "A", bare, Fallback[pricing.PlanPrivateOffice]},
	}
	for _, tt := range tests {
		if got := snap.PlanPricing(tt.location, tt.plan); got != tt.want {
			t.Errorf("%s: PlanPricing() = %+v, want %+v", tt.name, got, tt.want)
		}
	}

	plans := snap.PlansFor("B", []catalog.Plan{hotDesk, bare})
	if plans[0].Pricing.Monthly != 11500 || plans[1].Pricing != Fallback[pricing.PlanPrivateOffice] {
		t.Fatalf("PlansFor() = %+v", plans)
	}
	if hotDesk.Pricing.Monthly != 9500 {
		t.Fatalf("PlansFor must not mutate input")
	}
}

func TestGetLocationPricingFillsEveryTier(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.items["B"] = Override{LocationID: "B", Prices: Pricing{pricing.PlanHotDesk: {Monthly: 11500}}}
	svc := NewService(store, logger.Discard())

	got, err := svc.GetLocationPricing(context.Background(), "B")
	if err != nil {
		t.Fatalf("GetLocationPricing: %v", err)
	}
	if len(got) != len(pricing.PlanTypes) {
		t.Fatalf("expected %d tiers, got %d", len(pricing.PlanTypes), len(got))
	}
	if got[pricing.PlanHotDesk].Monthly != 11500 {
		t.Fatalf("override not applied: %+v", got[pricing.PlanHotDesk])
	}
	if got[pricing.PlanDayPass] != Fallback[pricing.PlanDayPass] {
		t.Fatalf("fallback not applied: %+v", got[pricing.PlanDayPass])
	}

	plain, err := svc.GetLocationPricing(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("GetLocationPricing: %v", err)
	}
	if plain[pricing.PlanHotDesk] != Fallback[pricing.PlanHotDesk] {
		t.Fatalf("expected fallback for unknown location")
	}
}

func TestGetLocationPricingStoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	store := newMemStore()
	store.getErr = boom
	svc := NewService(store, logger.Discard())
	if _, err := svc.GetLocationPricing(context.Background(), "A"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestUpdateLocationPricingUpserts(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewService(store, logger.Discard())
	ctx := context.Background()

	if _, err := svc.UpdateLocationPricing(ctx, " ", "x", nil); !errors.Is(err, ErrLocationRequired) {
		t.Fatalf("expected ErrLocationRequired, got %v", err)
	}
	if _, err := svc.UpdateLocationPricing(ctx, "A", "x", Pricing{"cabin": {Monthly: 1}}); !errors.Is(err, ErrUnknownPlanType) {
		t.Fatalf("expected ErrUnknownPlanType, got %v", err)
	}

	if _, err := svc.UpdateLocationPricing(ctx, "A", "Andheri", Pricing{pricing.PlanHotDesk: {Monthly: 1000}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := svc.UpdateLocationPricing(ctx, "A", "Andheri West", Pricing{pricing.PlanDayPass: {Daily: 300}}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if len(store.items) != 1 {
		t.Fatalf("expected replace, got %d overrides", len(store.items))
	}
	o := store.items["A"]
	if o.Name != "Andheri West" {
		t.Fatalf("name not replaced: %q", o.Name)
	}
	if _, ok := o.Prices[pricing.PlanHotDesk]; ok {
		t.Fatalf("update must replace the whole table, got %+v", o.Prices)
	}

	if _, err := svc.PatchTier(ctx, "A", "", pricing.PlanHotDesk, pricing.PriceTable{Weekly: 700}); err != nil {
		t.Fatalf("PatchTier: %v", err)
	}
	o = store.items["A"]
	if o.Prices[pricing.PlanDayPass].Daily != 300 || o.Prices[pricing.PlanHotDesk].Weekly != 700 || o.Name != "Andheri West" {
		t.Fatalf("PatchTier result: %+v", o)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, ok := snap.Override("A"); !ok {
		t.Fatalf("snapshot misses override")
	}
}

func TestImportKeepsValuesForEmptyCells(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.items["A"] = Override{
		LocationID: "A",
		Name:       "Andheri",
		Prices: Pricing{
			pricing.PlanHotDesk:       {Daily: 500, Monthly: 9500},
			pricing.PlanPrivateOffice: {Monthly: 30000},
		},
	}
	svc := NewService(store, logger.Discard())

	res, err := svc.Import(context.Background(), []ImportRow{
		{LocationID: "A", PlanType: pricing.PlanHotDesk, Prices: pricing.PriceTable{Monthly: 9900}},
		{LocationID: "A", PlanType: pricing.PlanDayPass},
		{LocationID: "B", Name: "Bandra", PlanType: pricing.PlanDayPass, Prices: pricing.PriceTable{Daily: 450}},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Locations != 2 || res.Rows != 2 {
		t.Fatalf("result = %+v", res)
	}

	a := store.items["A"]
	if a.Prices[pricing.PlanHotDesk] != (pricing.PriceTable{Daily: 500, Monthly: 9900}) {
		t.Fatalf("hot desk = %+v", a.Prices[pricing.PlanHotDesk])
	}
	if a.Prices[pricing.PlanPrivateOffice].Monthly != 30000 || a.Name != "Andheri" {
		t.Fatalf("untouched tier or name changed: %+v", a)
	}
	if _, ok := a.Prices[pricing.PlanDayPass]; ok {
		t.Fatalf("blank row must not create a tier")
	}
	if store.items["B"].Prices[pricing.PlanDayPass].Daily != 450 || store.items["B"].Name != "Bandra" {
		t.Fatalf("new location = %+v", store.items["B"])
	}
}

func TestImportRejectsUnknownTier(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemStore(), logger.Discard())
	_, err := svc.Import(context.Background(), []ImportRow{{LocationID: "A", PlanType: "cabin"}})
	if !errors.Is(err, ErrUnknownPlanType) {
		t.Fatalf("expected ErrUnknownPlanType, got %v", err)
	}
}
