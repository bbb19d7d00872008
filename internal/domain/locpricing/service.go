package locpricing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

var (
	ErrNotFound         = errors.New("locpricing: override not found")
	ErrLocationRequired = errors.New("locpricing: location id required")
	ErrUnknownPlanType  = errors.New("locpricing: unknown plan type")
)

type Store interface {
	Get(ctx context.Context, locationID string) (*Override, bool, error)
	List(ctx context.Context) ([]Override, error)
	Upsert(ctx context.Context, o Override) (*Override, error)
	Delete(ctx context.Context, locationID string) error
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// GetLocationPricing returns the effective per-tier table for a location.
func (s *Service) GetLocationPricing(ctx context.Context, locationID string) (Pricing, error) {
	o, ok, err := s.store.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewSnapshot(nil).LocationPricing(locationID), nil
	}
	return NewSnapshot([]Override{*o}).LocationPricing(locationID), nil
}

// UpdateLocationPricing upserts the override by location id. Amounts are
// admin input and are stored as given.
func (s *Service) UpdateLocationPricing(ctx context.Context, locationID, name string, prices Pricing) (*Override, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, ErrLocationRequired
	}
	for t := range prices {
		if !t.Valid() {
			return nil, ErrUnknownPlanType
		}
	}
	if prices == nil {
		prices = Pricing{}
	}
	o, err := s.store.Upsert(ctx, Override{LocationID: locationID, Name: strings.TrimSpace(name), Prices: prices})
	if err != nil {
		return nil, err
	}
	s.log.Info("location pricing updated", "location_id", locationID, "tiers", len(prices))
	return o, nil
}

// PatchTier changes a single tier of an override, keeping the rest.
func (s *Service) PatchTier(ctx context.Context, locationID, name string, t pricing.PlanType, table pricing.PriceTable) (*Override, error) {
	current, ok, err := s.store.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	prices := Pricing{}
	if ok {
		for k, v := range current.Prices {
			prices[k] = v
		}
		if name == "" {
			name = current.Name
		}
	}
	prices[t] = prices[t].Merge(table)
	return s.UpdateLocationPricing(ctx, locationID, name, prices)
}

func (s *Service) ListOverrides(ctx context.Context) ([]Override, error) {
	return s.store.List(ctx)
}

func (s *Service) DeleteLocationPricing(ctx context.Context, locationID string) error {
	return s.store.Delete(ctx, locationID)
}

// Snapshot loads every override for in-memory resolution.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(all), nil
}

// ImportRow is one tier of one location from a bulk upload. Zero amounts
// keep whatever is stored.
type ImportRow struct {
	LocationID string
	Name       string
	PlanType   pricing.PlanType
	Prices     pricing.PriceTable
}

type ImportResult struct {
	Locations int `json:"locations"`
	Rows      int `json:"rows"`
}

// Import merges rows into the stored overrides, one upsert per location.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	var (
		order   []string
		grouped = map[string][]ImportRow{}
	)
	for _, r := range rows {
		id := strings.TrimSpace(r.LocationID)
		if id == "" {
			return ImportResult{}, ErrLocationRequired
		}
		if !r.PlanType.Valid() {
			return ImportResult{}, ErrUnknownPlanType
		}
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], r)
	}

	var res ImportResult
	for _, id := range order {
		current, ok, err := s.store.Get(ctx, id)
		if err != nil {
			return res, err
		}
		prices := Pricing{}
		name := ""
		if ok {
			for k, v := range current.Prices {
				prices[k] = v
			}
			name = current.Name
		}
		for _, r := range grouped[id] {
			if r.Name != "" {
				name = r.Name
			}
			merged := prices[r.PlanType].Merge(r.Prices)
			if merged.IsEmpty() {
				continue
			}
			prices[r.PlanType] = merged
			res.Rows++
		}
		if _, err := s.UpdateLocationPricing(ctx, id, name, prices); err != nil {
			return res, err
		}
		res.Locations++
	}
	s.log.Info("location pricing imported", "locations", res.Locations, "rows", res.Rows)
	return res, nil
}
