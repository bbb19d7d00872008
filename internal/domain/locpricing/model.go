package locpricing

import (
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

// Pricing is a price table per plan tier.
type Pricing map[pricing.PlanType]pricing.PriceTable

// Override replaces plan prices for one location.
type Override struct {
	LocationID string    `json:"location_id"`
	Name       string    `json:"name"`
	Prices     Pricing   `json:"prices"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Fallback is used when neither an override nor the plan itself carries prices.
var Fallback = Pricing{
	pricing.PlanDayPass:       {Daily: 49900},
	pricing.PlanHotDesk:       {Daily: 49900, Weekly: 249900, Monthly: 799900},
	pricing.PlanDedicatedDesk: {Monthly: 1199900, Annual: 12999900},
	pricing.PlanPrivateOffice: {Monthly: 2999900, Annual: 32999900},
	pricing.PlanMeetingRoom:   {Daily: 299900, Monthly: 499900},
}

// Snapshot is an immutable view of every override, keyed by location id.
type Snapshot struct {
	byLocation map[string]Override
}

func NewSnapshot(overrides []Override) Snapshot {
	m := make(map[string]Override, len(overrides))
	for _, o := range overrides {
		m[o.LocationID] = o
	}
	return Snapshot{byLocation: m}
}

func (s Snapshot) Override(locationID string) (Override, bool) {
	o, ok := s.byLocation[locationID]
	return o, ok
}

// PlanPricing resolves the table for plan at location: override tier, then
// the plan's own table, then Fallback.
func (s Snapshot) PlanPricing(locationID string, plan catalog.Plan) pricing.PriceTable {
	if o, ok := s.byLocation[locationID]; ok {
		if t, ok := o.Prices[plan.Type]; ok && !t.IsEmpty() {
			return t
		}
	}
	if !plan.Pricing.IsEmpty() {
		return plan.Pricing
	}
	return Fallback[plan.Type]
}

// LocationPricing returns a full table for the location with every tier filled.
func (s Snapshot) LocationPricing(locationID string) Pricing {
	out := make(Pricing, len(pricing.PlanTypes))
	o, hasOverride := s.byLocation[locationID]
	for _, t := range pricing.PlanTypes {
		if hasOverride {
			if p, ok := o.Prices[t]; ok && !p.IsEmpty() {
				out[t] = p
				continue
			}
		}
		out[t] = Fallback[t]
	}
	return out
}

// PlansFor returns plans with Pricing replaced by the effective table for locationID.
func (s Snapshot) PlansFor(locationID string, plans []catalog.Plan) []catalog.Plan {
	out := make([]catalog.Plan, len(plans))
	for i, p := range plans {
		p.Pricing = s.PlanPricing(locationID, p)
		out[i] = p
	}
	return out
}
