package catalog

import (
	"errors"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

var (
	ErrNotFound     = errors.New("catalog: not found")
	ErrNameRequired = errors.New("catalog: name required")
	ErrSlugTaken    = errors.New("catalog: slug already taken")
	ErrInvalidPrice = errors.New("catalog: invalid price")
	ErrInvalidPlan  = errors.New("catalog: invalid plan")
	ErrInUse        = errors.New("catalog: referenced by bookings")
)

type Location struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Plan struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Type        pricing.PlanType   `json:"type"`
	Description string             `json:"description"`
	Pricing     pricing.PriceTable `json:"pricing"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
}

type AddOn struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // paisa, flat
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reference is the read-only data the booking wizard works against.
type Reference struct {
	Locations []Location `json:"locations"`
	Plans     []Plan     `json:"plans"`
	AddOns    []AddOn    `json:"add_ons"`
}

func (r Reference) Plan(id string) (Plan, bool) {
	for _, p := range r.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func (r Reference) Location(id string) (Location, bool) {
	for _, l := range r.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// AddOnPrices resolves ids to priced add-ons; unknown ids are skipped.
func (r Reference) AddOnPrices(ids []string) []pricing.AddOn {
	out := make([]pricing.AddOn, 0, len(ids))
	for _, id := range ids {
		for _, a := range r.AddOns {
			if a.ID == id {
				out = append(out, pricing.AddOn{ID: a.ID, Price: a.Price})
				break
			}
		}
	}
	return out
}
