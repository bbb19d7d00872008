package wizard

import (
	"log/slog"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

// Observer receives wizard events, typically for metrics.
type Observer interface {
	StepMoved(direction string, to Step)
	PlanMissing()
}

type nopObserver struct{}

func (nopObserver) StepMoved(string, Step) {}
func (nopObserver) PlanMissing()           {}

// Env is the shared, read-only context a session works against. It is built
// once per request from cached reference data and injected into sessions.
type Env struct {
	Ref      catalog.Reference
	Pricing  locpricing.Snapshot
	Calc     pricing.Calculator
	Currency string
	Log      *slog.Logger
	Observer Observer
}

func (e *Env) observer() Observer {
	if e.Observer == nil {
		return nopObserver{}
	}
	return e.Observer
}

// Session owns the state of one booking wizard. It is not safe for
// concurrent use; callers serialize access per session id.
type Session struct {
	ID        string
	Step      Step
	Draft     Draft
	Breakdown pricing.Breakdown
	UpdatedAt time.Time

	env   *Env
	plans []catalog.Plan
}

func New(id string, env *Env) *Session {
	s := &Session{ID: id, env: env}
	s.Reset()
	return s
}

// Plans returns the plan list priced for the current location.
func (s *Session) Plans() []catalog.Plan { return s.plans }

// SelectedPlan looks the draft's plan up in the location-priced list.
func (s *Session) SelectedPlan() (catalog.Plan, bool) {
	for _, p := range s.plans {
		if p.ID == s.Draft.PlanID {
			return p, true
		}
	}
	return catalog.Plan{}, false
}

func (s *Session) planType() pricing.PlanType {
	p, _ := s.SelectedPlan()
	return p.Type
}

func (s *Session) NextStep() {
	next := clampStep(s.Step + 1)
	if next != s.Step {
		s.Step = next
		s.env.observer().StepMoved("next", next)
	}
}

func (s *Session) PrevStep() {
	prev := clampStep(s.Step - 1)
	if prev != s.Step {
		s.Step = prev
		s.env.observer().StepMoved("prev", prev)
	}
}

// CanProceed evaluates the gate of the current step. NextStep does not call it.
func (s *Session) CanProceed() bool {
	return CanProceed(s.Step, s.Draft, s.planType())
}

// Complete reports whether every step's gate passes.
func (s *Session) Complete() bool {
	return FirstBlocked(s.Draft, s.planType()) == 0
}

// Update merges p into the draft, re-prices plans when the location changes
// and recomputes the total.
func (s *Session) Update(p Patch) {
	prevLocation := s.Draft.LocationID
	s.Draft = p.apply(s.Draft)
	if s.Draft.LocationID != prevLocation {
		s.refreshPlans()
	}
	s.CalculateTotal()
}

func (s *Session) refreshPlans() {
	s.plans = s.env.Pricing.PlansFor(s.Draft.LocationID, s.env.Ref.Plans)
}

// CalculateTotal prices the draft. When the selected plan is not in the
// reference data the previous total is kept and a warning is emitted; this
// is intentional and never surfaces as an error.
func (s *Session) CalculateTotal() { s.calculate(true) }

// calculate prices the draft; report controls the missing-plan warning and
// metric so that plain reads stay quiet.
func (s *Session) calculate(report bool) {
	if s.Draft.PlanID == "" {
		return
	}
	plan, ok := s.SelectedPlan()
	if !ok {
		if !report {
			return
		}
		s.env.Log.Warn("selected plan not in reference data, keeping last total",
			"session_id", s.ID,
			"plan_id", s.Draft.PlanID,
			"total_amount", s.Draft.TotalAmount,
		)
		s.env.observer().PlanMissing()
		return
	}

	s.Breakdown = s.env.Calc.Calculate(pricing.Input{
		Pricing:          plan.Pricing,
		PlanType:         plan.Type,
		AddOns:           s.env.Ref.AddOnPrices(s.Draft.AddOns.IDs),
		MeetingRoomHours: s.Draft.AddOns.MeetingRoomHours,
		GuestPasses:      s.Draft.AddOns.GuestPasses,
		Channel:          pricing.ChannelOnline,
	})
	s.Draft.TotalAmount = s.Breakdown.Total
}

// Reset returns to step one with an empty draft.
func (s *Session) Reset() {
	s.Step = FirstStep
	s.Draft = emptyDraft(s.env.Currency)
	s.Breakdown = pricing.Breakdown{}
	s.refreshPlans()
}

// Record is the persisted form of a session.
type Record struct {
	ID        string
	Step      Step
	Draft     Draft
	UpdatedAt time.Time
}

func (s *Session) Record() Record {
	return Record{ID: s.ID, Step: s.Step, Draft: s.Draft, UpdatedAt: s.UpdatedAt}
}

// Restore rebuilds a session from its record against fresh reference data.
func Restore(rec Record, env *Env) *Session {
	s := &Session{ID: rec.ID, Step: clampStep(rec.Step), Draft: rec.Draft, UpdatedAt: rec.UpdatedAt, env: env}
	if s.Draft.Currency == "" {
		s.Draft.Currency = env.Currency
	}
	s.Draft.AddOns = s.Draft.AddOns.normalize()
	s.refreshPlans()
	s.calculate(false)
	return s
}
