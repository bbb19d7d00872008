package wizard

import "github.com/Spok95/cowork-booking/internal/domain/pricing"

type Step int

const (
	StepLocationPlan Step = 1
	StepDateTime     Step = 2
	StepAddOns       Step = 3
	StepContact      Step = 4

	FirstStep = StepLocationPlan
	LastStep  = StepContact
)

func (s Step) String() string {
	switch s {
	case StepLocationPlan:
		return "location_plan"
	case StepDateTime:
		return "date_time"
	case StepAddOns:
		return "add_ons"
	case StepContact:
		return "contact"
	}
	return "unknown"
}

func clampStep(s Step) Step {
	if s < FirstStep {
		return FirstStep
	}
	if s > LastStep {
		return LastStep
	}
	return s
}

// CanProceed reports whether the draft satisfies the gate of step.
// planType is the type of the selected plan, empty when unknown.
// Dates are not checked for ordering.
func CanProceed(step Step, d Draft, planType pricing.PlanType) bool {
	switch step {
	case StepLocationPlan:
		return d.LocationID != "" && d.PlanID != ""
	case StepDateTime:
		if d.StartDate.IsZero() {
			return false
		}
		if planType == pricing.PlanDayPass {
			return true
		}
		return d.StartTime != "" && d.EndTime != ""
	case StepAddOns:
		return true
	case StepContact:
		c := d.Contact
		return c.FirstName != "" && c.LastName != "" && c.Email != "" && c.Phone != ""
	}
	return false
}

// FirstBlocked returns the earliest step whose gate fails, or 0 when all pass.
func FirstBlocked(d Draft, planType pricing.PlanType) Step {
	for s := FirstStep; s <= LastStep; s++ {
		if !CanProceed(s, d, planType) {
			return s
		}
	}
	return 0
}
