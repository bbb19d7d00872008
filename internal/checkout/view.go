package checkout

import (
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/wizard"
)

// View is what clients see of a wizard session.
type View struct {
	ID         string            `json:"id"`
	Step       wizard.Step       `json:"step"`
	StepName   string            `json:"step_name"`
	Draft      wizard.Draft      `json:"draft"`
	Breakdown  pricing.Breakdown `json:"breakdown"`
	Plans      []catalog.Plan    `json:"plans"`
	CanProceed bool              `json:"can_proceed"`
	Complete   bool              `json:"complete"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func viewOf(s *wizard.Session) View {
	return View{
		ID:         s.ID,
		Step:       s.Step,
		StepName:   s.Step.String(),
		Draft:      s.Draft,
		Breakdown:  s.Breakdown,
		Plans:      s.Plans(),
		CanProceed: s.CanProceed(),
		Complete:   s.Complete(),
		UpdatedAt:  s.UpdatedAt,
	}
}
