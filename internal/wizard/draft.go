package wizard

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

const dateLayout = "2006-01-02"

// Date is a calendar day. The zero value means "not chosen" and encodes as null.
type Date struct{ time.Time }

func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" or null; the last two clear the date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type AddOnSelection struct {
	IDs              []string `json:"ids"`
	MeetingRoomHours int      `json:"meeting_room_hours"`
	GuestPasses      int      `json:"guest_passes"`
}

// normalize drops duplicate ids and clamps counters to [0, MaxExtraCount].
func (a AddOnSelection) normalize() AddOnSelection {
	seen := make(map[string]struct{}, len(a.IDs))
	ids := make([]string, 0, len(a.IDs))
	for _, id := range a.IDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	a.IDs = ids
	if a.MeetingRoomHours < 0 {
		a.MeetingRoomHours = 0
	}
	if a.GuestPasses < 0 {
		a.GuestPasses = 0
	}
	a.MeetingRoomHours = min(a.MeetingRoomHours, pricing.MaxExtraCount)
	a.GuestPasses = min(a.GuestPasses, pricing.MaxExtraCount)
	return a
}

type ContactInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company,omitempty"`
}

// Draft is the in-progress booking. TotalAmount is derived, never set by clients.
type Draft struct {
	LocationID  string         `json:"location_id"`
	PlanID      string         `json:"plan_id"`
	StartDate   Date           `json:"start_date"`
	EndDate     Date           `json:"end_date"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	AddOns      AddOnSelection `json:"add_ons"`
	Notes       string         `json:"notes"`
	Contact     ContactInfo    `json:"contact"`
	TotalAmount int64          `json:"total_amount"`
	Currency    string         `json:"currency"`
}

func emptyDraft(currency string) Draft {
	return Draft{AddOns: AddOnSelection{IDs: []string{}}, Currency: currency}
}

// Patch is a shallow partial update; nil fields are left as they are.
// Nested values (AddOns, Contact) replace the whole sub-object. Over JSON a
// date is cleared with "" since null leaves the pointer nil.
type Patch struct {
	LocationID *string         `json:"location_id,omitempty"`
	PlanID     *string         `json:"plan_id,omitempty"`
	StartDate  *Date           `json:"start_date,omitempty"`
	EndDate    *Date           `json:"end_date,omitempty"`
	StartTime  *string         `json:"start_time,omitempty"`
	EndTime    *string         `json:"end_time,omitempty"`
	AddOns     *AddOnSelection `json:"add_ons,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
	Contact    *ContactInfo    `json:"contact,omitempty"`
}

// Validate rejects values no draft may hold.
func (p Patch) Validate() error {
	if p.AddOns != nil {
		return pricing.ValidateExtras(p.AddOns.MeetingRoomHours, p.AddOns.GuestPasses)
	}
	return nil
}

func (p Patch) apply(d Draft) Draft {
	if p.LocationID != nil {
		d.LocationID = *p.LocationID
	}
	if p.PlanID != nil {
		d.PlanID = *p.PlanID
	}
	if p.StartDate != nil {
		d.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		d.EndDate = *p.EndDate
	}
	if p.StartTime != nil {
		d.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		d.EndTime = *p.EndTime
	}
	if p.AddOns != nil {
		d.AddOns = p.AddOns.normalize()
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
	if p.Contact != nil {
		d.Contact = *p.Contact
	}
	return d
}
