package bookings

import (
	"errors"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanMove reports whether an admin may move a booking from s to next.
func (s Status) CanMove(next Status) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("bookings: not found")
	ErrInvalidStatus     = errors.New("bookings: invalid status")
	ErrInvalidTransition = errors.New("bookings: status transition not allowed")
	ErrInvalidAmount     = errors.New("bookings: invalid amount")
	ErrMissingField      = errors.New("bookings: missing required field")
)

type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company,omitempty"`
}

func (c Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Booking struct {
	ID               string           `json:"id"`
	LocationID       string           `json:"location_id"`
	PlanID           string           `json:"plan_id"`
	PlanType         pricing.PlanType `json:"plan_type"`
	StartDate        *time.Time       `json:"start_date"`
	EndDate          *time.Time       `json:"end_date"`
	StartTime        string           `json:"start_time"`
	EndTime          string           `json:"end_time"`
	AddOnIDs         []string         `json:"add_on_ids"`
	MeetingRoomHours int              `json:"meeting_room_hours"`
	GuestPasses      int              `json:"guest_passes"`
	Notes            string           `json:"notes"`
	Contact          Contact          `json:"contact"`

	Breakdown   pricing.Breakdown `json:"breakdown"`
	TotalAmount int64             `json:"total_amount"`
	Currency    string            `json:"currency"`

	Status        Status          `json:"status"`
	Channel       pricing.Channel `json:"channel"`
	PaymentID     *string         `json:"payment_id,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Filter struct {
	Status     Status
	LocationID string
	From       *time.Time // created_at >= From
	To         *time.Time // created_at < To
	Limit      int
}
