package memberships

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrNotFound      = errors.New("memberships: not found")
	ErrMissingField  = errors.New("memberships: missing required field")
	ErrInvalidStatus = errors.New("memberships: invalid status")
	ErrInvalidPeriod = errors.New("memberships: ends before it starts")
)

// Membership is a recurring plan sold outside the online wizard.
type Membership struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	LocationID    string     `json:"location_id"`
	PlanID        string     `json:"plan_id"`
	StartsOn      time.Time  `json:"starts_on"`
	EndsOn        *time.Time `json:"ends_on,omitempty"`
	Status        Status     `json:"status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
