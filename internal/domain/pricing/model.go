package pricing

import (
	"errors"
	"fmt"
)

type PlanType string

const (
	PlanDayPass       PlanType = "day_pass"
	PlanHotDesk       PlanType = "hot_desk"
	PlanDedicatedDesk PlanType = "dedicated_desk"
	PlanPrivateOffice PlanType = "private_office"
	PlanMeetingRoom   PlanType = "meeting_room"
)

// PlanTypes lists every tier in display order.
var PlanTypes = []PlanType{PlanDayPass, PlanHotDesk, PlanDedicatedDesk, PlanPrivateOffice, PlanMeetingRoom}

func (t PlanType) Valid() bool {
	for _, p := range PlanTypes {
		if p == t {
			return true
		}
	}
	return false
}

var (
	ErrEmptyPriceTable   = errors.New("pricing: price table has no prices")
	ErrNegativePrice     = errors.New("pricing: negative price")
	ErrDayPassNeedsDaily = errors.New("pricing: day pass requires a daily price")
	ErrUnknownPlanType   = errors.New("pricing: unknown plan type")
	ErrExtraCount        = errors.New("pricing: meeting-room hours or guest passes out of range")
	ErrRates             = errors.New("pricing: rates out of range")
)

// MaxExtraCount bounds meeting-room hours and guest passes on one booking.
const MaxExtraCount = 10000

// MaxUnitRate bounds the configured per-hour and per-pass rates so that
// MaxExtraCount units never overflow int64.
const MaxUnitRate int64 = 100_000_000_000

// ValidateExtras rejects counts above MaxExtraCount. Negative counts are
// allowed and priced as zero.
func ValidateExtras(meetingRoomHours, guestPasses int) error {
	if meetingRoomHours > MaxExtraCount || guestPasses > MaxExtraCount {
		return fmt.Errorf("%w: at most %d each", ErrExtraCount, MaxExtraCount)
	}
	return nil
}

// PriceTable holds amounts in paisa. A zero field means the price point is absent.
type PriceTable struct {
	Daily   int64 `json:"daily,omitempty"`
	Weekly  int64 `json:"weekly,omitempty"`
	Monthly int64 `json:"monthly,omitempty"`
	Annual  int64 `json:"annual,omitempty"`
}

func (p PriceTable) IsEmpty() bool {
	return p.Daily == 0 && p.Weekly == 0 && p.Monthly == 0 && p.Annual == 0
}

// Validate checks the table for the given plan type.
func (p PriceTable) Validate(t PlanType) error {
	if !t.Valid() {
		return ErrUnknownPlanType
	}
	if p.Daily < 0 || p.Weekly < 0 || p.Monthly < 0 || p.Annual < 0 {
		return ErrNegativePrice
	}
	if p.IsEmpty() {
		return ErrEmptyPriceTable
	}
	if t == PlanDayPass && p.Daily == 0 {
		return ErrDayPassNeedsDaily
	}
	return nil
}

// Merge overlays the non-zero fields of o onto p.
func (p PriceTable) Merge(o PriceTable) PriceTable {
	if o.Daily != 0 {
		p.Daily = o.Daily
	}
	if o.Weekly != 0 {
		p.Weekly = o.Weekly
	}
	if o.Monthly != 0 {
		p.Monthly = o.Monthly
	}
	if o.Annual != 0 {
		p.Annual = o.Annual
	}
	return p
}

type AddOn struct {
	ID    string `json:"id"`
	Price int64  `json:"price"`
}

// Channel tells the calculator how the booking is being made.
type Channel string

const (
	ChannelOnline Channel = "online"
	ChannelManual Channel = "manual"
)

type Rates struct {
	MeetingRoomHour       int64
	GuestPass             int64
	OnlineDiscountPercent int64
}

func (r Rates) Validate() error {
	if r.MeetingRoomHour < 0 || r.MeetingRoomHour > MaxUnitRate ||
		r.GuestPass < 0 || r.GuestPass > MaxUnitRate ||
		r.OnlineDiscountPercent < 0 || r.OnlineDiscountPercent > 100 {
		return ErrRates
	}
	return nil
}

func DefaultRates() Rates {
	return Rates{MeetingRoomHour: 50000, GuestPass: 30000, OnlineDiscountPercent: 5}
}

type Input struct {
	Pricing          PriceTable
	PlanType         PlanType
	AddOns           []AddOn
	MeetingRoomHours int
	GuestPasses      int
	Channel          Channel
}

type Breakdown struct {
	BasePrice             int64 `json:"base_price"`
	AddOnsPrice           int64 `json:"add_ons_price"`
	MeetingRoomHoursPrice int64 `json:"meeting_room_hours_price"`
	GuestPassesPrice      int64 `json:"guest_passes_price"`
	Subtotal              int64 `json:"subtotal"`
	DiscountAmount        int64 `json:"discount_amount,omitempty"`
	Total                 int64 `json:"total"`
}

// FormatAmount renders paisa as rupees, e.g. 905000 -> "9050.00 INR".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}
