package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

// Notifier tells someone that a booking was confirmed.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b bookings.Booking) error
}

type Nop struct{}

func (Nop) BookingConfirmed(context.Context, bookings.Booking) error { return nil }

// Multi fans a notification out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	var errs []error
	for _, n := range m {
		if err := n.BookingConfirmed(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func summary(b bookings.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking %s\n", b.ID)
	fmt.Fprintf(&sb, "Customer: %s <%s>, %s\n", b.Contact.FullName(), b.Contact.Email, b.Contact.Phone)
	fmt.Fprintf(&sb, "Location: %s\nPlan: %s (%s)\n", b.LocationID, b.PlanID, b.PlanType)
	if b.StartDate != nil {
		fmt.Fprintf(&sb, "From: %s", b.StartDate.Format("2006-01-02"))
		if b.StartTime != "" {
			fmt.Fprintf(&sb, " %s", b.StartTime)
		}
		sb.WriteByte('\n')
	}
	if b.EndDate != nil {
		fmt.Fprintf(&sb, "To: %s", b.EndDate.Format("2006-01-02"))
		if b.EndTime != "" {
			fmt.Fprintf(&sb, " %s", b.EndTime)
		}
		sb.WriteByte('\n')
	}
	if b.Breakdown.DiscountAmount > 0 {
		fmt.Fprintf(&sb, "Discount: %s\n", pricing.FormatAmount(b.Breakdown.DiscountAmount, b.Currency))
	}
	fmt.Fprintf(&sb, "Total: %s", pricing.FormatAmount(b.TotalAmount, b.Currency))
	return sb.String()
}
