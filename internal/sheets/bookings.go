package sheets

import (
	"strings"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
)

var bookingsHeader = []any{
	"id", "created_at", "status", "channel", "location_id", "plan_id", "plan_type",
	"start_date", "end_date", "start_time", "end_time", "add_ons", "meeting_room_hours", "guest_passes",
	"first_name", "last_name", "email", "phone", "company",
	"subtotal", "discount", "total", "currency", "payment_method", "payment_id", "notes",
}

func ExportBookings(list []bookings.Booking, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]any, 0, len(list))
	for _, b := range list {
		paymentID := ""
		if b.PaymentID != nil {
			paymentID = *b.PaymentID
		}
		rows = append(rows, []any{
			b.ID, b.CreatedAt.In(loc).Format("2006-01-02 15:04"), string(b.Status), string(b.Channel),
			b.LocationID, b.PlanID, string(b.PlanType),
			day(b.StartDate), day(b.EndDate), b.StartTime, b.EndTime,
			strings.Join(b.AddOnIDs, ","), b.MeetingRoomHours, b.GuestPasses,
			b.Contact.FirstName, b.Contact.LastName, b.Contact.Email, b.Contact.Phone, b.Contact.Company,
			float64(b.Breakdown.Subtotal) / 100, float64(b.Breakdown.DiscountAmount) / 100, float64(b.TotalAmount) / 100,
			b.Currency, b.PaymentMethod, paymentID, b.Notes,
		})
	}
	return writeTable("bookings", bookingsHeader, rows)
}

func day(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
