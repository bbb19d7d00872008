package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

var ErrNotConfirmed = errors.New("receipt: booking is not confirmed")

// Data is a booking plus the display names the PDF needs.
type Data struct {
	Booking      bookings.Booking
	BusinessName string
	LocationName string
	PlanName     string
	AddOnNames   []string
}

// Render builds an A4 PDF receipt with a QR code of the booking id.
func Render(d Data) ([]byte, error) {
	b := d.Booking
	if b.Status != bookings.StatusConfirmed && b.Status != bookings.StatusCompleted {
		return nil, ErrNotConfirmed
	}

	qrPNG, err := qrcode.Encode(b.ID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("receipt: qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking receipt "+b.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, d.BusinessName)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, "Booking receipt")
	pdf.Ln(14)

	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}
	line("Booking", b.ID)
	line("Issued", b.CreatedAt.Format("2006-01-02 15:04"))
	line("Customer", b.Contact.FullName())
	line("Email", b.Contact.Email)
	if b.Contact.Company != "" {
		line("Company", b.Contact.Company)
	}
	line("Location", fallback(d.LocationName, b.LocationID))
	line("Plan", fallback(d.PlanName, b.PlanID))
	if b.StartDate != nil {
		line("From", strings.TrimSpace(b.StartDate.Format("2006-01-02")+" "+b.StartTime))
	}
	if b.EndDate != nil {
		line("To", strings.TrimSpace(b.EndDate.Format("2006-01-02")+" "+b.EndTime))
	}
	if len(d.AddOnNames) > 0 {
		line("Add-ons", strings.Join(d.AddOnNames, ", "))
	}
	if b.PaymentMethod != "" {
		line("Paid by", b.PaymentMethod)
	}
	pdf.Ln(6)

	amount := func(label string, v int64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(120, 8, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, pricing.FormatAmount(v, b.Currency), "B", 1, "R", false, 0, "")
	}
	bd := b.Breakdown
	amount("Plan", bd.BasePrice, false)
	if bd.AddOnsPrice > 0 {
		amount("Add-ons", bd.AddOnsPrice, false)
	}
	if bd.MeetingRoomHoursPrice > 0 {
		amount(fmt.Sprintf("Meeting room (%d h)", b.MeetingRoomHours), bd.MeetingRoomHoursPrice, false)
	}
	if bd.GuestPassesPrice > 0 {
		amount(fmt.Sprintf("Guest passes (%d)", b.GuestPasses), bd.GuestPassesPrice, false)
	}
	if bd.DiscountAmount > 0 {
		amount("Subtotal", bd.Subtotal, false)
		amount("Online discount", -bd.DiscountAmount, false)
	}
	amount("Total", b.TotalAmount, true)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
