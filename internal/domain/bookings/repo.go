package bookings

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const bookingCols = `
	id, location_id, plan_id, plan_type, start_date, end_date, start_time, end_time,
	add_on_ids, meeting_room_hours, guest_passes, notes,
	first_name, last_name, email, phone, company,
	base_price, add_ons_price, meeting_room_hours_price, guest_passes_price, subtotal, discount_amount,
	total_amount, currency, status, channel, payment_id, payment_method, created_at, updated_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.LocationID, &b.PlanID, &b.PlanType, &b.StartDate, &b.EndDate, &b.StartTime, &b.EndTime,
		&b.AddOnIDs, &b.MeetingRoomHours, &b.GuestPasses, &b.Notes,
		&b.Contact.FirstName, &b.Contact.LastName, &b.Contact.Email, &b.Contact.Phone, &b.Contact.Company,
		&b.Breakdown.BasePrice, &b.Breakdown.AddOnsPrice, &b.Breakdown.MeetingRoomHoursPrice,
		&b.Breakdown.GuestPassesPrice, &b.Breakdown.Subtotal, &b.Breakdown.DiscountAmount,
		&b.TotalAmount, &b.Currency, &b.Status, &b.Channel, &b.PaymentID, &b.PaymentMethod, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	b.Breakdown.Total = b.TotalAmount
	if b.AddOnIDs == nil {
		b.AddOnIDs = []string{}
	}
	return b, nil
}

// Create inserts the booking. A second insert for the same payment id is a
// no-op that returns the existing row with created=false.
func (r *Repo) Create(ctx context.Context, b Booking) (*Booking, bool, error) {
	if b.AddOnIDs == nil {
		b.AddOnIDs = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			id, location_id, plan_id, plan_type, start_date, end_date, start_time, end_time,
			add_on_ids, meeting_room_hours, guest_passes, notes,
			first_name, last_name, email, phone, company,
			base_price, add_ons_price, meeting_room_hours_price, guest_passes_price, subtotal, discount_amount,
			total_amount, currency, status, channel, payment_id, payment_method)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
		ON CONFLICT (payment_id) WHERE payment_id IS NOT NULL DO NOTHING
		RETURNING `+bookingCols,
		b.ID, b.LocationID, b.PlanID, string(b.PlanType), b.StartDate, b.EndDate, b.StartTime, b.EndTime,
		b.AddOnIDs, b.MeetingRoomHours, b.GuestPasses, b.Notes,
		b.Contact.FirstName, b.Contact.LastName, b.Contact.Email, b.Contact.Phone, b.Contact.Company,
		b.Breakdown.BasePrice, b.Breakdown.AddOnsPrice, b.Breakdown.MeetingRoomHoursPrice,
		b.Breakdown.GuestPassesPrice, b.Breakdown.Subtotal, b.Breakdown.DiscountAmount,
		b.TotalAmount, b.Currency, string(b.Status), string(b.Channel), b.PaymentID, b.PaymentMethod,
	)
	out, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) && b.PaymentID != nil {
		existing, err := r.GetByPaymentID(ctx, *b.PaymentID)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repo) GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings WHERE payment_id = $1`, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Booking, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.LocationID != "" {
		add("location_id = ?", f.LocationID)
	}
	if f.From != nil {
		add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		add("created_at < ?", *f.To)
	}

	q := `SELECT ` + bookingCols + ` FROM bookings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + strconv.Itoa(f.Limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingCols, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
