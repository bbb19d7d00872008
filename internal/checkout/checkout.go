package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/mq"
	"github.com/Spok95/cowork-booking/internal/infra/payments"
	"github.com/Spok95/cowork-booking/internal/wizard"
)

type Result struct {
	payments.Result
	Booking *bookings.Booking `json:"booking,omitempty"`
}

// QuoteRequest prices a selection without a session.
type QuoteRequest struct {
	LocationID       string   `json:"location_id"`
	PlanID           string   `json:"plan_id"`
	AddOnIDs         []string `json:"add_on_ids"`
	MeetingRoomHours int      `json:"meeting_room_hours"`
	GuestPasses      int      `json:"guest_passes"`
}

func (s *Service) Quote(ctx context.Context, q QuoteRequest) (pricing.Breakdown, error) {
	if err := pricing.ValidateExtras(q.MeetingRoomHours, q.GuestPasses); err != nil {
		return pricing.Breakdown{}, err
	}
	env, err := s.env(ctx)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	plan, ok := env.Ref.Plan(q.PlanID)
	if !ok {
		return pricing.Breakdown{}, ErrPlanUnavailable
	}
	return s.d.Calc.Calculate(pricing.Input{
		Pricing:          env.Pricing.PlanPricing(q.LocationID, plan),
		PlanType:         plan.Type,
		AddOns:           env.Ref.AddOnPrices(q.AddOnIDs),
		MeetingRoomHours: q.MeetingRoomHours,
		GuestPasses:      q.GuestPasses,
		Channel:          pricing.ChannelOnline,
	}), nil
}

// Checkout charges the session's draft. Card payments settle at once and
// the booking is created in the same call; redirect methods return a URL
// and are finished by Verify.
func (s *Service) Checkout(ctx context.Context, id string, method payments.Method, data map[string]string) (*Result, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, ok := sess.SelectedPlan()
	if !ok {
		return nil, ErrPlanUnavailable
	}
	if blocked := wizard.FirstBlocked(sess.Draft, plan.Type); blocked != 0 {
		return nil, fmt.Errorf("%w: step %s", ErrIncomplete, blocked)
	}

	order := orderFrom(sess, plan)
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	res, err := s.d.Payments.ProcessPayment(ctx, payments.Request{
		SessionID: id,
		Method:    method,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Order:     raw,
		Data:      data,
	})
	if err != nil {
		return nil, err
	}
	s.d.Metrics.PaymentProcessed(string(method), res.Success)

	out := &Result{Result: res}
	if !res.Success {
		s.d.Log.Warn("payment declined", "session_id", id, "payment_id", res.PaymentID, "reason", res.Error)
		s.publish(mq.KeyPaymentFailed, map[string]any{
			"payment_id": res.PaymentID,
			"session_id": id,
			"method":     method,
			"reason":     res.Error,
		})
		return out, nil
	}
	if res.Settled {
		b, err := s.finalize(ctx, res.PaymentID, method, id, order)
		if err != nil {
			return nil, err
		}
		out.Booking = b
	}
	return out, nil
}

// Verify turns a paid payment into a booking. Calling it again for the same
// payment returns the booking created the first time.
func (s *Service) Verify(ctx context.Context, paymentID string) (*bookings.Booking, error) {
	existing, err := s.d.Bookings.GetByPaymentID(ctx, paymentID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, bookings.ErrNotFound):
		return nil, err
	}

	p, err := s.d.Payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case payments.StatusPaid:
	case payments.StatusPending:
		return nil, ErrPaymentPending
	default:
		return nil, ErrPaymentFailed
	}

	var order bookings.Booking
	if err := json.Unmarshal(p.Order, &order); err != nil {
		return nil, fmt.Errorf("checkout: decode order of payment %s: %w", p.ID, err)
	}

	unlock := s.lock(p.SessionID)
	defer unlock()
	return s.finalize(ctx, p.ID, p.Method, p.SessionID, order)
}

func orderFrom(sess *wizard.Session, plan catalog.Plan) bookings.Booking {
	d := sess.Draft
	return bookings.Booking{
		LocationID:       d.LocationID,
		PlanID:           d.PlanID,
		PlanType:         plan.Type,
		StartDate:        datePtr(d.StartDate),
		EndDate:          datePtr(d.EndDate),
		StartTime:        d.StartTime,
		EndTime:          d.EndTime,
		AddOnIDs:         append([]string{}, d.AddOns.IDs...),
		MeetingRoomHours: d.AddOns.MeetingRoomHours,
		GuestPasses:      d.AddOns.GuestPasses,
		Notes:            d.Notes,
		Contact: bookings.Contact{
			FirstName: d.Contact.FirstName,
			LastName:  d.Contact.LastName,
			Email:     d.Contact.Email,
			Phone:     d.Contact.Phone,
			Company:   d.Contact.Company,
		},
		Breakdown:   sess.Breakdown,
		TotalAmount: d.TotalAmount,
		Currency:    d.Currency,
		Status:      bookings.StatusConfirmed,
		Channel:     pricing.ChannelOnline,
	}
}

func datePtr(d wizard.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (s *Service) finalize(ctx context.Context, paymentID string, method payments.Method, sessionID string, order bookings.Booking) (*bookings.Booking, error) {
	order.PaymentID = &paymentID
	order.PaymentMethod = string(method)

	b, created, err := s.d.Bookings.Record(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("checkout: record booking: %w", err)
	}
	if !created {
		return b, nil
	}
	s.d.Log.Info("booking confirmed",
		"booking_id", b.ID,
		"payment_id", paymentID,
		"session_id", sessionID,
		"total_amount", b.TotalAmount,
	)
	s.d.Metrics.BookingConfirmed(string(b.Channel), b.TotalAmount)

	if err := s.resetSession(ctx, sessionID); err != nil {
		s.d.Log.Warn("failed to reset session after booking", "session_id", sessionID, "err", err)
	}
	s.dispatch(*b)
	return b, nil
}

func (s *Service) resetSession(ctx context.Context, id string) error {
	sess, err := s.load(ctx, id)
	if errors.Is(err, wizard.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sess.Reset()
	_, err = s.save(ctx, sess)
	return err
}

// dispatch runs notifications in the background. Failures are logged only.
func (s *Service) dispatch(b bookings.Booking) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.d.NotifyTimeout)
		defer cancel()

		if err := s.d.Notifier.BookingConfirmed(ctx, b); err != nil {
			s.d.Log.Error("booking notification failed", "booking_id", b.ID, "err", err)
		}
		if err := s.d.Events.Publish(ctx, mq.KeyBookingConfirmed, b); err != nil {
			s.d.Log.Error("booking event publish failed", "booking_id", b.ID, "err", err)
		}
	}()
}

func (s *Service) publish(key string, v any) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.d.NotifyTimeout)
		defer cancel()
		if err := s.d.Events.Publish(ctx, key, v); err != nil {
			s.d.Log.Error("event publish failed", "key", key, "err", err)
		}
	}()
}
