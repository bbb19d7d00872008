package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/logger"
	"github.com/Spok95/cowork-booking/internal/infra/payments"
	"github.com/Spok95/cowork-booking/internal/wizard"
)

type memSessions struct {
	mu    sync.Mutex
	items map[string]wizard.Record
}

func (m *memSessions) Get(_ context.Context, id string) (*wizard.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok {
		return nil, wizard.ErrSessionNotFound
	}
	return &rec, nil
}

func (m *memSessions) Save(_ context.Context, rec wizard.Record) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[rec.ID] = rec
	return time.Now(), nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memSessions) DeleteStale(context.Context, time.Time) (int64, error) { return 0, nil }

type staticRef struct{ ref catalog.Reference }

func (s staticRef) Reference(context.Context) (catalog.Reference, error) { return s.ref, nil }

type staticPricing struct{ snap locpricing.Snapshot }

func (s staticPricing) Snapshot(context.Context) (locpricing.Snapshot, error) { return s.snap, nil }

type fakeGateway struct {
	items map[string]payments.Payment
	seq   int
}

func (f *fakeGateway) ProcessPayment(_ context.Context, req payments.Request) (payments.Result, error) {
	f.seq++
	id := "pay-" + string(rune('0'+f.seq))
	p := payments.Payment{ID: id, SessionID: req.SessionID, Method: req.Method, Amount: req.Amount, Order: req.Order}
	var res payments.Result
	switch {
	case req.Method == payments.MethodCard && req.Data["card_number"] == payments.DeclinedCard:
		p.Status = payments.StatusFailed
		res = payments.Result{PaymentID: id, Error: "card declined"}
	case req.Method == payments.MethodCard:
		p.Status = payments.StatusPaid
		res = payments.Result{Success: true, PaymentID: id, Settled: true}
	default:
		p.Status = payments.StatusPending
		res = payments.Result{Success: true, PaymentID: id, RedirectURL: "http://x/payments/pay?payment=" + id}
	}
	f.items[id] = p
	return res, nil
}

func (f *fakeGateway) Get(_ context.Context, id string) (*payments.Payment, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, payments.ErrNotFound
	}
	return &p, nil
}

type memBookings struct {
	mu    sync.Mutex
	items []bookings.Booking
}

func (m *memBookings) Record(_ context.Context, b bookings.Booking) (*bookings.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if *existing.PaymentID == *b.PaymentID {
			return &existing, false, nil
		}
	}
	b.ID = "booking-" + *b.PaymentID
	m.items = append(m.items, b)
	return &b, true, nil
}

func (m *memBookings) GetByPaymentID(_ context.Context, paymentID string) (*bookings.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.items {
		if *b.PaymentID == paymentID {
			return &b, nil
		}
	}
	return nil, bookings.ErrNotFound
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingNotifier) BookingConfirmed(_ context.Context, b bookings.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, b.ID)
	return r.err
}

type recordingEvents struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingEvents) Publish(_ context.Context, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

type fixture struct {
	svc      *Service
	sessions *memSessions
	gateway  *fakeGateway
	bookings *memBookings
	notifier *recordingNotifier
	events   *recordingEvents
}

func newFixture() *fixture {
	f := &fixture{
		sessions: &memSessions{items: map[string]wizard.Record{}},
		gateway:  &fakeGateway{items: map[string]payments.Payment{}},
		bookings: &memBookings{},
		notifier: &recordingNotifier{},
		events:   &recordingEvents{},
	}
	f.svc = New(Deps{
		Sessions: f.sessions,
		Catalog: staticRef{catalog.Reference{
			Locations: []catalog.Location{{ID: "A"}, {ID: "B"}},
			Plans: []catalog.Plan{
				{ID: "day", Type: pricing.PlanDayPass, Pricing: pricing.PriceTable{Daily: 50000}},
				{ID: "hot", Type: pricing.PlanHotDesk, Pricing: pricing.PriceTable{Monthly: 950000}},
			},
			AddOns: []catalog.AddOn{{ID: "locker", Price: 20000}},
		}},
		Pricing: staticPricing{locpricing.NewSnapshot([]locpricing.Override{{
			LocationID: "B",
			Prices:     locpricing.Pricing{pricing.PlanHotDesk: {Monthly: 1150000}},
		}})},
		Calc:     pricing.NewCalculator(pricing.DefaultRates()),
		Payments: f.gateway,
		Bookings: f.bookings,
		Notifier: f.notifier,
		Events:   f.events,
		Currency: "INR",
		Log:      logger.Discard(),
	})
	return f
}

func strp(s string) *string { return &s }

func (f *fixture) completeSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	v, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	d := wizard.NewDate(2025, time.February, 1)
	if _, err := f.svc.Update(ctx, v.ID, wizard.Patch{
		LocationID: strp("B"),
		PlanID:     strp("hot"),
		StartDate:  &d,
		StartTime:  strp("09:00"),
		EndTime:    strp("18:00"),
		AddOns:     &wizard.AddOnSelection{IDs: []string{"locker"}},
		Contact:    &wizard.ContactInfo{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "99"},
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return v.ID
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	v, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if v.Step != wizard.StepLocationPlan || v.CanProceed || len(v.Plans) != 2 {
		t.Fatalf("fresh view = %+v", v)
	}

	v, err = f.svc.Update(ctx, v.ID, wizard.Patch{LocationID: strp("B"), PlanID: strp("hot")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// 1150000 - 5% = 1092500
	if v.Draft.TotalAmount != 1092500 || !v.CanProceed {
		t.Fatalf("after update: total=%d can_proceed=%v", v.Draft.TotalAmount, v.CanProceed)
	}

	v, _ = f.svc.Next(ctx, v.ID)
	v, _ = f.svc.Next(ctx, v.ID)
	if v.Step != wizard.StepAddOns {
		t.Fatalf("step = %v", v.Step)
	}
	v, _ = f.svc.Prev(ctx, v.ID)
	if v.Step != wizard.StepDateTime || v.StepName != "date_time" {
		t.Fatalf("step = %v", v.Step)
	}

	got, err := f.svc.Get(ctx, v.ID)
	if err != nil || got.Draft.PlanID != "hot" || got.Step != wizard.StepDateTime {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	v, _ = f.svc.Reset(ctx, v.ID)
	if v.Step != wizard.StepLocationPlan || v.Draft.PlanID != "" {
		t.Fatalf("after reset = %+v", v)
	}

	if _, err := f.svc.Get(ctx, "missing"); !errors.Is(err, wizard.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestQuote(t *testing.T) {
	f := newFixture()
	b, err := f.svc.Quote(context.Background(), QuoteRequest{
		LocationID:       "B",
		PlanID:           "hot",
		AddOnIDs:         []string{"locker", "locker"},
		MeetingRoomHours: 2,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// 1150000 + 20000 + 100000 = 1270000; 5% = 63500
	if b.Subtotal != 1270000 || b.Total != 1206500 {
		t.Fatalf("breakdown = %+v", b)
	}
	if _, err := f.svc.Quote(context.Background(), QuoteRequest{PlanID: "nope"}); !errors.Is(err, ErrPlanUnavailable) {
		t.Fatalf("expected ErrPlanUnavailable, got %v", err)
	}
}

func TestExtraCountsOutOfRangeAreRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, q := range []QuoteRequest{
		{LocationID: "A", PlanID: "hot", MeetingRoomHours: 958861756951422493},
		{LocationID: "A", PlanID: "hot", GuestPasses: pricing.MaxExtraCount + 1},
	} {
		if _, err := f.svc.Quote(ctx, q); !errors.Is(err, pricing.ErrExtraCount) {
			t.Fatalf("Quote(%+v): expected ErrExtraCount, got %v", q, err)
		}
	}
	b, err := f.svc.Quote(ctx, QuoteRequest{LocationID: "A", PlanID: "hot", MeetingRoomHours: pricing.MaxExtraCount})
	if err != nil || b.MeetingRoomHoursPrice != int64(pricing.MaxExtraCount)*50000 {
		t.Fatalf("Quote at the limit = %+v, %v", b, err)
	}

	id := f.completeSession(t)
	_, err = f.svc.Update(ctx, id, wizard.Patch{AddOns: &wizard.AddOnSelection{MeetingRoomHours: 200000000000000}})
	if !errors.Is(err, pricing.ErrExtraCount) {
		t.Fatalf("Update: expected ErrExtraCount, got %v", err)
	}
	if got := f.sessions.items[id].Draft.AddOns.MeetingRoomHours; got != 0 {
		t.Fatalf("rejected patch must not be stored, hours = %d", got)
	}
}

func TestCheckoutRequiresCompleteDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	v, _ := f.svc.Start(ctx)
	if _, err := f.svc.Update(ctx, v.ID, wizard.Patch{LocationID: strp("A"), PlanID: strp("hot")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, err := f.svc.Checkout(ctx, v.ID, payments.MethodCard, map[string]string{"card_number": "4242"})
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if len(f.gateway.items) != 0 {
		t.Fatalf("no payment should be attempted")
	}
}

func TestCheckoutCardCreatesBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.completeSession(t)

	res, err := f.svc.Checkout(ctx, id, payments.MethodCard, map[string]string{"card_number": "4242"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	f.svc.Wait()

	if !res.Success || res.Booking == nil {
		t.Fatalf("result = %+v", res)
	}
	b := res.Booking
	// (1150000 + 20000) - 58500
	if b.TotalAmount != 1111500 || b.Breakdown.DiscountAmount != 58500 || b.Channel != pricing.ChannelOnline {
		t.Fatalf("booking = %+v", b)
	}
	if b.StartDate == nil || b.StartDate.Format("2006-01-02") != "2025-02-01" || b.EndDate != nil {
		t.Fatalf("dates = %v %v", b.StartDate, b.EndDate)
	}
	if *b.PaymentID != res.PaymentID || b.PaymentMethod != "card" || b.Contact.FullName() != "Asha Rao" {
		t.Fatalf("booking payment/contact = %+v", b)
	}

	rec := f.sessions.items[id]
	if rec.Step != wizard.StepLocationPlan || rec.Draft.PlanID != "" {
		t.Fatalf("session not reset: %+v", rec)
	}
	if len(f.notifier.calls) != 1 || len(f.events.keys) != 1 || f.events.keys[0] != "booking.confirmed" {
		t.Fatalf("notifications = %v events = %v", f.notifier.calls, f.events.keys)
	}
}

func TestCheckoutDeclinedCard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.completeSession(t)

	res, err := f.svc.Checkout(ctx, id, payments.MethodCard, map[string]string{"card_number": payments.DeclinedCard})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	f.svc.Wait()
	if res.Success || res.Error == "" || res.Booking != nil {
		t.Fatalf("result = %+v", res)
	}
	if len(f.bookings.items) != 0 {
		t.Fatalf("no booking expected")
	}
	if f.sessions.items[id].Draft.PlanID != "hot" {
		t.Fatalf("session must survive a declined payment")
	}
	if len(f.events.keys) != 1 || f.events.keys[0] != "payment.failed" {
		t.Fatalf("events = %v", f.events.keys)
	}
}

func TestRedirectPaymentVerify(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.completeSession(t)

	res, err := f.svc.Checkout(ctx, id, payments.MethodUPI, nil)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !res.Success || res.RedirectURL == "" || res.Booking != nil {
		t.Fatalf("result = %+v", res)
	}

	if _, err := f.svc.Verify(ctx, res.PaymentID); !errors.Is(err, ErrPaymentPending) {
		t.Fatalf("expected ErrPaymentPending, got %v", err)
	}

	p := f.gateway.items[res.PaymentID]
	p.Status = payments.StatusPaid
	f.gateway.items[res.PaymentID] = p

	b, err := f.svc.Verify(ctx, res.PaymentID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	// The booking now answers for the payment on its own.
	delete(f.gateway.items, res.PaymentID)
	again, err := f.svc.Verify(ctx, res.PaymentID)
	if err != nil {
		t.Fatalf("second Verify: %v", err)
	}
	f.svc.Wait()

	if b.ID != again.ID || len(f.bookings.items) != 1 {
		t.Fatalf("verify must be idempotent: %s vs %s", b.ID, again.ID)
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notified %d times", len(f.notifier.calls))
	}
	if _, err := f.svc.Verify(ctx, "unknown"); !errors.Is(err, payments.ErrNotFound) {
		t.Fatalf("expected payments.ErrNotFound, got %v", err)
	}
}

func TestNotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp down")
	id := f.completeSession(t)

	res, err := f.svc.Checkout(context.Background(), id, payments.MethodCard, map[string]string{"card_number": "4242"})
	f.svc.Wait()
	if err != nil || res.Booking == nil {
		t.Fatalf("notification failure must not fail checkout: %v", err)
	}
}
