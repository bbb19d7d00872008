package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/notify"
	"github.com/Spok95/cowork-booking/internal/infra/payments"
	"github.com/Spok95/cowork-booking/internal/wizard"
)

var (
	ErrIncomplete      = errors.New("checkout: booking details incomplete")
	ErrPlanUnavailable = errors.New("checkout: selected plan is not available")
	ErrPaymentPending  = errors.New("checkout: payment not completed yet")
	ErrPaymentFailed   = errors.New("checkout: payment failed")
)

type SessionStore interface {
	Get(ctx context.Context, id string) (*wizard.Record, error)
	Save(ctx context.Context, rec wizard.Record) (time.Time, error)
	Delete(ctx context.Context, id string) error
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type ReferenceSource interface {
	Reference(ctx context.Context) (catalog.Reference, error)
}

type PricingSource interface {
	Snapshot(ctx context.Context) (locpricing.Snapshot, error)
}

type Gateway interface {
	ProcessPayment(ctx context.Context, req payments.Request) (payments.Result, error)
	Get(ctx context.Context, id string) (*payments.Payment, error)
}

type BookingRecorder interface {
	Record(ctx context.Context, b bookings.Booking) (*bookings.Booking, bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*bookings.Booking, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Metrics receives checkout outcomes.
type Metrics interface {
	PaymentProcessed(method string, ok bool)
	BookingConfirmed(channel string, amount int64)
}

type nopMetrics struct{}

func (nopMetrics) PaymentProcessed(string, bool)  {}
func (nopMetrics) BookingConfirmed(string, int64) {}

type nopEvents struct{}

func (nopEvents) Publish(context.Context, string, any) error { return nil }

type Deps struct {
	Sessions SessionStore
	Catalog  ReferenceSource
	Pricing  PricingSource
	Calc     pricing.Calculator
	Payments Gateway
	Bookings BookingRecorder
	Notifier notify.Notifier
	Events   EventPublisher
	Observer wizard.Observer
	Metrics  Metrics
	Currency string
	Log      *slog.Logger

	// NotifyTimeout bounds each background notification run.
	NotifyTimeout time.Duration
}

// Service drives wizard sessions from HTTP requests through payment to a
// confirmed booking.
type Service struct {
	d Deps

	mu    sync.Mutex
	locks map[string]*sessionLock
	wg    sync.WaitGroup
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func New(d Deps) *Service {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Events == nil {
		d.Events = nopEvents{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = 30 * time.Second
	}
	return &Service{d: d, locks: map[string]*sessionLock{}}
}

// lock serializes work on one session id within this process.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Service) env(ctx context.Context) (*wizard.Env, error) {
	ref, err := s.d.Catalog.Reference(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.d.Pricing.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &wizard.Env{
		Ref:      ref,
		Pricing:  snap,
		Calc:     s.d.Calc,
		Currency: s.d.Currency,
		Log:      s.d.Log,
		Observer: s.d.Observer,
	}, nil
}

func (s *Service) load(ctx context.Context, id string) (*wizard.Session, error) {
	rec, err := s.d.Sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	env, err := s.env(ctx)
	if err != nil {
		return nil, err
	}
	return wizard.Restore(*rec, env), nil
}

func (s *Service) save(ctx context.Context, sess *wizard.Session) (View, error) {
	at, err := s.d.Sessions.Save(ctx, sess.Record())
	if err != nil {
		return View{}, err
	}
	sess.UpdatedAt = at
	return viewOf(sess), nil
}

// mutate loads a session, applies fn and stores the result.
func (s *Service) mutate(ctx context.Context, id string, fn func(*wizard.Session)) (View, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	fn(sess)
	return s.save(ctx, sess)
}

func (s *Service) Start(ctx context.Context) (View, error) {
	env, err := s.env(ctx)
	if err != nil {
		return View{}, err
	}
	sess := wizard.New(uuid.NewString(), env)
	view, err := s.save(ctx, sess)
	if err != nil {
		return View{}, err
	}
	s.d.Log.Debug("wizard session started", "session_id", sess.ID)
	return view, nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return viewOf(sess), nil
}

func (s *Service) Update(ctx context.Context, id string, p wizard.Patch) (View, error) {
	if err := p.Validate(); err != nil {
		return View{}, err
	}
	return s.mutate(ctx, id, func(sess *wizard.Session) { sess.Update(p) })
}

func (s *Service) Next(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(sess *wizard.Session) { sess.NextStep() })
}

func (s *Service) Prev(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(sess *wizard.Session) { sess.PrevStep() })
}

func (s *Service) Reset(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(sess *wizard.Session) { sess.Reset() })
}

// PurgeStale removes sessions idle for longer than maxAge.
func (s *Service) PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.d.Sessions.DeleteStale(ctx, time.Now().Add(-maxAge))
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() { s.wg.Wait() }
