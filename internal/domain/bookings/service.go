package bookings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/cowork-booking/internal/domain/pricing"
)

type Store interface {
	Create(ctx context.Context, b Booking) (*Booking, bool, error)
	Get(ctx context.Context, id string) (*Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error)
	List(ctx context.Context, f Filter) ([]Booking, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store    Store
	currency string
	log      *slog.Logger
}

func NewService(store Store, currency string, log *slog.Logger) *Service {
	return &Service{store: store, currency: currency, log: log}
}

// Record persists a booking produced by the online flow.
func (s *Service) Record(ctx context.Context, b Booking) (*Booking, bool, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Currency == "" {
		b.Currency = s.currency
	}
	if b.Status == "" {
		b.Status = StatusConfirmed
	}
	if b.Channel == "" {
		b.Channel = pricing.ChannelOnline
	}
	return s.store.Create(ctx, b)
}

// ManualInput is an admin-entered booking. Amounts are stored as given; the
// online discount does not apply.
type ManualInput struct {
	LocationID  string
	PlanID      string
	PlanType    pricing.PlanType
	StartDate   *time.Time
	EndDate     *time.Time
	StartTime   string
	EndTime     string
	Notes       string
	Contact     Contact
	TotalAmount int64
	Status      Status
}

func (s *Service) CreateManual(ctx context.Context, in ManualInput) (*Booking, error) {
	if strings.TrimSpace(in.LocationID) == "" || strings.TrimSpace(in.PlanID) == "" ||
		strings.TrimSpace(in.Contact.FirstName) == "" || strings.TrimSpace(in.Contact.Email) == "" {
		return nil, ErrMissingField
	}
	if in.TotalAmount < 0 {
		return nil, ErrInvalidAmount
	}
	if in.Status == "" {
		in.Status = StatusConfirmed
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	b := Booking{
		ID:          uuid.NewString(),
		LocationID:  in.LocationID,
		PlanID:      in.PlanID,
		PlanType:    in.PlanType,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		AddOnIDs:    []string{},
		Notes:       in.Notes,
		Contact:     in.Contact,
		Breakdown:   pricing.Breakdown{BasePrice: in.TotalAmount, Subtotal: in.TotalAmount, Total: in.TotalAmount},
		TotalAmount: in.TotalAmount,
		Currency:    s.currency,
		Status:      in.Status,
		Channel:     pricing.ChannelManual,
	}
	out, _, err := s.store.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	s.log.Info("manual booking created", "booking_id", out.ID, "total_amount", out.TotalAmount)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error) {
	return s.store.GetByPaymentID(ctx, paymentID)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, f)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Booking, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == next {
		return cur, nil
	}
	if !cur.Status.CanMove(next) {
		return nil, ErrInvalidTransition
	}
	out, err := s.store.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking status changed", "booking_id", id, "from", cur.Status, "to", next)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
