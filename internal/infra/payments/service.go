package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// DeclinedCard is the sandbox card number that always fails.
const DeclinedCard = "4000000000000002"

type Store interface {
	Create(ctx context.Context, p Payment) (*Payment, error)
	Get(ctx context.Context, id string) (*Payment, error)
	SetStatus(ctx context.Context, id string, status Status) (*Payment, error)
}

// Service is a sandbox gateway. Cards settle at once; other methods hand
// back a URL on our own server that completes the payment.
type Service struct {
	baseURL string
	store   Store
	log     *slog.Logger
}

func NewService(baseURL string, store Store, log *slog.Logger) *Service {
	return &Service{baseURL: strings.TrimRight(baseURL, "/"), store: store, log: log}
}

func (s *Service) PaymentURL(paymentID string) string {
	return fmt.Sprintf("%s/payments/pay?payment=%s", s.baseURL, paymentID)
}

// ProcessPayment records the attempt. A declined payment is reported through
// Result.Error, not the returned error.
func (s *Service) ProcessPayment(ctx context.Context, req Request) (Result, error) {
	if !req.Method.Valid() {
		return Result{}, ErrUnsupportedMethod
	}
	if req.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}

	p := Payment{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		Method:    req.Method,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    StatusPending,
		Order:     req.Order,
	}
	if !req.Method.Redirect() {
		if reason := cardDecline(req.Data); reason != "" {
			p.Status = StatusFailed
			p.FailureReason = reason
		} else {
			p.Status = StatusPaid
		}
	}

	out, err := s.store.Create(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("payments: create: %w", err)
	}
	s.log.Info("payment processed",
		"payment_id", out.ID,
		"session_id", out.SessionID,
		"method", out.Method,
		"amount", out.Amount,
		"status", out.Status,
	)

	switch out.Status {
	case StatusFailed:
		return Result{PaymentID: out.ID, Error: out.FailureReason}, nil
	case StatusPaid:
		return Result{Success: true, PaymentID: out.ID, Settled: true}, nil
	default:
		return Result{Success: true, PaymentID: out.ID, RedirectURL: s.PaymentURL(out.ID)}, nil
	}
}

func cardDecline(data map[string]string) string {
	number := strings.ReplaceAll(strings.TrimSpace(data["card_number"]), " ", "")
	switch {
	case number == "":
		return "card number is required"
	case number == DeclinedCard:
		return "card declined"
	}
	return ""
}

// Complete marks a redirect payment paid. Completing an already paid
// payment is a no-op.
func (s *Service) Complete(ctx context.Context, id string) (*Payment, error) {
	p, err := s.store.SetStatus(ctx, id, StatusPaid)
	if errors.Is(err, ErrAlreadySettled) {
		cur, getErr := s.store.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if cur.Status == StatusPaid {
			return cur, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("payment completed", "payment_id", p.ID, "method", p.Method)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.store.Get(ctx, id)
}
