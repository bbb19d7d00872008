package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Spok95/cowork-booking/internal/infra/logger"
)

type memStore struct {
	items map[string]Payment
}

func newMemStore() *memStore { return &memStore{items: map[string]Payment{}} }

func (m *memStore) Create(_ context.Context, p Payment) (*Payment, error) {
	m.items[p.ID] = p
	return &p, nil
}

func (m *memStore) Get(_ context.Context, id string) (*Payment, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memStore) SetStatus(_ context.Context, id string, s Status) (*Payment, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status != StatusPending {
		return nil, ErrAlreadySettled
	}
	p.Status = s
	m.items[id] = p
	return &p, nil
}

func TestProcessPayment(t *testing.T) {
	tests := []struct {
		name        string
		req         Request
		wantErr     error
		wantSuccess bool
		wantStatus  Status
		wantURL     bool
	}{
		{"card settles", Request{Method: MethodCard, Amount: 100, Data: map[string]string{"card_number": "4242 4242 4242 4242"}}, nil, true, StatusPaid, false},
		{"card declined", Request{Method: MethodCard, Amount: 100, Data: map[string]string{"card_number": DeclinedCard}}, nil, false, StatusFailed, false},
		{"card without number", Request{Method: MethodCard, Amount: 100}, nil, false, StatusFailed, false},
		{"upi redirects", Request{Method: MethodUPI, Amount: 100}, nil, true, StatusPending, true},
		{"wallet redirects", Request{Method: MethodWallet, Amount: 100}, nil, true, StatusPending, true},
		{"unknown method", Request{Method: "cash", Amount: 100}, ErrUnsupportedMethod, false, "", false},
		{"zero amount", Request{Method: MethodCard, Amount: 0}, ErrInvalidAmount, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := NewService("http://localhost:8080/", store, logger.Discard())
			res, err := svc.ProcessPayment(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if res.Success != tt.wantSuccess {
				t.Fatalf("success = %v, result %+v", res.Success, res)
			}
			if got := store.items[res.PaymentID].Status; got != tt.wantStatus {
				t.Fatalf("stored status = %q, want %q", got, tt.wantStatus)
			}
			if tt.wantURL != (res.RedirectURL != "") {
				t.Fatalf("redirect url = %q", res.RedirectURL)
			}
			if tt.wantURL && res.RedirectURL != "http://localhost:8080/payments/pay?payment="+res.PaymentID {
				t.Fatalf("redirect url = %q", res.RedirectURL)
			}
			if !tt.wantSuccess && res.Error == "" {
				t.Fatalf("failed payment must carry an error")
			}
		})
	}
}

func TestPayHandlerCompletesRedirect(t *testing.T) {
	store := newMemStore()
	svc := NewService("http://localhost", store, logger.Discard())
	res, err := svc.ProcessPayment(context.Background(), Request{Method: MethodNetbanking, Amount: 500})
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	h := NewHandler(logger.Discard(), svc, "http://localhost/booking/done")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/pay?payment="+res.PaymentID, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Payment received") {
		t.Fatalf("status %d body %q", rec.Code, rec.Body.String())
	}
	if store.items[res.PaymentID].Status != StatusPaid {
		t.Fatalf("payment not marked paid")
	}

	// Second visit is harmless.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/pay?payment="+res.PaymentID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat visit status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/pay?payment=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown payment status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/pay", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing param status %d", rec.Code)
	}
}

func TestCompleteFailedPayment(t *testing.T) {
	store := newMemStore()
	svc := NewService("http://localhost", store, logger.Discard())
	res, _ := svc.ProcessPayment(context.Background(), Request{Method: MethodCard, Amount: 100, Data: map[string]string{"card_number": DeclinedCard}})
	if _, err := svc.Complete(context.Background(), res.PaymentID); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
}
