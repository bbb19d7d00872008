package payments

import (
	"encoding/json"
	"errors"
	"time"
)

type Method string

const (
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodNetbanking Method = "netbanking"
	MethodWallet     Method = "wallet"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodNetbanking, MethodWallet:
		return true
	}
	return false
}

// Redirect reports whether the method settles on a separate page.
func (m Method) Redirect() bool { return m != MethodCard }

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

var (
	ErrNotFound          = errors.New("payments: not found")
	ErrUnsupportedMethod = errors.New("payments: unsupported method")
	ErrInvalidAmount     = errors.New("payments: invalid amount")
	ErrAlreadySettled    = errors.New("payments: already settled")
)

// Payment is one attempt to pay for a wizard session. Order holds the
// booking snapshot taken at checkout.
type Payment struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Method        Method          `json:"method"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Status        Status          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Order         json.RawMessage `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Request struct {
	SessionID string
	Method    Method
	Amount    int64
	Currency  string
	Order     json.RawMessage
	Data      map[string]string
}

// Result mirrors what the checkout flow reacts to.
type Result struct {
	Success     bool   `json:"success"`
	PaymentID   string `json:"payment_id,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Error       string `json:"error,omitempty"`
	Settled     bool   `json:"-"`
}
