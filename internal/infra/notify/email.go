package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/bookings"
)

// Email posts booking confirmations to a transactional email HTTP API.
type Email struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewEmail(endpoint, apiKey, from string) *Email {
	return &Email{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type emailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (e *Email) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	if b.Contact.Email == "" {
		return nil
	}
	body, err := json.Marshal(emailMessage{
		From:    e.from,
		To:      b.Contact.Email,
		Subject: "Your booking is confirmed",
		Text:    fmt.Sprintf("Hi %s,\n\nthanks for booking with us.\n\n%s\n", b.Contact.FirstName, summary(b)),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
