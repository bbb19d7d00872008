package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/admins"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/auth"
	"github.com/Spok95/cowork-booking/internal/infra/logger"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/wizard", nil)
	rec := httptest.NewRecorder()
	RequestLogger(handler, logger.NewWithWriter(buf, "prod")).ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{`"method":"POST"`, `"path":"/api/wizard"`, `"status":201`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log, got %q", want, out)
		}
	}
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	RequestLogger(handler, logger.NewWithWriter(buf, "prod")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected status 200 in log, got %q", buf.String())
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, 2)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if call("10.0.0.1") != http.StatusNoContent || call("10.0.0.1") != http.StatusNoContent {
		t.Fatalf("burst requests must pass")
	}
	if got := call("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", got)
	}
	if got := call("10.0.0.2"); got != http.StatusNoContent {
		t.Fatalf("other client must have its own bucket, got %d", got)
	}

	now = now.Add(11 * time.Minute)
	rl.Sweep()
	if len(rl.visitors) != 0 {
		t.Fatalf("idle visitors not swept: %d left", len(rl.visitors))
	}
}

func TestNilRateLimiterPassesThrough(t *testing.T) {
	t.Parallel()

	var rl *RateLimiter
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remote string
		fwd    string
		want   string
	}{
		{"remote addr", "192.0.2.1:1234", "", "192.0.2.1"},
		{"forwarded first hop", "10.0.0.1:1", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"no port", "192.0.2.7", "", "192.0.2.7"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.fwd != "" {
			req.Header.Set("X-Forwarded-For", tt.fwd)
		}
		if got := clientIP(req); got != tt.want {
			t.Errorf("%s: clientIP() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tokens := auth.NewTokens("test-secret", time.Hour)
	adminToken, _, err := tokens.Issue("a1", "ops@example.com", admins.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	otherToken, _, _ := tokens.Issue("u1", "guest@example.com", "guest")
	foreign, _, _ := auth.NewTokens("other-secret", time.Hour).Issue("a1", "ops@example.com", admins.RoleAdmin)

	var seen string
	h := RequireAdmin(tokens, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = adminFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + otherToken, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
	if seen != "ops@example.com" {
		t.Fatalf("claims not in context, got %q", seen)
	}
}

func TestWriteServiceErrorHidesUnknownErrors(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)
	writeServiceError(rec, logger.NewWithWriter(buf, "prod"), req, errors.New("pg: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("error not logged: %q", buf.String())
	}
}

func TestWriteServiceErrorMapsExtraCount(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/quote", nil)
	writeServiceError(rec, logger.Discard(), req, pricing.ValidateExtras(pricing.MaxExtraCount+1, 0))

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), codeInvalidField) {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}
