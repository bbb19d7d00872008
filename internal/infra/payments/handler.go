package payments

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
)

type Handler struct {
	log       *slog.Logger
	svc       *Service
	returnURL string
}

func NewHandler(log *slog.Logger, svc *Service, returnURL string) *Handler {
	return &Handler{log: log, svc: svc, returnURL: returnURL}
}

// ServeHTTP completes a sandbox redirect payment:
// /payments/pay?payment=ID marks the payment paid and renders a short page.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("payment")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("missing payment parameter"))
		return
	}

	p, err := h.svc.Complete(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("unknown payment"))
		return
	case errors.Is(err, ErrAlreadySettled):
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("payment already settled"))
		return
	case err != nil:
		h.log.Error("failed to complete payment", "payment_id", id, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("failed to update payment status"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w,
		`<html><body><h1>Payment received</h1><p>Payment %s is paid.</p><p><a href="%s?payment=%s">Back to your booking</a></p></body></html>`,
		html.EscapeString(p.ID), html.EscapeString(h.returnURL), html.EscapeString(p.ID),
	)
}
