package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Spok95/cowork-booking/internal/checkout"
	"github.com/Spok95/cowork-booking/internal/domain/admins"
	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/memberships"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/chat"
	"github.com/Spok95/cowork-booking/internal/infra/payments"
	"github.com/Spok95/cowork-booking/internal/infra/receipt"
	"github.com/Spok95/cowork-booking/internal/sheets"
	"github.com/Spok95/cowork-booking/internal/wizard"
)

const (
	codeNotFound             = "not_found"
	codeMethodNotAllowed     = "method_not_allowed"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidDate          = "invalid_date"
	codeInvalidQuery         = "invalid_query"
	codeInvalidField         = "invalid_field"
	codeSessionNotFound      = "session_not_found"
	codeNameRequired         = "name_required"
	codeInvalidPrice         = "invalid_price"
	codeInvalidPlanType      = "invalid_plan_type"
	codeSlugTaken            = "slug_taken"
	codeInUse                = "in_use"
	codeInvalidStatus        = "invalid_status"
	codeInvalidTransition    = "invalid_transition"
	codeInvalidAmount        = "invalid_amount"
	codeInvalidPeriod        = "invalid_period"
	codeBookingIncomplete    = "booking_incomplete"
	codePlanUnavailable      = "plan_unavailable"
	codePaymentPending       = "payment_pending"
	codePaymentFailed        = "payment_failed"
	codePaymentSettled       = "payment_already_settled"
	codeUnsupportedMethod    = "unsupported_payment_method"
	codeInvalidCredentials   = "invalid_credentials"
	codeUnauthorized         = "unauthorized"
	codeRateLimited          = "rate_limited"
	codeAssistantBusy        = "assistant_busy"
	codeAssistantOff         = "assistant_unavailable"
	codeNoMessages           = "no_messages"
	codeNotConfirmed         = "booking_not_confirmed"
	codeInvalidSpreadsheet   = "invalid_spreadsheet"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{wizard.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound},
	{catalog.ErrNotFound, http.StatusNotFound, codeNotFound},
	{bookings.ErrNotFound, http.StatusNotFound, codeNotFound},
	{memberships.ErrNotFound, http.StatusNotFound, codeNotFound},
	{locpricing.ErrNotFound, http.StatusNotFound, codeNotFound},
	{payments.ErrNotFound, http.StatusNotFound, codeNotFound},

	{catalog.ErrNameRequired, http.StatusBadRequest, codeNameRequired},
	{catalog.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{catalog.ErrInvalidPlan, http.StatusBadRequest, codeInvalidPlanType},
	{locpricing.ErrUnknownPlanType, http.StatusBadRequest, codeInvalidPlanType},
	{catalog.ErrSlugTaken, http.StatusConflict, codeSlugTaken},
	{catalog.ErrInUse, http.StatusConflict, codeInUse},

	{bookings.ErrInvalidStatus, http.StatusBadRequest, codeInvalidStatus},
	{memberships.ErrInvalidStatus, http.StatusBadRequest, codeInvalidStatus},
	{bookings.ErrInvalidTransition, http.StatusConflict, codeInvalidTransition},
	{bookings.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount},
	{payments.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount},
	{bookings.ErrMissingField, http.StatusBadRequest, codeMissingRequiredField},
	{memberships.ErrMissingField, http.StatusBadRequest, codeMissingRequiredField},
	{locpricing.ErrLocationRequired, http.StatusBadRequest, codeMissingRequiredField},
	{memberships.ErrInvalidPeriod, http.StatusBadRequest, codeInvalidPeriod},

	{pricing.ErrExtraCount, http.StatusBadRequest, codeInvalidField},

	{checkout.ErrIncomplete, http.StatusUnprocessableEntity, codeBookingIncomplete},
	{checkout.ErrPlanUnavailable, http.StatusUnprocessableEntity, codePlanUnavailable},
	{checkout.ErrPaymentPending, http.StatusConflict, codePaymentPending},
	{checkout.ErrPaymentFailed, http.StatusPaymentRequired, codePaymentFailed},
	{payments.ErrUnsupportedMethod, http.StatusBadRequest, codeUnsupportedMethod},
	{payments.ErrAlreadySettled, http.StatusConflict, codePaymentSettled},

	{admins.ErrInvalidCredentials, http.StatusUnauthorized, codeInvalidCredentials},

	{chat.ErrNoMessages, http.StatusBadRequest, codeNoMessages},
	{chat.ErrRateLimited, http.StatusServiceUnavailable, codeAssistantBusy},
	{chat.ErrDisabled, http.StatusServiceUnavailable, codeAssistantOff},
	{chat.ErrEmptyReply, http.StatusBadGateway, codeAssistantOff},

	{receipt.ErrNotConfirmed, http.StatusConflict, codeNotConfirmed},
	{sheets.ErrBadSheet, http.StatusBadRequest, codeInvalidSpreadsheet},
}

// writeServiceError maps a domain error to a response. Unknown errors are
// logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	var rowErr *sheets.RowError
	if errors.As(err, &rowErr) {
		writeError(w, http.StatusBadRequest, codeInvalidSpreadsheet, rowErr.Error())
		return
	}
	log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
