package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Spok95/cowork-booking/internal/checkout"
	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/infra/chat"
	"github.com/Spok95/cowork-booking/internal/infra/payments"
	"github.com/Spok95/cowork-booking/internal/infra/receipt"
	"github.com/Spok95/cowork-booking/internal/wizard"
)

type CatalogService interface {
	Reference(ctx context.Context) (catalog.Reference, error)

	ListLocations(ctx context.Context) ([]catalog.Location, error)
	CreateLocation(ctx context.Context, l catalog.Location) (*catalog.Location, error)
	UpdateLocation(ctx context.Context, l catalog.Location) (*catalog.Location, error)
	DeleteLocation(ctx context.Context, id string) error

	ListPlans(ctx context.Context) ([]catalog.Plan, error)
	CreatePlan(ctx context.Context, p catalog.Plan) (*catalog.Plan, error)
	UpdatePlan(ctx context.Context, p catalog.Plan) (*catalog.Plan, error)
	DeletePlan(ctx context.Context, id string) error

	ListAddOns(ctx context.Context) ([]catalog.AddOn, error)
	CreateAddOn(ctx context.Context, a catalog.AddOn) (*catalog.AddOn, error)
	UpdateAddOn(ctx context.Context, a catalog.AddOn) (*catalog.AddOn, error)
	DeleteAddOn(ctx context.Context, id string) error
}

type PricingService interface {
	GetLocationPricing(ctx context.Context, locationID string) (locpricing.Pricing, error)
	UpdateLocationPricing(ctx context.Context, locationID, name string, prices locpricing.Pricing) (*locpricing.Override, error)
	ListOverrides(ctx context.Context) ([]locpricing.Override, error)
	DeleteLocationPricing(ctx context.Context, locationID string) error
	Snapshot(ctx context.Context) (locpricing.Snapshot, error)
	Import(ctx context.Context, rows []locpricing.ImportRow) (locpricing.ImportResult, error)
}

type WizardService interface {
	Start(ctx context.Context) (checkout.View, error)
	Get(ctx context.Context, id string) (checkout.View, error)
	Update(ctx context.Context, id string, p wizard.Patch) (checkout.View, error)
	Next(ctx context.Context, id string) (checkout.View, error)
	Prev(ctx context.Context, id string) (checkout.View, error)
	Reset(ctx context.Context, id string) (checkout.View, error)
	Quote(ctx context.Context, q checkout.QuoteRequest) (pricing.Breakdown, error)
	Checkout(ctx context.Context, id string, method payments.Method, data map[string]string) (*checkout.Result, error)
	Verify(ctx context.Context, paymentID string) (*bookings.Booking, error)
}

type ChatService interface {
	Ask(ctx context.Context, history []chat.Message) (string, error)
}

func HandleLocations(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := svc.Reference(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ref.Locations)
	}
}

// HandlePlans lists active plans; with ?location_id= the prices are the
// effective ones for that location.
func HandlePlans(log *slog.Logger, svc CatalogService, prices PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := svc.Reference(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		locationID := strings.TrimSpace(r.URL.Query().Get("location_id"))
		if locationID == "" {
			writeJSON(w, http.StatusOK, ref.Plans)
			return
		}
		snap, err := prices.Snapshot(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap.PlansFor(locationID, ref.Plans))
	}
}

func HandleAddOns(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := svc.Reference(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ref.AddOns)
	}
}

type locationPricingResponse struct {
	LocationID string             `json:"location_id"`
	Prices     locpricing.Pricing `json:"prices"`
}

func HandleLocationPricing(log *slog.Logger, svc CatalogService, prices PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		ref, err := svc.Reference(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		if _, ok := ref.Location(id); !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "location not found")
			return
		}
		p, err := prices.GetLocationPricing(r.Context(), id)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, locationPricingResponse{LocationID: id, Prices: p})
	}
}

func HandleQuote(log *slog.Logger, svc WizardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkout.QuoteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.PlanID) == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "plan_id is required")
			return
		}
		if err := pricing.ValidateExtras(req.MeetingRoomHours, req.GuestPasses); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidField, err.Error())
			return
		}
		b, err := svc.Quote(r.Context(), req)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func HandleWizardStart(log *slog.Logger, svc WizardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Start(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func HandleWizardGet(log *slog.Logger, svc WizardService) http.HandlerFunc {
	return HandleWizardMove(log, svc.Get)
}

// HandleWizardMove serves any session operation that takes only the id.
func HandleWizardMove(log *slog.Logger, move func(context.Context, string) (checkout.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := move(r.Context(), pathID(r))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func HandleWizardUpdate(log *slog.Logger, svc WizardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p wizard.Patch
		if !decodeJSON(w, r, &p) {
			return
		}
		if err := p.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidField, err.Error())
			return
		}
		v, err := svc.Update(r.Context(), pathID(r), p)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type checkoutRequest struct {
	Method payments.Method   `json:"method"`
	Data   map[string]string `json:"data"`
}

// HandleCheckout answers 200 for a settled card payment, 202 when the
// client must follow redirect_url, and 402 when the charge was refused.
func HandleCheckout(log *slog.Logger, svc WizardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Method == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "method is required")
			return
		}
		res, err := svc.Checkout(r.Context(), pathID(r), req.Method, req.Data)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		status := http.StatusOK
		switch {
		case !res.Success:
			status = http.StatusPaymentRequired
		case res.RedirectURL != "":
			status = http.StatusAccepted
		}
		writeJSON(w, status, res)
	}
}

func HandleVerify(log *slog.Logger, svc WizardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Verify(r.Context(), pathID(r))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

type BookingReader interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
}

func HandleReceipt(log *slog.Logger, svc BookingReader, cat CatalogService, businessName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Get(r.Context(), pathID(r))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		ref, err := cat.Reference(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}

		data := receipt.Data{Booking: *b, BusinessName: businessName}
		if l, ok := ref.Location(b.LocationID); ok {
			data.LocationName = l.Name
		}
		if p, ok := ref.Plan(b.PlanID); ok {
			data.PlanName = p.Name
		}
		for _, id := range b.AddOnIDs {
			for _, a := range ref.AddOns {
				if a.ID == id {
					data.AddOnNames = append(data.AddOnNames, a.Name)
				}
			}
		}

		pdf, err := receipt.Render(data)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="receipt-`+b.ID+`.pdf"`)
		_, _ = w.Write(pdf)
	}
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func HandleChat(log *slog.Logger, svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		reply, err := svc.Ask(r.Context(), req.Messages)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}
