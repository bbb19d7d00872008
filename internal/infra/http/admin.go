package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/cowork-booking/internal/domain/admins"
	"github.com/Spok95/cowork-booking/internal/domain/bookings"
	"github.com/Spok95/cowork-booking/internal/domain/catalog"
	"github.com/Spok95/cowork-booking/internal/domain/locpricing"
	"github.com/Spok95/cowork-booking/internal/domain/memberships"
	"github.com/Spok95/cowork-booking/internal/domain/pricing"
	"github.com/Spok95/cowork-booking/internal/sheets"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 10 << 20
	dayLayout       = "2006-01-02"
)

type AdminAuth interface {
	Login(ctx context.Context, email, password string) (*admins.Session, error)
}

type BookingService interface {
	Get(ctx context.Context, id string) (*bookings.Booking, error)
	List(ctx context.Context, f bookings.Filter) ([]bookings.Booking, error)
	CreateManual(ctx context.Context, in bookings.ManualInput) (*bookings.Booking, error)
	UpdateStatus(ctx context.Context, id string, next bookings.Status) (*bookings.Booking, error)
	Delete(ctx context.Context, id string) error
}

type MembershipService interface {
	List(ctx context.Context, status memberships.Status) ([]memberships.Membership, error)
	Get(ctx context.Context, id string) (*memberships.Membership, error)
	Create(ctx context.Context, m memberships.Membership) (*memberships.Membership, error)
	Update(ctx context.Context, m memberships.Membership) (*memberships.Membership, error)
	Delete(ctx context.Context, id string) error
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func HandleLogin(log *slog.Logger, svc AdminAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "email and password are required")
			return
		}
		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// HandleDelete serves DELETE for any resource addressed by :id.
func HandleDelete(log *slog.Logger, del func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		if err := del(r.Context(), id); err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		log.Info("admin delete", "path", r.URL.Path, "id", id, "admin", adminFrom(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func activeOr(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

/* Locations */

type locationRequest struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
	Active  *bool  `json:"active"`
}

func (req locationRequest) location(id string) catalog.Location {
	return catalog.Location{ID: id, Slug: req.Slug, Name: req.Name, City: req.City, Address: req.Address, Active: activeOr(req.Active)}
}

func HandleAdminListLocations(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListLocations(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func HandleCreateLocation(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		l, err := svc.CreateLocation(r.Context(), req.location(""))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func HandleUpdateLocation(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		l, err := svc.UpdateLocation(r.Context(), req.location(pathID(r)))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

/* Plans */

type planRequest struct {
	Name        string             `json:"name"`
	Type        pricing.PlanType   `json:"type"`
	Description string             `json:"description"`
	Pricing     pricing.PriceTable `json:"pricing"`
	Active      *bool              `json:"active"`
}

func (req planRequest) plan(id string) catalog.Plan {
	return catalog.Plan{ID: id, Name: req.Name, Type: req.Type, Description: req.Description, Pricing: req.Pricing, Active: activeOr(req.Active)}
}

func HandleAdminListPlans(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPlans(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func HandleCreatePlan(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.CreatePlan(r.Context(), req.plan(""))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func HandleUpdatePlan(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.UpdatePlan(r.Context(), req.plan(pathID(r)))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

/* Add-ons */

type addOnRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Active      *bool  `json:"active"`
}

func (req addOnRequest) addOn(id string) catalog.AddOn {
	return catalog.AddOn{ID: id, Name: req.Name, Description: req.Description, Price: req.Price, Active: activeOr(req.Active)}
}

func HandleAdminListAddOns(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAddOns(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func HandleCreateAddOn(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addOnRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.CreateAddOn(r.Context(), req.addOn(""))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func HandleUpdateAddOn(log *slog.Logger, svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addOnRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.UpdateAddOn(r.Context(), req.addOn(pathID(r)))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

/* Bookings */

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bookingFilter reads ?status=&location_id=&from=&to=&limit=. Both dates
// are inclusive days.
func bookingFilter(r *http.Request) (bookings.Filter, string, bool) {
	q := r.URL.Query()
	f := bookings.Filter{
		Status:     bookings.Status(q.Get("status")),
		LocationID: q.Get("location_id"),
	}
	from, err := parseDay(q.Get("from"))
	if err != nil {
		return f, "from must be YYYY-MM-DD", false
	}
	to, err := parseDay(q.Get("to"))
	if err != nil {
		return f, "to must be YYYY-MM-DD", false
	}
	f.From = from
	if to != nil {
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, "limit must be a non-negative integer", false
		}
		f.Limit = n
	}
	return f, "", true
}

func HandleListBookings(log *slog.Logger, svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, msg, ok := bookingFilter(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, msg)
			return
		}
		list, err := svc.List(r.Context(), f)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func HandleGetBooking(log *slog.Logger, svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Get(r.Context(), pathID(r))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

type manualBookingRequest struct {
	LocationID  string           `json:"location_id"`
	PlanID      string           `json:"plan_id"`
	PlanType    pricing.PlanType `json:"plan_type"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	Notes       string           `json:"notes"`
	Contact     bookings.Contact `json:"contact"`
	TotalAmount int64            `json:"total_amount"`
	Status      bookings.Status  `json:"status"`
}

func HandleCreateBooking(log *slog.Logger, svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manualBookingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		start, err := parseDay(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "start_date must be YYYY-MM-DD")
			return
		}
		end, err := parseDay(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "end_date must be YYYY-MM-DD")
			return
		}
		b, err := svc.CreateManual(r.Context(), bookings.ManualInput{
			LocationID:  req.LocationID,
			PlanID:      req.PlanID,
			PlanType:    req.PlanType,
			StartDate:   start,
			EndDate:     end,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Notes:       req.Notes,
			Contact:     req.Contact,
			TotalAmount: req.TotalAmount,
			Status:      req.Status,
		})
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

type statusRequest struct {
	Status bookings.Status `json:"status"`
}

func HandleBookingStatus(log *slog.Logger, svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		b, err := svc.UpdateStatus(r.Context(), pathID(r), req.Status)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		log.Info("booking status changed", "booking_id", b.ID, "status", b.Status, "admin", adminFrom(r.Context()))
		writeJSON(w, http.StatusOK, b)
	}
}

func HandleExportBookings(log *slog.Logger, svc BookingService, tz *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, msg, ok := bookingFilter(r)
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, msg)
			return
		}
		list, err := svc.List(r.Context(), f)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		data, err := sheets.ExportBookings(list, tz)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeFile(w, "bookings.xlsx", data)
	}
}

func writeFile(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

/* Memberships */

type membershipRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	LocationID    string             `json:"location_id"`
	PlanID        string             `json:"plan_id"`
	StartsOn      string             `json:"starts_on"`
	EndsOn        string             `json:"ends_on"`
	Status        memberships.Status `json:"status"`
	Notes         string             `json:"notes"`
}

func (req membershipRequest) membership(id string) (memberships.Membership, string, bool) {
	m := memberships.Membership{
		ID:            id,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		LocationID:    req.LocationID,
		PlanID:        req.PlanID,
		Status:        req.Status,
		Notes:         req.Notes,
	}
	start, err := parseDay(req.StartsOn)
	if err != nil || start == nil {
		return m, "starts_on must be YYYY-MM-DD", false
	}
	m.StartsOn = *start
	if m.EndsOn, err = parseDay(req.EndsOn); err != nil {
		return m, "ends_on must be YYYY-MM-DD", false
	}
	return m, "", true
}

func HandleListMemberships(log *slog.Logger, svc MembershipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), memberships.Status(r.URL.Query().Get("status")))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func HandleGetMembership(log *slog.Logger, svc MembershipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Get(r.Context(), pathID(r))
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func HandleCreateMembership(log *slog.Logger, svc MembershipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req membershipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, msg, ok := req.membership("")
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidDate, msg)
			return
		}
		m, err := svc.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func HandleUpdateMembership(log *slog.Logger, svc MembershipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req membershipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, msg, ok := req.membership(pathID(r))
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidDate, msg)
			return
		}
		m, err := svc.Update(r.Context(), in)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

/* Location pricing */

func HandleListOverrides(log *slog.Logger, svc PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListOverrides(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type overrideResponse struct {
	LocationID string               `json:"location_id"`
	Override   *locpricing.Override `json:"override"`
	Effective  locpricing.Pricing   `json:"effective"`
}

func HandleGetOverride(log *slog.Logger, svc PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		snap, err := svc.Snapshot(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		resp := overrideResponse{LocationID: id, Effective: snap.LocationPricing(id)}
		if o, ok := snap.Override(id); ok {
			resp.Override = &o
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type overrideRequest struct {
	Name   string             `json:"name"`
	Prices locpricing.Pricing `json:"prices"`
}

func HandlePutOverride(log *slog.Logger, svc PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req overrideRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		o, err := svc.UpdateLocationPricing(r.Context(), pathID(r), req.Name, req.Prices)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func HandleExportPricing(log *slog.Logger, cat CatalogService, svc PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := cat.ListLocations(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		overrides, err := svc.ListOverrides(r.Context())
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		data, err := sheets.ExportPricing(locations, overrides)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		writeFile(w, "location-pricing.xlsx", data)
	}
}

// HandleImportPricing accepts the workbook as a multipart "file" field or
// as the raw request body.
func HandleImportPricing(log *slog.Logger, svc PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "could not read upload")
			return
		}
		rows, err := sheets.ParsePricing(data)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		res, err := svc.Import(r.Context(), rows)
		if err != nil {
			writeServiceError(w, log, r, err)
			return
		}
		log.Info("pricing import", "locations", res.Locations, "rows", res.Rows, "admin", adminFrom(r.Context()))
		writeJSON(w, http.StatusOK, res)
	}
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(r.Body)
}
