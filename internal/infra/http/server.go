package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

type Server struct {
	srv *http.Server
}

// Deps carries everything the router serves. PaymentPage, Chat, the limiters
// and Metrics may be nil.
type Deps struct {
	Log         *slog.Logger
	Catalog     CatalogService
	Pricing     PricingService
	Wizard      WizardService
	Bookings    BookingService
	Memberships MembershipService
	Admins      AdminAuth
	Tokens      TokenParser
	Chat        ChatService
	PaymentPage http.Handler

	Metrics       RequestObserver
	ExposeMetrics bool
	CORSOrigins   []string
	ChatLimiter   *RateLimiter
	LoginLimiter  *RateLimiter

	BusinessName string
	Timezone     *time.Location
}

func New(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// NewHandler wires every route behind CORS and request logging.
func NewHandler(d Deps) http.Handler {
	if d.Timezone == nil {
		d.Timezone = time.UTC
	}
	r := httprouter.New()
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	handle := func(method, path string, h http.Handler) {
		r.Handler(method, path, instrument(d.Metrics, path, h))
	}
	admin := func(method, path string, h http.HandlerFunc) {
		handle(method, path, RequireAdmin(d.Tokens, h))
	}

	handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	if d.ExposeMetrics {
		r.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	}
	if d.PaymentPage != nil {
		handle(http.MethodGet, "/payments/pay", d.PaymentPage)
	}

	handle(http.MethodGet, "/api/locations", HandleLocations(d.Log, d.Catalog))
	handle(http.MethodGet, "/api/locations/:id/pricing", HandleLocationPricing(d.Log, d.Catalog, d.Pricing))
	handle(http.MethodGet, "/api/plans", HandlePlans(d.Log, d.Catalog, d.Pricing))
	handle(http.MethodGet, "/api/addons", HandleAddOns(d.Log, d.Catalog))
	handle(http.MethodPost, "/api/quote", HandleQuote(d.Log, d.Wizard))

	handle(http.MethodPost, "/api/wizard", HandleWizardStart(d.Log, d.Wizard))
	handle(http.MethodGet, "/api/wizard/:id", HandleWizardGet(d.Log, d.Wizard))
	handle(http.MethodPatch, "/api/wizard/:id", HandleWizardUpdate(d.Log, d.Wizard))
	handle(http.MethodPost, "/api/wizard/:id/next", HandleWizardMove(d.Log, d.Wizard.Next))
	handle(http.MethodPost, "/api/wizard/:id/prev", HandleWizardMove(d.Log, d.Wizard.Prev))
	handle(http.MethodPost, "/api/wizard/:id/reset", HandleWizardMove(d.Log, d.Wizard.Reset))
	handle(http.MethodPost, "/api/wizard/:id/checkout", HandleCheckout(d.Log, d.Wizard))
	handle(http.MethodPost, "/api/payments/:id/verify", HandleVerify(d.Log, d.Wizard))
	handle(http.MethodGet, "/api/bookings/:id/receipt.pdf", HandleReceipt(d.Log, d.Bookings, d.Catalog, d.BusinessName))
	if d.Chat != nil {
		handle(http.MethodPost, "/api/chat", d.ChatLimiter.Limit(HandleChat(d.Log, d.Chat)))
	}

	handle(http.MethodPost, "/admin/login", d.LoginLimiter.Limit(HandleLogin(d.Log, d.Admins)))

	admin(http.MethodGet, "/admin/locations", HandleAdminListLocations(d.Log, d.Catalog))
	admin(http.MethodPost, "/admin/locations", HandleCreateLocation(d.Log, d.Catalog))
	admin(http.MethodPut, "/admin/locations/:id", HandleUpdateLocation(d.Log, d.Catalog))
	admin(http.MethodDelete, "/admin/locations/:id", HandleDelete(d.Log, d.Catalog.DeleteLocation))
	admin(http.MethodGet, "/admin/plans", HandleAdminListPlans(d.Log, d.Catalog))
	admin(http.MethodPost, "/admin/plans", HandleCreatePlan(d.Log, d.Catalog))
	admin(http.MethodPut, "/admin/plans/:id", HandleUpdatePlan(d.Log, d.Catalog))
	admin(http.MethodDelete, "/admin/plans/:id", HandleDelete(d.Log, d.Catalog.DeletePlan))
	admin(http.MethodGet, "/admin/addons", HandleAdminListAddOns(d.Log, d.Catalog))
	admin(http.MethodPost, "/admin/addons", HandleCreateAddOn(d.Log, d.Catalog))
	admin(http.MethodPut, "/admin/addons/:id", HandleUpdateAddOn(d.Log, d.Catalog))
	admin(http.MethodDelete, "/admin/addons/:id", HandleDelete(d.Log, d.Catalog.DeleteAddOn))

	admin(http.MethodGet, "/admin/bookings", HandleListBookings(d.Log, d.Bookings))
	admin(http.MethodPost, "/admin/bookings", HandleCreateBooking(d.Log, d.Bookings))
	admin(http.MethodGet, "/admin/bookings/:id", HandleGetBooking(d.Log, d.Bookings))
	admin(http.MethodPatch, "/admin/bookings/:id/status", HandleBookingStatus(d.Log, d.Bookings))
	admin(http.MethodDelete, "/admin/bookings/:id", HandleDelete(d.Log, d.Bookings.Delete))

	admin(http.MethodGet, "/admin/memberships", HandleListMemberships(d.Log, d.Memberships))
	admin(http.MethodPost, "/admin/memberships", HandleCreateMembership(d.Log, d.Memberships))
	admin(http.MethodGet, "/admin/memberships/:id", HandleGetMembership(d.Log, d.Memberships))
	admin(http.MethodPut, "/admin/memberships/:id", HandleUpdateMembership(d.Log, d.Memberships))
	admin(http.MethodDelete, "/admin/memberships/:id", HandleDelete(d.Log, d.Memberships.Delete))

	admin(http.MethodGet, "/admin/pricing", HandleListOverrides(d.Log, d.Pricing))
	admin(http.MethodGet, "/admin/pricing/:id", HandleGetOverride(d.Log, d.Pricing))
	admin(http.MethodPut, "/admin/pricing/:id", HandlePutOverride(d.Log, d.Pricing))
	admin(http.MethodDelete, "/admin/pricing/:id", HandleDelete(d.Log, d.Pricing.DeleteLocationPricing))

	admin(http.MethodGet, "/admin/export/bookings.xlsx", HandleExportBookings(d.Log, d.Bookings, d.Timezone))
	admin(http.MethodGet, "/admin/export/pricing.xlsx", HandleExportPricing(d.Log, d.Catalog, d.Pricing))
	admin(http.MethodPost, "/admin/import/pricing", HandleImportPricing(d.Log, d.Pricing))

	c := cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return RequestLogger(c.Handler(r), d.Log)
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func pathID(r *http.Request) string {
	return httprouter.ParamsFromContext(r.Context()).ByName("id")
}
