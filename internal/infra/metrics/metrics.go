package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Spok95/cowork-booking/internal/wizard"
)

// Recorder collects business and HTTP metrics.
type Recorder struct {
	stepMoves   *prometheus.CounterVec
	planMissing prometheus.Counter
	payments    *prometheus.CounterVec
	bookings    *prometheus.CounterVec
	revenue     *prometheus.CounterVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		stepMoves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_step_moves_total",
			Help: "Wizard navigation events by direction and target step.",
		}, []string{"direction", "step"}),
		planMissing: f.NewCounter(prometheus.CounterOpts{
			Name: "wizard_plan_missing_total",
			Help: "Total recalculations skipped because the selected plan was not in reference data.",
		}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Payment attempts by method and outcome.",
		}, []string{"method", "result"}),
		bookings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_confirmed_total",
			Help: "Confirmed bookings by channel.",
		}, []string{"channel"}),
		revenue: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_revenue_paisa_total",
			Help: "Sum of confirmed booking totals in paisa.",
		}, []string{"channel"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (r *Recorder) StepMoved(direction string, to wizard.Step) {
	r.stepMoves.WithLabelValues(direction, to.String()).Inc()
}

func (r *Recorder) PlanMissing() { r.planMissing.Inc() }

func (r *Recorder) PaymentProcessed(method string, ok bool) {
	result := "declined"
	if ok {
		result = "accepted"
	}
	r.payments.WithLabelValues(method, result).Inc()
}

func (r *Recorder) BookingConfirmed(channel string, amount int64) {
	r.bookings.WithLabelValues(channel).Inc()
	r.revenue.WithLabelValues(channel).Add(float64(amount))
}

func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.latency.WithLabelValues(method, route).Observe(d.Seconds())
}
