package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics.
// A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	UsersCreated       prometheus.Counter
	ListingTransitions *prometheus.CounterVec
	ReservationChanges *prometheus.CounterVec
	Verifications      *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coliving_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coliving_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "coliving_users_created_total",
			Help: "Total number of users created in the system",
		}),
		ListingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coliving_listing_transitions_total",
			Help: "Listing publish/suspend transitions by listing type",
		}, []string{"listing", "transition"}),
		ReservationChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coliving_reservation_status_changes_total",
			Help: "Reservation status changes by target status",
		}, []string{"status"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coliving_verifications_resolved_total",
			Help: "Resolved verifications by kind and outcome",
		}, []string{"kind", "status"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) IncListingTransition(listing, transition string) {
	if m == nil {
		return
	}
	m.ListingTransitions.WithLabelValues(listing, transition).Inc()
}

func (m *Metrics) IncReservationChange(status string) {
	if m == nil {
		return
	}
	m.ReservationChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) IncVerificationResolved(kind, status string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(kind, status).Inc()
}

// Middleware records request count and latency labelled with the chi route
// pattern, so ids in the path do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
