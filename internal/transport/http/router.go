// Package httptransport assembles the public HTTP surface: shared middleware,
// operational endpoints and the routes of every bounded context.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coliving/internal/platform/metrics"
	"coliving/pkg/platform/httputil"
	authmw "coliving/pkg/platform/middleware/auth"
	"coliving/pkg/platform/middleware/metadata"
	"coliving/pkg/platform/middleware/request"
	"coliving/pkg/platform/middleware/requesttime"
)

// Module mounts its routes on the shared router.
type Module interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Options carries what the router needs beyond the modules themselves.
type Options struct {
	Logger      *slog.Logger
	CORSOrigins []string
	Validator   authmw.JWTValidator
	Revocations authmw.TokenRevocationChecker
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Checks      map[string]HealthCheck
}

// NewRouter builds the chi router. Authentication runs on every /api route and
// resolves the anonymous actor when no bearer token is sent.
func NewRouter(opts Options, modules ...Module) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{request.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimw.RealIP)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)
	r.Use(opts.Metrics.Middleware)

	r.Get("/healthz", healthz(opts.Checks))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(opts.Validator, opts.Revocations, opts.Logger))
		for _, m := range modules {
			m.Register(r)
		}
	})
	return r
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = "down"
				continue
			}
			body[name] = "up"
		}
		httputil.WriteJSON(w, status, body)
	}
}
