package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"coliving/internal/identity"
	"coliving/internal/platform/metrics"
	authmw "coliving/pkg/platform/middleware/auth"
	"coliving/pkg/platform/middleware/request"
	"coliving/pkg/requestcontext"
	"coliving/pkg/testutil"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*authmw.JWTClaims, error) {
	return nil, errors.New("bad token")
}

type neverRevoked struct{}

func (neverRevoked) IsTokenRevoked(context.Context, string) (bool, error) { return false, nil }

// whoami echoes the resolved actor and request metadata.
type whoami struct{}

func (whoami) Register(r chi.Router) {
	r.Get("/api/whoami", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		a := identity.FromContext(ctx)
		_, _ = io.WriteString(w, a.ID.String()+"|"+requestcontext.RequestID(ctx))
	})
	r.Get("/api/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

type RouterSuite struct {
	suite.Suite
	registry *prometheus.Registry
	checks   map[string]HealthCheck
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.registry = prometheus.NewRegistry()
	s.checks = map[string]HealthCheck{"postgres": func(context.Context) error { return nil }}
	s.router = NewRouter(Options{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSOrigins: []string{"https://app.example.com"},
		Validator:   rejectAll{},
		Revocations: neverRevoked{},
		Metrics:     metrics.New(s.registry),
		Gatherer:    s.registry,
		Checks:      s.checks,
	}, whoami{})
}

func (s *RouterSuite) TestAnonymousRequestsReachModules() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/whoami")
	req.Header.Set(request.HeaderRequestID, "req-42")
	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(identity.Anonymous().ID.String()+"|req-42", rr.Body.String())
	s.Equal("req-42", rr.Header().Get(request.HeaderRequestID))
}

func (s *RouterSuite) TestInvalidBearerIsRejected() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/whoami")
	req.Header.Set("Authorization", "Bearer nope")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestPanicsBecome500() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/panic"))
	s.Equal(http.StatusInternalServerError, rr.Code)
}

func (s *RouterSuite) TestHealthz() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "postgres", "up")

	s.checks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	testutil.AssertJSONContains(s.T(), rr, "status", "degraded")
	testutil.AssertJSONContains(s.T(), rr, "redis", "down")
}

func (s *RouterSuite) TestMetricsUseRoutePatterns() {
	testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/whoami"))
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `route="/api/whoami"`)
}

func (s *RouterSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/whoami", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := testutil.DoRequest(s.router, req)
	assert.Equal(s.T(), "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
