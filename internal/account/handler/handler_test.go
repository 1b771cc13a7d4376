package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coliving/internal/account/models"
	"coliving/internal/account/secrets"
	"coliving/internal/account/service"
	"coliving/internal/account/store"
	"coliving/internal/account/store/revocation"
	"coliving/internal/identity"
	jwttoken "coliving/internal/jwt_token"
	listingStore "coliving/internal/listing/store"
	"coliving/internal/policy"
	"coliving/pkg/platform/httputil"
	authmw "coliving/pkg/platform/middleware/auth"
	"coliving/pkg/testutil"
)

type fixture struct {
	users  *store.InMemory
	direct http.Handler
	authed http.Handler
}

// newFixture mounts the handler twice: directly, for tests that inject the
// actor, and behind bearer authentication, for the token round trip.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := store.NewInMemory()
	jwt := jwttoken.NewJWTService("handler-test-key", "coliving")
	trl := revocation.NewInMemoryTRL(nil)
	svc := service.New(users, policy.New(listingStore.NewInMemory()), jwt, trl,
		service.WithLogger(logger),
		service.WithHasher(secrets.NewHasher(bcrypt.MinCost)),
	)

	direct := chi.NewRouter()
	New(svc, logger).Register(direct)

	authed := chi.NewRouter()
	authed.Use(authmw.Authenticate(jwttoken.NewJWTServiceAdapter(jwt), trl, logger))
	New(svc, logger).Register(authed)

	return &fixture{users: users, direct: direct, authed: authed}
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	f := newFixture(t)

	var (
		user  *models.User
		token string
	)
	testutil.Given(t, "a registered user", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/users", map[string]string{
			"email":     "alice@example.com",
			"password":  "correct horse",
			"firstName": "Alice",
		})
		rr := testutil.DoRequest(f.authed, req)
		require.Equal(t, http.StatusCreated, rr.Code)
		user = testutil.UnmarshalResponse[models.User](t, rr)
		assert.NotContains(t, rr.Body.String(), "password")
	})

	testutil.When(t, "they log in", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/login_check", map[string]string{
			"email":    "alice@example.com",
			"password": "correct horse",
		})
		rr := testutil.DoRequest(f.authed, req)
		require.Equal(t, http.StatusOK, rr.Code)
		token = testutil.UnmarshalResponse[service.Token](t, rr).Token
		require.NotEmpty(t, token)
	})

	testutil.Then(t, "the token reads their own account", func(t *testing.T) {
		req := bearer(testutil.NewRequest(t, http.MethodGet, "/api/users/"+user.ID.String()), token)
		rr := testutil.DoRequest(f.authed, req)
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "email", "alice@example.com")
	})

	testutil.Then(t, "logout revokes the token", func(t *testing.T) {
		rr := testutil.DoRequest(f.authed, bearer(testutil.NewRequest(t, http.MethodPost, "/api/logout"), token))
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		req := bearer(testutil.NewRequest(t, http.MethodGet, "/api/users/"+user.ID.String()), token)
		rr = testutil.DoRequest(f.authed, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/users", map[string]string{"email": "bob@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusCreated, testutil.DoRequest(f.direct, req).Code)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong password", `{"email":"bob@example.com","password":"wrong horse"}`, http.StatusUnauthorized, "unauthorized"},
		{"unknown email", `{"email":"eve@example.com","password":"correct horse"}`, http.StatusUnauthorized, "unauthorized"},
		{"missing password", `{"email":"bob@example.com"}`, http.StatusBadRequest, "bad_request"},
		{"unknown field", `{"username":"bob@example.com","password":"x"}`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoRequest(f.direct, testutil.NewRequestWithBody(t, http.MethodPost, "/api/login_check", tt.body))
			testutil.AssertStatusAndError(t, rr, tt.status, tt.code)
		})
	}
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/users", map[string]string{"email": "carol@example.com", "password": "correct horse"})
	rr := testutil.DoRequest(f.direct, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	carol := testutil.UnmarshalResponse[models.User](t, rr)
	self := identity.NewActor(carol.ID)
	path := "/api/users/" + carol.ID.String()

	t.Run("self cannot assign roles", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{"roles": []string{"ROLE_ADMIN"}})
		rr := testutil.DoRequest(f.direct, testutil.WithActor(req, self))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	t.Run("self edits the profile", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"lastName": "Dupont"})
		rr := testutil.DoRequest(f.direct, testutil.WithActor(req, self))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "lastName", "Dupont")
	})

	t.Run("admin assigns roles", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{"roles": []string{"ROLE_OWNER"}})
		rr := testutil.DoRequest(f.direct, testutil.WithActor(req, testutil.Admin()))
		testutil.AssertStatusOK(t, rr)
		u := testutil.UnmarshalResponse[models.User](t, rr)
		assert.Equal(t, []identity.Role{identity.RoleOwner}, u.Roles)
	})

	t.Run("unknown roles are rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, path, map[string]any{"roles": []string{"ROLE_KING"}})
		rr := testutil.DoRequest(f.direct, testutil.WithActor(req, testutil.Admin()))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("staff list with filters", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/users?roles=OWNER&isActive=true")
		rr := testutil.DoRequest(f.direct, testutil.WithActor(req, testutil.Employee()))
		testutil.AssertStatusOK(t, rr)
		page := testutil.UnmarshalResponse[httputil.Collection[models.User]](t, rr)
		assert.Equal(t, 1, page.TotalItems)

		rr = testutil.DoRequest(f.direct, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/api/users"), self))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("only admins delete", func(t *testing.T) {
		rr := testutil.DoRequest(f.direct, testutil.WithActor(testutil.NewRequest(t, http.MethodDelete, path), self))
		testutil.AssertStatus(t, rr, http.StatusForbidden)

		rr = testutil.DoRequest(f.direct, testutil.WithActor(testutil.NewRequest(t, http.MethodDelete, path), testutil.Admin()))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}
