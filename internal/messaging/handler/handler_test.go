package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountModels "coliving/internal/account/models"
	accountStore "coliving/internal/account/store"
	"coliving/internal/identity"
	listingStore "coliving/internal/listing/store"
	"coliving/internal/messaging/models"
	"coliving/internal/messaging/service"
	"coliving/internal/messaging/store"
	"coliving/internal/policy"
	"coliving/pkg/platform/httputil"
	"coliving/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, identity.Actor, identity.Actor) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := accountStore.NewInMemory()
	var actors []identity.Actor
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		u, err := accountModels.NewUser(testutil.NewUserID(), email, "hash", "", "", now)
		require.NoError(t, err)
		require.NoError(t, users.CreateUser(ctx, u))
		actors = append(actors, identity.NewActor(u.ID))
	}

	svc := service.New(store.NewInMemory(), users, policy.New(listingStore.NewInMemory()), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, actors[0], actors[1]
}

func TestConversationOverHTTP(t *testing.T) {
	router, alice, bob := newRouter(t)
	var msg *models.Message

	testutil.Given(t, "alice writes to bob", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/messages", map[string]string{
			"receiverId": bob.ID.String(),
			"content":    "Is the room still free in May?",
		})
		rr := testutil.DoRequest(router, testutil.WithActor(req, alice))
		require.Equal(t, http.StatusCreated, rr.Code)
		msg = testutil.UnmarshalResponse[models.Message](t, rr)
		assert.Equal(t, alice.ID, msg.SenderID)
		assert.Nil(t, msg.SeenAt)
	})

	path := "/api/messages/" + msg.ID.String()

	testutil.When(t, "bob lists his unseen messages", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/messages?unseen=true&receiverId="+bob.ID.String())
		rr := testutil.DoRequest(router, testutil.WithActor(req, bob))
		testutil.AssertStatusOK(t, rr)
		page := testutil.UnmarshalResponse[httputil.Collection[models.Message]](t, rr)
		assert.Equal(t, 1, page.TotalItems)
	})

	testutil.Then(t, "only bob can mark it seen", func(t *testing.T) {
		body := map[string]bool{"seen": true}
		rr := testutil.DoRequest(router, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPatch, path, body), alice))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

		rr = testutil.DoRequest(router, testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPatch, path, body), bob))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONHasKey(t, rr, "seenAt")
	})

	testutil.Then(t, "strangers cannot read it", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, path), testutil.Client()))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestSendMessageRejections(t *testing.T) {
	router, alice, bob := newRouter(t)

	tests := []struct {
		name   string
		actor  identity.Actor
		body   string
		status int
		code   string
	}{
		{"anonymous", identity.Anonymous(), `{"receiverId":"` + bob.ID.String() + `","content":"hi"}`, http.StatusForbidden, "forbidden"},
		{"missing receiver", alice, `{"content":"hi"}`, http.StatusBadRequest, "validation_error"},
		{"unknown receiver", alice, `{"receiverId":"` + testutil.NewUserID().String() + `","content":"hi"}`, http.StatusBadRequest, "validation_error"},
		{"empty content", alice, `{"receiverId":"` + bob.ID.String() + `","content":"  "}`, http.StatusBadRequest, "validation_error"},
		{"unknown field", alice, `{"to":"` + bob.ID.String() + `"}`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/messages", tt.body)
			rr := testutil.DoRequest(router, testutil.WithActor(req, tt.actor))
			testutil.AssertStatusAndError(t, rr, tt.status, tt.code)
		})
	}

	t.Run("seen must be true", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPatch, "/api/messages/"+testutil.NewUserID().String(), `{"seen":false}`)
		rr := testutil.DoRequest(router, testutil.WithActor(req, bob))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}
