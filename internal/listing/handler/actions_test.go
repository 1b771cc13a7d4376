package handler

//go:generate mockgen -source=actions.go -destination=mocks/actions-mocks.go -package=mocks ActionService

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coliving/internal/identity"
	"coliving/internal/listing/handler/mocks"
	"coliving/internal/listing/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/testutil"
)

type ActionHandlerSuite struct {
	suite.Suite
	actions *mocks.MockActionService
	router  chi.Router
	staff   identity.Actor
}

func TestActionHandlerSuite(t *testing.T) {
	suite.Run(t, new(ActionHandlerSuite))
}

func (s *ActionHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.actions = mocks.NewMockActionService(ctrl)
	s.router = chi.NewRouter()
	NewActions(s.actions, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.staff = testutil.Employee()
}

func (s *ActionHandlerSuite) do(req *http.Request) *testResponse {
	rr := testutil.DoRequest(s.router, testutil.WithActor(req, s.staff))
	return &testResponse{rr.Code, rr.Body.String()}
}

type testResponse struct {
	code int
	body string
}

func (s *ActionHandlerSuite) TestPublishColivingSpace() {
	spaceID := id.ColivingSpaceID(uuid.New())

	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		s.Run(method+" publishes", func() {
			s.actions.EXPECT().PublishColivingSpace(gomock.Any(), s.staff, spaceID).Return(&service.TransitionResult{
				Message:  "Coliving space published successfully.",
				ID:       spaceID.String(),
				IsActive: true,
			}, nil)

			res := s.do(testutil.NewRequest(s.T(), method, "/api/coliving_spaces/"+spaceID.String()+"/publish"))
			s.Equal(http.StatusOK, res.code)
			s.JSONEq(`{"message":"Coliving space published successfully.","id":"`+spaceID.String()+`","isActive":true}`, res.body)
		})
	}

	s.Run("already published maps to 400", func() {
		s.actions.EXPECT().PublishColivingSpace(gomock.Any(), s.staff, spaceID).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "already published"))

		res := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/coliving_spaces/"+spaceID.String()+"/publish"))
		s.Equal(http.StatusBadRequest, res.code)
		s.JSONEq(`{"error":"invalid_transition","message":"already published"}`, res.body)
	})

	s.Run("policy denial maps to 403", func() {
		s.actions.EXPECT().PublishColivingSpace(gomock.Any(), s.staff, spaceID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "employee or admin role required"))

		res := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/coliving_spaces/"+spaceID.String()+"/publish"))
		s.Equal(http.StatusForbidden, res.code)
	})

	s.Run("malformed id is rejected before the service", func() {
		res := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/coliving_spaces/not-a-uuid/publish"))
		s.Equal(http.StatusBadRequest, res.code)
	})
}

func (s *ActionHandlerSuite) TestSuspendReason() {
	roomID := id.PrivateSpaceID(uuid.New())

	s.Run("reason from body is passed through", func() {
		s.actions.EXPECT().SuspendPrivateSpace(gomock.Any(), s.staff, roomID, "fraud report").Return(&service.TransitionResult{
			Message: "Private space suspended successfully.",
			Reason:  "fraud report",
			ID:      roomID.String(),
		}, nil)

		req := testutil.NewRequestWithBody(s.T(), http.MethodPatch, "/api/private_spaces/"+roomID.String()+"/suspend", `{"reason":" fraud report "}`)
		res := s.do(req)
		s.Equal(http.StatusOK, res.code)
		s.JSONEq(`{"message":"Private space suspended successfully.","reason":"fraud report","id":"`+roomID.String()+`","isActive":false}`, res.body)
	})

	s.Run("empty body leaves the default to the service", func() {
		s.actions.EXPECT().SuspendPrivateSpace(gomock.Any(), s.staff, roomID, "").Return(&service.TransitionResult{
			Message: "Private space suspended successfully.",
			Reason:  service.DefaultSuspendReason,
			ID:      roomID.String(),
		}, nil)

		res := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/private_spaces/"+roomID.String()+"/suspend"))
		s.Equal(http.StatusOK, res.code)
		s.True(strings.Contains(res.body, `"reason":"unspecified"`))
	})

	s.Run("fields other than reason are ignored", func() {
		s.actions.EXPECT().SuspendPrivateSpace(gomock.Any(), s.staff, roomID, "spam").Return(&service.TransitionResult{
			Message: "Private space suspended successfully.",
			Reason:  "spam",
			ID:      roomID.String(),
		}, nil)

		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/private_spaces/"+roomID.String()+"/suspend", `{"reason":"spam","ticket":1234}`)
		res := s.do(req)
		s.Equal(http.StatusOK, res.code)
	})

	s.Run("unreadable body from a client is still a policy denial", func() {
		client := testutil.Client()
		spaceID := id.ColivingSpaceID(uuid.New())
		s.actions.EXPECT().SuspendColivingSpace(gomock.Any(), client, spaceID, "").
			Return(nil, dErrors.New(dErrors.CodeForbidden, "only staff can suspend listings"))

		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/coliving_spaces/"+spaceID.String()+"/suspend", `{"reason":`)
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, client))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("internal errors are masked", func() {
		s.actions.EXPECT().SuspendColivingSpace(gomock.Any(), s.staff, gomock.Any(), "").
			Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to update coliving space"))

		res := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/coliving_spaces/"+uuid.NewString()+"/suspend"))
		s.Equal(http.StatusInternalServerError, res.code)
		s.JSONEq(`{"error":"internal_error","message":"an internal error occurred"}`, res.body)
	})
}
