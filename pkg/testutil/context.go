package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"coliving/internal/identity"
	id "coliving/pkg/domain"
)

// WithActor attaches actor to the request, as the auth middleware would.
func WithActor(req *http.Request, actor identity.Actor) *http.Request {
	return req.WithContext(identity.WithActor(req.Context(), actor))
}

// NewUserID returns a random user id.
func NewUserID() id.UserID {
	return id.UserID(uuid.New())
}

// Actors used across tests: one per role, plus the anonymous visitor.
func Client() identity.Actor   { return identity.NewActor(NewUserID()) }
func Owner() identity.Actor    { return identity.NewActor(NewUserID(), identity.RoleOwner) }
func Employee() identity.Actor { return identity.NewActor(NewUserID(), identity.RoleEmployee) }
func Admin() identity.Actor    { return identity.NewActor(NewUserID(), identity.RoleAdmin) }
