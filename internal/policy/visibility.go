package policy

import (
	"coliving/internal/identity"
	id "coliving/pkg/domain"
)

// ScopeKind says which rows of a collection an actor may see.
type ScopeKind int

const (
	// ScopeNone matches nothing.
	ScopeNone ScopeKind = iota
	// ScopeAll matches every row.
	ScopeAll
	// ScopeOwner matches reservations on spaces the user controls.
	ScopeOwner
	// ScopeClient matches reservations the user made.
	ScopeClient
	// ScopeParticipant matches messages the user sent or received.
	ScopeParticipant
)

// Scope is a row filter stores apply before pagination.
type Scope struct {
	Kind   ScopeKind
	UserID id.UserID
}

// ReservationScope: staff see everything, an owner who is not staff sees the
// reservations on their spaces, anyone else sees their own.
func ReservationScope(a identity.Actor) Scope {
	switch {
	case identity.IsStaff(a):
		return Scope{Kind: ScopeAll}
	case identity.HasRole(a, identity.RoleOwner):
		return Scope{Kind: ScopeOwner, UserID: a.ID}
	case identity.HasRole(a, identity.RoleClient):
		return Scope{Kind: ScopeClient, UserID: a.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// MessageScope: staff see everything, others see conversations they are part of.
func MessageScope(a identity.Actor) Scope {
	switch {
	case identity.IsStaff(a):
		return Scope{Kind: ScopeAll}
	case identity.HasRole(a, identity.RoleClient):
		return Scope{Kind: ScopeParticipant, UserID: a.ID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// MatchesReservation evaluates the scope against a reservation's client and the
// controlling owner of its space.
func (s Scope) MatchesReservation(clientID, ownerID id.UserID) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeOwner:
		return ownerID == s.UserID
	case ScopeClient:
		return clientID == s.UserID
	default:
		return false
	}
}

// MatchesMessage evaluates the scope against a message's parties.
func (s Scope) MatchesMessage(senderID, receiverID id.UserID) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeParticipant:
		return senderID == s.UserID || receiverID == s.UserID
	default:
		return false
	}
}
