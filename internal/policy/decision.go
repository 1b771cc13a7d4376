package policy

import (
	dErrors "coliving/pkg/domain-errors"
)

// ResourceType names a kind of resource the policy knows about.
type ResourceType string

const (
	ResourceColivingSpace     ResourceType = "ColivingSpace"
	ResourcePrivateSpace      ResourceType = "PrivateSpace"
	ResourceReservation       ResourceType = "Reservation"
	ResourceReview            ResourceType = "Review"
	ResourceVerificationSpace ResourceType = "VerificationSpace"
	ResourceVerificationUser  ResourceType = "VerificationUser"
	ResourceUser              ResourceType = "User"
	ResourceMessage           ResourceType = "Message"
	ResourceColivingCity      ResourceType = "ColivingCity"
	ResourceAmenity           ResourceType = "Amenity"
	ResourceAddress           ResourceType = "Address"
	ResourcePhoto             ResourceType = "Photo"
)

// Operation is what the actor wants to do.
type Operation string

const (
	OpList    Operation = "LIST"
	OpRead    Operation = "READ"
	OpCreate  Operation = "CREATE"
	OpUpdate  Operation = "UPDATE"
	OpPublish Operation = "PUBLISH"
	OpSuspend Operation = "SUSPEND"
	OpDelete  Operation = "DELETE"
)

// DenyKind distinguishes a missing permission from a lifecycle guard.
type DenyKind int

const (
	// DenyPolicy means the actor lacks a role, ownership or precondition.
	DenyPolicy DenyKind = iota
	// DenyTransition means the resource is already in the requested state.
	DenyTransition
)

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
	Kind    DenyKind
}

// Allow grants the operation.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny rejects the operation for reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason, Kind: DenyPolicy}
}

// DenyState rejects a publish/suspend aimed at a listing already in the target state.
func DenyState(reason string) Decision {
	return Decision{Reason: reason, Kind: DenyTransition}
}

// Effect is the metric/log label for the decision.
func (d Decision) Effect() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}

// Err converts a denial into a coded error. It returns nil for Allow.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Kind == DenyTransition {
		return dErrors.New(dErrors.CodeInvalidTransition, d.Reason)
	}
	return dErrors.New(dErrors.CodeForbidden, d.Reason)
}

const (
	reasonNotPermitted      = "operation not permitted"
	reasonAuthRequired      = "authentication required"
	reasonStaffRequired     = "employee or admin role required"
	reasonAdminRequired     = "admin role required"
	reasonOwnerRequired     = "owner role required"
	reasonNotOwner          = "only the owner of this space may do this"
	reasonPublished         = "published listings cannot be edited"
	reasonAlreadyPublished  = "already published"
	reasonAlreadySuspended  = "already suspended"
	reasonParentUnpublished = "parent coliving space is not published"
	reasonNotParticipant    = "not a party to this resource"
	reasonNotReceiver       = "only the receiver may update this message"
	reasonNotSelf           = "only the account holder may do this"
)
