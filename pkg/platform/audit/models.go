package audit

import (
	"time"

	id "coliving/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers lifecycle changes moderators and regulators care
	// about: publication, suspension, verification outcomes, account creation.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access violations and authentication failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// ActorID is the user who performed the action. Nil for anonymous visitors.
	ActorID id.UserID
	// Subject identifies the resource acted on, as "<type>:<id>".
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	UserAgent string
	IP        string
}

type AuditEvent string

const (
	// Listing events
	EventListingPublished AuditEvent = "listing_published"
	EventListingSuspended AuditEvent = "listing_suspended"

	// Reservation events
	EventReservationCreated       AuditEvent = "reservation_created"
	EventReservationStatusChanged AuditEvent = "reservation_status_changed"
	EventReservationDeleted       AuditEvent = "reservation_deleted"

	// Verification events
	EventVerificationResolved AuditEvent = "verification_resolved"

	// Account events
	EventUserCreated      AuditEvent = "user_created"
	EventUserDeleted      AuditEvent = "user_deleted"
	EventUserRolesChanged AuditEvent = "user_roles_changed"
	EventAuthFailed       AuditEvent = "auth_failed"

	// Policy events
	EventAccessDenied AuditEvent = "access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventListingPublished:         CategoryCompliance,
	EventListingSuspended:         CategoryCompliance,
	EventReservationStatusChanged: CategoryCompliance,
	EventReservationDeleted:       CategoryCompliance,
	EventVerificationResolved:     CategoryCompliance,
	EventUserCreated:              CategoryCompliance,
	EventUserDeleted:              CategoryCompliance,
	EventUserRolesChanged:         CategorySecurity,

	EventAuthFailed:   CategorySecurity,
	EventAccessDenied: CategorySecurity,

	EventReservationCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
