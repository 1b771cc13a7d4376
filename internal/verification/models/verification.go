package models

import (
	"strings"
	"time"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// Status is the moderation state of a verification.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
	StatusRefused   Status = "REFUSED"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusValidated || s == StatusRefused
}

// CanTransitionTo allows PENDING -> {VALIDATED, REFUSED}. Resolved states are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusValidated || next == StatusRefused)
}

// Lifecycle is the part shared by both verification kinds.
type Lifecycle struct {
	Status     Status     `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

func newLifecycle(now time.Time) Lifecycle {
	return Lifecycle{Status: StatusPending, CreatedAt: now}
}

// CanResolve checks a status change. Setting the current status again is a no-op
// only while still pending.
func (l *Lifecycle) CanResolve(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown verification status: "+string(next))
	}
	if next == l.Status && next == StatusPending {
		return nil
	}
	if !l.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"verification cannot move from "+string(l.Status)+" to "+string(next))
	}
	return nil
}

// ApplyResolve sets the status. VerifiedAt is stamped the first time the status
// leaves PENDING and never moves afterwards.
func (l *Lifecycle) ApplyResolve(next Status, now time.Time) {
	if l.Status == StatusPending && next != StatusPending && l.VerifiedAt == nil {
		l.VerifiedAt = &now
	}
	l.Status = next
}

func (l *Lifecycle) Resolve(next Status, now time.Time) error {
	if err := l.CanResolve(next); err != nil {
		return err
	}
	l.ApplyResolve(next, now)
	return nil
}

// SetNotes replaces the moderator notes. Allowed in every state.
func (l *Lifecycle) SetNotes(notes *string) {
	if notes == nil {
		return
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		l.Notes = nil
		return
	}
	l.Notes = &trimmed
}

// Resolved reports whether the verification has left PENDING.
func (l *Lifecycle) Resolved() bool {
	return l.Status != StatusPending
}

// VerificationSpace is a staff check of a listing.
type VerificationSpace struct {
	ID              id.VerificationID  `json:"id"`
	ColivingSpaceID id.ColivingSpaceID `json:"colivingSpaceId"`
	PrivateSpaceID  *id.PrivateSpaceID `json:"privateSpaceId,omitempty"`
	VerifierID      id.UserID          `json:"verifierId"`
	Lifecycle
}

func NewVerificationSpace(vID id.VerificationID, space id.ColivingSpaceID, room *id.PrivateSpaceID, verifier id.UserID, now time.Time) (*VerificationSpace, error) {
	if space.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification requires a coliving space")
	}
	if verifier.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification requires a verifier")
	}
	return &VerificationSpace{
		ID:              vID,
		ColivingSpaceID: space,
		PrivateSpaceID:  room,
		VerifierID:      verifier,
		Lifecycle:       newLifecycle(now),
	}, nil
}

// VerificationUser is a staff check of an owner's identity document.
type VerificationUser struct {
	ID           id.VerificationID `json:"id"`
	SubjectID    id.UserID         `json:"userId"`
	VerifierID   *id.UserID        `json:"verifierId,omitempty"`
	DocumentType string            `json:"documentType"`
	DocumentURL  string            `json:"documentUrl"`
	Lifecycle
}

func NewVerificationUser(vID id.VerificationID, subject id.UserID, verifier *id.UserID, documentType, documentURL string, now time.Time) (*VerificationUser, error) {
	if subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification requires a subject user")
	}
	documentType = strings.TrimSpace(documentType)
	if documentType == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "documentType is required")
	}
	return &VerificationUser{
		ID:           vID,
		SubjectID:    subject,
		VerifierID:   verifier,
		DocumentType: documentType,
		DocumentURL:  strings.TrimSpace(documentURL),
		Lifecycle:    newLifecycle(now),
	}, nil
}
