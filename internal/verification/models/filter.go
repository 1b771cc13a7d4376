package models

import (
	"strings"

	id "coliving/pkg/domain"
)

// SpaceFilter narrows listing verifications.
type SpaceFilter struct {
	Status          Status
	ColivingSpaceID *id.ColivingSpaceID
	PrivateSpaceID  *id.PrivateSpaceID
}

func (f SpaceFilter) Matches(v *VerificationSpace) bool {
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.ColivingSpaceID != nil && v.ColivingSpaceID != *f.ColivingSpaceID {
		return false
	}
	if f.PrivateSpaceID != nil && (v.PrivateSpaceID == nil || *v.PrivateSpaceID != *f.PrivateSpaceID) {
		return false
	}
	return true
}

// UserFilter narrows identity verifications. DocumentType matches by
// case-insensitive substring.
type UserFilter struct {
	Status       Status
	UserID       *id.UserID
	DocumentType string
}

func (f UserFilter) Matches(v *VerificationUser) bool {
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.UserID != nil && v.SubjectID != *f.UserID {
		return false
	}
	if f.DocumentType != "" && !strings.Contains(strings.ToLower(v.DocumentType), strings.ToLower(f.DocumentType)) {
		return false
	}
	return true
}

func (l Lifecycle) clone() Lifecycle {
	c := l
	if l.Notes != nil {
		n := *l.Notes
		c.Notes = &n
	}
	if l.VerifiedAt != nil {
		t := *l.VerifiedAt
		c.VerifiedAt = &t
	}
	return c
}

func (v *VerificationSpace) Clone() *VerificationSpace {
	c := *v
	c.Lifecycle = v.Lifecycle.clone()
	if v.PrivateSpaceID != nil {
		room := *v.PrivateSpaceID
		c.PrivateSpaceID = &room
	}
	return &c
}

func (v *VerificationUser) Clone() *VerificationUser {
	c := *v
	c.Lifecycle = v.Lifecycle.clone()
	if v.VerifierID != nil {
		verifier := *v.VerifierID
		c.VerifierID = &verifier
	}
	return &c
}
