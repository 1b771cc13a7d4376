package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "coliving/pkg/domain-errors"
)

// Typed identifiers. Each entity gets its own UUID-backed type so a reservation id
// can never be passed where a user id is expected.
type (
	UserID          uuid.UUID
	ColivingSpaceID uuid.UUID
	PrivateSpaceID  uuid.UUID
	ReservationID   uuid.UUID
	ReviewID        uuid.UUID
	VerificationID  uuid.UUID
	MessageID       uuid.UUID
	CityID          uuid.UUID
	AmenityID       uuid.UUID
)

// maxIDLength bounds the raw input accepted at trust boundaries.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" || strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return parsed, nil
}

// ParseUserID parses and validates a user identifier from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParseColivingSpaceID(s string) (ColivingSpaceID, error) {
	u, err := parseUUID("coliving space id", s)
	return ColivingSpaceID(u), err
}

func ParsePrivateSpaceID(s string) (PrivateSpaceID, error) {
	u, err := parseUUID("private space id", s)
	return PrivateSpaceID(u), err
}

func ParseReservationID(s string) (ReservationID, error) {
	u, err := parseUUID("reservation id", s)
	return ReservationID(u), err
}

func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID("review id", s)
	return ReviewID(u), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID("verification id", s)
	return VerificationID(u), err
}

func ParseMessageID(s string) (MessageID, error) {
	u, err := parseUUID("message id", s)
	return MessageID(u), err
}

func ParseCityID(s string) (CityID, error) {
	u, err := parseUUID("city id", s)
	return CityID(u), err
}

func ParseAmenityID(s string) (AmenityID, error) {
	u, err := parseUUID("amenity id", s)
	return AmenityID(u), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = UserID(u)
	return err
}

func (id ColivingSpaceID) String() string { return uuid.UUID(id).String() }
func (id ColivingSpaceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ColivingSpaceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *ColivingSpaceID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ColivingSpaceID(u)
	return err
}

func (id PrivateSpaceID) String() string { return uuid.UUID(id).String() }
func (id PrivateSpaceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PrivateSpaceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *PrivateSpaceID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = PrivateSpaceID(u)
	return err
}

func (id ReservationID) String() string { return uuid.UUID(id).String() }
func (id ReservationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ReservationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *ReservationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ReservationID(u)
	return err
}

func (id ReviewID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *ReviewID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ReviewID(u)
	return err
}

func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id VerificationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *VerificationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = VerificationID(u)
	return err
}

func (id MessageID) String() string { return uuid.UUID(id).String() }
func (id MessageID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *MessageID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = MessageID(u)
	return err
}

func (id CityID) String() string { return uuid.UUID(id).String() }
func (id CityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *CityID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = CityID(u)
	return err
}

func (id AmenityID) String() string { return uuid.UUID(id).String() }
func (id AmenityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AmenityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id *AmenityID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = AmenityID(u)
	return err
}
