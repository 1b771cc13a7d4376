// Package service orchestrates coliving spaces, private spaces and the reference
// catalog. Every method asks the policy engine before it touches state; lifecycle
// transitions run load-authorize-mutate-persist inside one transaction.
package service

import (
	"context"
	"errors"
	"log/slog"

	"coliving/internal/identity"
	"coliving/internal/listing/models"
	"coliving/internal/platform/metrics"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
)

// SpaceStore persists coliving spaces and their rooms. Lock* variants take a row
// lock for the rest of the transaction.
type SpaceStore interface {
	policy.ListingLookup
	CreateColivingSpace(ctx context.Context, space *models.ColivingSpace) error
	LockColivingSpace(ctx context.Context, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error)
	UpdateColivingSpace(ctx context.Context, space *models.ColivingSpace) error
	ListColivingSpaces(ctx context.Context, filter models.SpaceFilter, page paging.Page) ([]*models.ColivingSpace, int, error)
	ListColivingSpacesByAmenity(ctx context.Context, amenityID id.AmenityID) ([]*models.ColivingSpace, error)

	CreatePrivateSpace(ctx context.Context, room *models.PrivateSpace) error
	LockPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (*models.PrivateSpace, error)
	UpdatePrivateSpace(ctx context.Context, room *models.PrivateSpace) error
	DeletePrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) error
	ListPrivateSpaces(ctx context.Context, filter models.RoomFilter, page paging.Page) ([]*models.PrivateSpace, int, error)
}

// CatalogStore persists cities and amenities.
type CatalogStore interface {
	CreateCity(ctx context.Context, city *models.City) error
	FindCity(ctx context.Context, cityID id.CityID) (*models.City, error)
	UpdateCity(ctx context.Context, city *models.City) error
	DeleteCity(ctx context.Context, cityID id.CityID) error
	ListCities(ctx context.Context, page paging.Page) ([]*models.City, int, error)

	CreateAmenity(ctx context.Context, amenity *models.Amenity) error
	FindAmenity(ctx context.Context, amenityID id.AmenityID) (*models.Amenity, error)
	UpdateAmenity(ctx context.Context, amenity *models.Amenity) error
	DeleteAmenity(ctx context.Context, amenityID id.AmenityID) error
	ListAmenities(ctx context.Context, page paging.Page) ([]*models.Amenity, int, error)
	MissingAmenities(ctx context.Context, amenityIDs []id.AmenityID) ([]id.AmenityID, error)
}

// Authorizer is the slice of the policy engine the service needs.
type Authorizer interface {
	Require(ctx context.Context, actor identity.Actor, op policy.Operation, rt policy.ResourceType, resource any) error
}

// AuditPublisher records lifecycle events. Emit failing must fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ReservationCounter reports how many reservations reference a room. A room with
// reservations cannot be deleted.
type ReservationCounter interface {
	CountByPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (int, error)
}

// Service implements the listing use cases.
type Service struct {
	spaces       SpaceStore
	catalog      CatalogStore
	policy       Authorizer
	tx           tx.Runner
	reservations ReservationCounter
	auditor      AuditPublisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher sets the fail-closed publisher for publish/suspend events.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithTx replaces the default in-memory transaction runner.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithReservationCounter(c ReservationCounter) Option {
	return func(s *Service) {
		s.reservations = c
	}
}

// New constructs a Service.
func New(spaces SpaceStore, catalog CatalogStore, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		spaces:  spaces,
		catalog: catalog,
		policy:  authz,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewShardedRunner()
	}
	return s
}

// loadErr translates store errors on lookups: ErrNotFound becomes a 404 naming
// what, anything else is internal.
func loadErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

// writeErr translates store errors on writes.
func writeErr(err error, conflictMsg, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "referenced resource not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}

// validation turns model invariant violations into API validation errors.
func validation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return err
}
