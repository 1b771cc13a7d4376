package policy

import (
	"context"
	"errors"
	"fmt"

	listingModels "coliving/internal/listing/models"
	reservationModels "coliving/internal/reservation/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/sentinel"
)

// ErrResourceIncomplete reports a broken ownership chain: a reference that is
// unset or points at a row that does not exist. Well-formed data never hits it.
var ErrResourceIncomplete = errors.New("resource ownership chain is incomplete")

// ListingLookup is the read-only persistence port the resolver walks.
// Implementations return sentinel.ErrNotFound for unknown ids.
type ListingLookup interface {
	FindColivingSpace(ctx context.Context, spaceID id.ColivingSpaceID) (*listingModels.ColivingSpace, error)
	FindPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (*listingModels.PrivateSpace, error)
}

// Resolver walks PrivateSpace -> ColivingSpace -> owner. It never writes.
type Resolver struct {
	listings ListingLookup
}

func NewResolver(listings ListingLookup) *Resolver {
	return &Resolver{listings: listings}
}

// ControllingOwner returns the owner at the root of resource's ownership chain.
// Supported resources are *ColivingSpace, *PrivateSpace and *Reservation.
func (r *Resolver) ControllingOwner(ctx context.Context, resource any) (id.UserID, error) {
	switch res := resource.(type) {
	case *listingModels.ColivingSpace:
		if res == nil || res.OwnerID.IsNil() {
			return id.UserID{}, fmt.Errorf("coliving space without owner: %w", ErrResourceIncomplete)
		}
		return res.OwnerID, nil
	case *listingModels.PrivateSpace:
		if res == nil || res.ColivingSpaceID.IsNil() {
			return id.UserID{}, fmt.Errorf("private space without coliving space: %w", ErrResourceIncomplete)
		}
		parent, err := r.parent(ctx, res)
		if err != nil {
			return id.UserID{}, err
		}
		return r.ControllingOwner(ctx, parent)
	case *reservationModels.Reservation:
		if res == nil || res.PrivateSpaceID.IsNil() {
			return id.UserID{}, fmt.Errorf("reservation without private space: %w", ErrResourceIncomplete)
		}
		room, err := r.listings.FindPrivateSpace(ctx, res.PrivateSpaceID)
		if err != nil {
			return id.UserID{}, r.translate(err, "private space "+res.PrivateSpaceID.String())
		}
		return r.ControllingOwner(ctx, room)
	default:
		return id.UserID{}, fmt.Errorf("no ownership chain for %T: %w", resource, ErrResourceIncomplete)
	}
}

// ParentSpace loads the coliving space a private space belongs to.
func (r *Resolver) ParentSpace(ctx context.Context, room *listingModels.PrivateSpace) (*listingModels.ColivingSpace, error) {
	if room == nil || room.ColivingSpaceID.IsNil() {
		return nil, fmt.Errorf("private space without coliving space: %w", ErrResourceIncomplete)
	}
	return r.parent(ctx, room)
}

func (r *Resolver) parent(ctx context.Context, room *listingModels.PrivateSpace) (*listingModels.ColivingSpace, error) {
	parent, err := r.listings.FindColivingSpace(ctx, room.ColivingSpaceID)
	if err != nil {
		return nil, r.translate(err, "coliving space "+room.ColivingSpaceID.String())
	}
	return parent, nil
}

func (r *Resolver) translate(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("dangling reference to %s: %w", what, ErrResourceIncomplete)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// RequestingClient returns the client of a reservation. Other resources have none.
func RequestingClient(resource any) (id.UserID, bool) {
	res, ok := resource.(*reservationModels.Reservation)
	if !ok || res == nil || res.ClientID.IsNil() {
		return id.UserID{}, false
	}
	return res.ClientID, true
}
