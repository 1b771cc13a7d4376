package policy

import (
	"fmt"

	accountModels "coliving/internal/account/models"
	"coliving/internal/identity"
	listingModels "coliving/internal/listing/models"
	messagingModels "coliving/internal/messaging/models"
)

// defaultRules is the authorization contract. Within a rule, staff is checked
// first, then ownership, then the client relationship.
func defaultRules() map[ruleKey]rule {
	rules := map[ruleKey]rule{
		// Listings
		{ResourceColivingSpace, OpList}:    public,
		{ResourceColivingSpace, OpRead}:    public,
		{ResourceColivingSpace, OpCreate}:  hasRole(identity.RoleOwner, reasonOwnerRequired),
		{ResourceColivingSpace, OpUpdate}:  ownerEditsDraft,
		{ResourceColivingSpace, OpPublish}: staffPublishes,
		{ResourceColivingSpace, OpSuspend}: staffSuspends,

		{ResourcePrivateSpace, OpList}:    public,
		{ResourcePrivateSpace, OpRead}:    public,
		{ResourcePrivateSpace, OpCreate}:  hasRole(identity.RoleOwner, reasonOwnerRequired),
		{ResourcePrivateSpace, OpUpdate}:  ownerEditsDraft,
		{ResourcePrivateSpace, OpPublish}: staffPublishesRoom,
		{ResourcePrivateSpace, OpSuspend}: staffSuspends,
		{ResourcePrivateSpace, OpDelete}:  hasRole(identity.RoleAdmin, reasonAdminRequired),

		// Reservations. LIST is allowed for any client; the rows are narrowed by
		// ReservationScope.
		{ResourceReservation, OpList}:   hasRole(identity.RoleClient, reasonAuthRequired),
		{ResourceReservation, OpRead}:   reservationParty,
		{ResourceReservation, OpCreate}: hasRole(identity.RoleClient, reasonAuthRequired),
		{ResourceReservation, OpUpdate}: reservationController,
		{ResourceReservation, OpDelete}: staff,

		{ResourceReview, OpList}:   public,
		{ResourceReview, OpRead}:   public,
		{ResourceReview, OpCreate}: hasRole(identity.RoleClient, reasonAuthRequired),
		{ResourceReview, OpDelete}: staff,

		// Accounts
		{ResourceUser, OpList}:   staff,
		{ResourceUser, OpRead}:   staffOrSelf,
		{ResourceUser, OpCreate}: public,
		{ResourceUser, OpUpdate}: adminOrSelf,
		{ResourceUser, OpDelete}: hasRole(identity.RoleAdmin, reasonAdminRequired),

		// Messages. LIST rows are narrowed by MessageScope.
		{ResourceMessage, OpList}:   hasRole(identity.RoleClient, reasonAuthRequired),
		{ResourceMessage, OpRead}:   messageParticipant,
		{ResourceMessage, OpCreate}: hasRole(identity.RoleClient, reasonAuthRequired),
		{ResourceMessage, OpUpdate}: messageReceiver,

		{ResourceAddress, OpList}: public,
		{ResourceAddress, OpRead}: public,
		{ResourcePhoto, OpList}:   public,
		{ResourcePhoto, OpRead}:   public,
	}

	for _, rt := range []ResourceType{ResourceVerificationSpace, ResourceVerificationUser} {
		for _, op := range []Operation{OpList, OpRead, OpCreate, OpUpdate} {
			rules[ruleKey{rt, op}] = staff
		}
	}
	for _, rt := range []ResourceType{ResourceColivingCity, ResourceAmenity} {
		rules[ruleKey{rt, OpList}] = public
		rules[ruleKey{rt, OpRead}] = public
		for _, op := range []Operation{OpCreate, OpUpdate, OpDelete} {
			rules[ruleKey{rt, op}] = staff
		}
	}
	return rules
}

func public(identity.Actor, *Instance) (Decision, error) {
	return Allow(), nil
}

func staff(a identity.Actor, _ *Instance) (Decision, error) {
	if identity.IsStaff(a) {
		return Allow(), nil
	}
	return Deny(reasonStaffRequired), nil
}

func hasRole(role identity.Role, reason string) rule {
	return func(a identity.Actor, _ *Instance) (Decision, error) {
		if identity.HasRole(a, role) {
			return Allow(), nil
		}
		return Deny(reason), nil
	}
}

func listingActive(in *Instance) (bool, error) {
	switch r := in.Resource.(type) {
	case *listingModels.ColivingSpace:
		if r != nil {
			return r.IsActive, nil
		}
	case *listingModels.PrivateSpace:
		if r != nil {
			return r.IsActive, nil
		}
	}
	return false, fmt.Errorf("listing rule on %T: %w", in.Resource, errNoInstance)
}

// ownerEditsDraft lets the controlling owner edit a listing until staff publishes it.
func ownerEditsDraft(a identity.Actor, in *Instance) (Decision, error) {
	if !identity.HasRole(a, identity.RoleOwner) {
		return Deny(reasonOwnerRequired), nil
	}
	active, err := listingActive(in)
	if err != nil {
		return Decision{}, err
	}
	owns, err := in.IsOwnedBy(a)
	if err != nil {
		return Decision{}, err
	}
	if !owns {
		return Deny(reasonNotOwner), nil
	}
	if active {
		return Deny(reasonPublished), nil
	}
	return Allow(), nil
}

func staffPublishes(a identity.Actor, in *Instance) (Decision, error) {
	if !identity.IsStaff(a) {
		return Deny(reasonStaffRequired), nil
	}
	active, err := listingActive(in)
	if err != nil {
		return Decision{}, err
	}
	if active {
		return DenyState(reasonAlreadyPublished), nil
	}
	return Allow(), nil
}

// staffPublishesRoom adds the parent check: a room cannot go live inside an
// unpublished space.
func staffPublishesRoom(a identity.Actor, in *Instance) (Decision, error) {
	d, err := staffPublishes(a, in)
	if err != nil || !d.Allowed {
		return d, err
	}
	parent, err := in.ParentSpace()
	if err != nil {
		return Decision{}, err
	}
	if !parent.IsActive {
		return Deny(reasonParentUnpublished), nil
	}
	return Allow(), nil
}

func staffSuspends(a identity.Actor, in *Instance) (Decision, error) {
	if !identity.IsStaff(a) {
		return Deny(reasonStaffRequired), nil
	}
	active, err := listingActive(in)
	if err != nil {
		return Decision{}, err
	}
	if !active {
		return DenyState(reasonAlreadySuspended), nil
	}
	return Allow(), nil
}

// reservationParty allows staff, the space owner and the reservation's client.
func reservationParty(a identity.Actor, in *Instance) (Decision, error) {
	if identity.IsStaff(a) {
		return Allow(), nil
	}
	if !in.Present() {
		return Decision{}, errNoInstance
	}
	if !a.Authenticated {
		return Deny(reasonAuthRequired), nil
	}
	owns, err := in.IsOwnedBy(a)
	if err != nil {
		return Decision{}, err
	}
	if owns {
		return Allow(), nil
	}
	if client, ok := RequestingClient(in.Resource); ok && a.Is(client) {
		return Allow(), nil
	}
	return Deny(reasonNotParticipant), nil
}

// reservationController allows staff and the owner of the reserved space to
// change a reservation's status. The client cannot.
func reservationController(a identity.Actor, in *Instance) (Decision, error) {
	if identity.IsStaff(a) {
		return Allow(), nil
	}
	if !identity.HasRole(a, identity.RoleOwner) {
		return Deny(reasonOwnerRequired), nil
	}
	if !in.Present() {
		return Decision{}, errNoInstance
	}
	owns, err := in.IsOwnedBy(a)
	if err != nil {
		return Decision{}, err
	}
	if !owns {
		return Deny(reasonNotOwner), nil
	}
	return Allow(), nil
}

func userOf(in *Instance) (*accountModels.User, error) {
	u, ok := in.Resource.(*accountModels.User)
	if !ok || u == nil {
		return nil, fmt.Errorf("user rule on %T: %w", in.Resource, errNoInstance)
	}
	return u, nil
}

func staffOrSelf(a identity.Actor, in *Instance) (Decision, error) {
	if identity.IsStaff(a) {
		return Allow(), nil
	}
	u, err := userOf(in)
	if err != nil {
		return Decision{}, err
	}
	if a.Is(u.ID) {
		return Allow(), nil
	}
	return Deny(reasonNotSelf), nil
}

func adminOrSelf(a identity.Actor, in *Instance) (Decision, error) {
	if identity.HasRole(a, identity.RoleAdmin) {
		return Allow(), nil
	}
	u, err := userOf(in)
	if err != nil {
		return Decision{}, err
	}
	if a.Is(u.ID) {
		return Allow(), nil
	}
	return Deny(reasonNotSelf), nil
}

func messageOf(in *Instance) (*messagingModels.Message, error) {
	m, ok := in.Resource.(*messagingModels.Message)
	if !ok || m == nil {
		return nil, fmt.Errorf("message rule on %T: %w", in.Resource, errNoInstance)
	}
	return m, nil
}

func messageParticipant(a identity.Actor, in *Instance) (Decision, error) {
	if identity.IsStaff(a) {
		return Allow(), nil
	}
	m, err := messageOf(in)
	if err != nil {
		return Decision{}, err
	}
	if a.Is(m.SenderID) || a.Is(m.ReceiverID) {
		return Allow(), nil
	}
	return Deny(reasonNotParticipant), nil
}

func messageReceiver(a identity.Actor, in *Instance) (Decision, error) {
	m, err := messageOf(in)
	if err != nil {
		return Decision{}, err
	}
	if a.Is(m.ReceiverID) {
		return Allow(), nil
	}
	return Deny(reasonNotReceiver), nil
}
