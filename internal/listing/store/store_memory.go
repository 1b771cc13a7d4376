// Package store persists coliving spaces, private spaces and the city/amenity
// catalog. Every store returns sentinel.ErrNotFound for unknown ids.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"coliving/internal/listing/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

// InMemory keeps listings in process memory. Reads and writes hand out copies.
// Lock* behave like Find*; serialization comes from the in-memory tx runner.
type InMemory struct {
	mu        sync.RWMutex
	spaces    map[id.ColivingSpaceID]*models.ColivingSpace
	rooms     map[id.PrivateSpaceID]*models.PrivateSpace
	cities    map[id.CityID]*models.City
	amenities map[id.AmenityID]*models.Amenity
}

func NewInMemory() *InMemory {
	return &InMemory{
		spaces:    make(map[id.ColivingSpaceID]*models.ColivingSpace),
		rooms:     make(map[id.PrivateSpaceID]*models.PrivateSpace),
		cities:    make(map[id.CityID]*models.City),
		amenities: make(map[id.AmenityID]*models.Amenity),
	}
}

// -----------------------------------------------------------------------------
// Coliving spaces
// -----------------------------------------------------------------------------

func (s *InMemory) CreateColivingSpace(_ context.Context, space *models.ColivingSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[space.ID]; ok {
		return sentinel.ErrConflict
	}
	s.spaces[space.ID] = space.Clone()
	return nil
}

func (s *InMemory) FindColivingSpace(_ context.Context, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	space, ok := s.spaces[spaceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return space.Clone(), nil
}

func (s *InMemory) LockColivingSpace(ctx context.Context, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error) {
	return s.FindColivingSpace(ctx, spaceID)
}

func (s *InMemory) UpdateColivingSpace(_ context.Context, space *models.ColivingSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[space.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.spaces[space.ID] = space.Clone()
	return nil
}

func (s *InMemory) ListColivingSpaces(_ context.Context, filter models.SpaceFilter, page paging.Page) ([]*models.ColivingSpace, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.ColivingSpace, 0, len(s.spaces))
	for _, space := range s.spaces {
		if filter.Matches(space) {
			matched = append(matched, space)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return createdBefore(matched[i].CreatedAt.UnixNano(), matched[j].CreatedAt.UnixNano(), matched[i].ID.String(), matched[j].ID.String())
	})
	lo, hi := page.Window(len(matched))
	out := make([]*models.ColivingSpace, 0, hi-lo)
	for _, space := range matched[lo:hi] {
		out = append(out, space.Clone())
	}
	return out, len(matched), nil
}

// ListColivingSpacesByAmenity is the inverse of ColivingSpace.AmenityIDs.
func (s *InMemory) ListColivingSpacesByAmenity(_ context.Context, amenityID id.AmenityID) ([]*models.ColivingSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ColivingSpace
	for _, space := range s.spaces {
		for _, a := range space.AmenityIDs {
			if a == amenityID {
				out = append(out, space.Clone())
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// -----------------------------------------------------------------------------
// Private spaces
// -----------------------------------------------------------------------------

func (s *InMemory) CreatePrivateSpace(_ context.Context, room *models.PrivateSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[room.ColivingSpaceID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.rooms[room.ID]; ok {
		return sentinel.ErrConflict
	}
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *InMemory) FindPrivateSpace(_ context.Context, roomID id.PrivateSpaceID) (*models.PrivateSpace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return room.Clone(), nil
}

func (s *InMemory) LockPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (*models.PrivateSpace, error) {
	return s.FindPrivateSpace(ctx, roomID)
}

func (s *InMemory) UpdatePrivateSpace(_ context.Context, room *models.PrivateSpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *InMemory) DeletePrivateSpace(_ context.Context, roomID id.PrivateSpaceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rooms, roomID)
	return nil
}

func (s *InMemory) ListPrivateSpaces(_ context.Context, filter models.RoomFilter, page paging.Page) ([]*models.PrivateSpace, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*models.PrivateSpace, 0, len(s.rooms))
	for _, room := range s.rooms {
		if filter.Matches(room) {
			matched = append(matched, room)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return createdBefore(matched[i].CreatedAt.UnixNano(), matched[j].CreatedAt.UnixNano(), matched[i].ID.String(), matched[j].ID.String())
	})
	lo, hi := page.Window(len(matched))
	out := make([]*models.PrivateSpace, 0, hi-lo)
	for _, room := range matched[lo:hi] {
		out = append(out, room.Clone())
	}
	return out, len(matched), nil
}

// -----------------------------------------------------------------------------
// Catalog
// -----------------------------------------------------------------------------

// CreateCity enforces case-insensitive name uniqueness.
func (s *InMemory) CreateCity(_ context.Context, city *models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cityNameTaken(city.Name, city.ID) {
		return sentinel.ErrConflict
	}
	c := *city
	s.cities[city.ID] = &c
	return nil
}

func (s *InMemory) cityNameTaken(name string, except id.CityID) bool {
	for _, c := range s.cities {
		if c.ID != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s *InMemory) FindCity(_ context.Context, cityID id.CityID) (*models.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cities[cityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *InMemory) UpdateCity(_ context.Context, city *models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cities[city.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.cityNameTaken(city.Name, city.ID) {
		return sentinel.ErrConflict
	}
	c := *city
	s.cities[city.ID] = &c
	return nil
}

// DeleteCity detaches the city from every space that referenced it.
func (s *InMemory) DeleteCity(_ context.Context, cityID id.CityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cities[cityID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cities, cityID)
	for _, space := range s.spaces {
		if space.CityID != nil && *space.CityID == cityID {
			space.CityID = nil
		}
	}
	return nil
}

func (s *InMemory) ListCities(_ context.Context, page paging.Page) ([]*models.City, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*models.City, 0, len(s.cities))
	for _, c := range s.cities {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	lo, hi := page.Window(len(all))
	out := make([]*models.City, 0, hi-lo)
	for _, c := range all[lo:hi] {
		cp := *c
		out = append(out, &cp)
	}
	return out, len(all), nil
}

func (s *InMemory) CreateAmenity(_ context.Context, amenity *models.Amenity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.amenities[amenity.ID]; ok {
		return sentinel.ErrConflict
	}
	a := *amenity
	s.amenities[amenity.ID] = &a
	return nil
}

func (s *InMemory) FindAmenity(_ context.Context, amenityID id.AmenityID) (*models.Amenity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.amenities[amenityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *InMemory) UpdateAmenity(_ context.Context, amenity *models.Amenity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.amenities[amenity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	a := *amenity
	s.amenities[amenity.ID] = &a
	return nil
}

// DeleteAmenity also removes the amenity from every listing that referenced it.
func (s *InMemory) DeleteAmenity(_ context.Context, amenityID id.AmenityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.amenities[amenityID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.amenities, amenityID)
	for _, space := range s.spaces {
		space.AmenityIDs = without(space.AmenityIDs, amenityID)
	}
	for _, room := range s.rooms {
		room.AmenityIDs = without(room.AmenityIDs, amenityID)
	}
	return nil
}

func (s *InMemory) ListAmenities(_ context.Context, page paging.Page) ([]*models.Amenity, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*models.Amenity, 0, len(s.amenities))
	for _, a := range s.amenities {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	lo, hi := page.Window(len(all))
	out := make([]*models.Amenity, 0, hi-lo)
	for _, a := range all[lo:hi] {
		cp := *a
		out = append(out, &cp)
	}
	return out, len(all), nil
}

// MissingAmenities returns the ids among amenityIDs that do not exist.
func (s *InMemory) MissingAmenities(_ context.Context, amenityIDs []id.AmenityID) ([]id.AmenityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var missing []id.AmenityID
	for _, a := range amenityIDs {
		if _, ok := s.amenities[a]; !ok {
			missing = append(missing, a)
		}
	}
	return missing, nil
}

func without(ids []id.AmenityID, drop id.AmenityID) []id.AmenityID {
	out := ids[:0]
	for _, a := range ids {
		if a != drop {
			out = append(out, a)
		}
	}
	return out
}

func createdBefore(a, b int64, aID, bID string) bool {
	if a != b {
		return a < b
	}
	return aID < bID
}

// ReferencesUser reports whether the user owns any coliving space.
func (s *InMemory) ReferencesUser(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, space := range s.spaces {
		if space.OwnerID == userID {
			return true, nil
		}
	}
	return false, nil
}
