package schedule

import (
	"sort"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// Store is the in-memory authoritative set of bookings for the loaded
// window(s). It is a dumb cache mirroring the persistence collaborator:
// callers validate before mutating, and the synchronization discipline is a
// ReplaceAll after every successful round trip.
//
// Store is not safe for concurrent use; the Session serializes access.
type Store struct {
	byID map[string]model.Booking
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]model.Booking)}
}

// Add inserts a booking keyed by its id.
func (s *Store) Add(b model.Booking) {
	s.byID[b.ID] = b
}

// Replace swaps the booking stored under id. The replacement keeps that id
// even if the value carries a different one.
func (s *Store) Replace(id string, b model.Booking) {
	b.ID = id
	s.byID[id] = b
}

// Remove deletes the booking with the given id, if present.
func (s *Store) Remove(id string) {
	delete(s.byID, id)
}

// Get returns the booking with the given id.
func (s *Store) Get(id string) (model.Booking, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// Len returns the number of bookings held.
func (s *Store) Len() int {
	return len(s.byID)
}

// All returns every booking, ordered by id for stable output.
func (s *Store) All() []model.Booking {
	out := make([]model.Booking, 0, len(s.byID))
	for _, b := range s.byID {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByDay returns all bookings on the given ISO date.
func (s *Store) ByDay(date string) []model.Booking {
	var out []model.Booking
	for _, b := range s.byID {
		if b.Date == date {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByMechanicAndDay returns the bookings occupying one mechanic on one date.
func (s *Store) ByMechanicAndDay(mechanic, date string) []model.Booking {
	var out []model.Booking
	for _, b := range s.byID {
		if b.Mechanic == mechanic && b.Date == date {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReplaceAll rebuilds the store from a fresh collaborator snapshot.
func (s *Store) ReplaceAll(bookings []model.Booking) {
	s.byID = make(map[string]model.Booking, len(bookings))
	for _, b := range bookings {
		s.byID[b.ID] = b
	}
}
