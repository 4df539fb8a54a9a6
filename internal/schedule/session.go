// Package schedule implements the workshop scheduling core: the booking
// store, overlap and bounds validation, week navigation, drag placement and
// the facade that ties them to a persistence collaborator.
package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/glenxmac/CC-PipeLineTool/internal/events"
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/timegrid"
)

// Persistence is the external collaborator owning the durable bookings.
// It is the source of truth on load; the store mirrors it after each
// successful round trip.
type Persistence interface {
	ListBookings(ctx context.Context, from, to string) ([]model.Booking, error)
	CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error)
	UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// MechanicDirectory lists the bookable resources, read-only.
type MechanicDirectory interface {
	ListMechanics(ctx context.Context) ([]model.Mechanic, error)
}

// Session owns one scheduling context: the in-memory booking store, the
// mechanic list and the persistence collaborator. Commits follow
// confirm-then-mutate: the store changes only after the collaborator call
// succeeds, so a failed call can never leave it inconsistent with the
// server. A mutex serializes all operations, giving the single-logical-
// thread model the store assumes.
type Session struct {
	mu        sync.Mutex
	grid      *timegrid.Grid
	store     *Store
	persist   Persistence
	mechanics []model.Mechanic
	durations map[string]float64
	bus       *events.Bus
	logger    zerolog.Logger
}

// NewSession constructs a session with an empty store.
func NewSession(grid *timegrid.Grid, persist Persistence, logger zerolog.Logger) *Session {
	return &Session{
		grid:    grid,
		store:   NewStore(),
		persist: persist,
		logger:  logger,
	}
}

// UseBus attaches an event bus notified after successful commits and on
// rejected proposals.
func (s *Session) UseBus(bus *events.Bus) {
	s.bus = bus
}

// SetServiceDurations overrides the built-in service type default durations.
func (s *Session) SetServiceDurations(overrides map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = overrides
}

// Grid returns the session's time grid.
func (s *Session) Grid() *timegrid.Grid {
	return s.grid
}

// Load refreshes the store from the collaborator for the given window.
// A collaborator that returns no data yields an empty store, not an error.
func (s *Session) Load(ctx context.Context, w WeekWindow) error {
	from := w.Monday.Format(ISODate)
	to := w.Friday().Format(ISODate)

	bookings, err := s.persist.ListBookings(ctx, from, to)
	if err != nil {
		return fmt.Errorf("%w: list bookings: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	s.store.ReplaceAll(bookings)
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(bookings)).Str("from", from).Str("to", to).Msg("booking window loaded")
	return nil
}

// SetMechanics replaces the read-only mechanic list.
func (s *Session) SetMechanics(mechanics []model.Mechanic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mechanics = mechanics
}

// Mechanics returns the current mechanic list.
func (s *Session) Mechanics() []model.Mechanic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Mechanic, len(s.mechanics))
	copy(out, s.mechanics)
	return out
}

// Bookings returns a snapshot of the store.
func (s *Session) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// BookingsByDay returns the stored bookings on one date.
func (s *Session) BookingsByDay(date string) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ByDay(date)
}

// BookingsByMechanicAndDay returns one mechanic's bookings on one date.
func (s *Session) BookingsByMechanicAndDay(mechanic, date string) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ByMechanicAndDay(mechanic, date)
}

// Booking returns the stored booking with the given id.
func (s *Session) Booking(id string) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// ProposeCreate validates a new booking. The default duration for the
// service type is filled in when absent. The store is never touched.
func (s *Session) ProposeCreate(fields model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateCandidate(fields)
}

// ProposeEdit validates a full replacement of an existing booking.
func (s *Session) ProposeEdit(id string, fields model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Get(id); !ok {
		return model.Booking{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fields.ID = id
	return s.validateCandidate(fields)
}

// ProposeMove validates rescheduling an existing booking onto the drop
// target, using the drag session's preserved grab offset. The booking's own
// interval is excluded from the overlap check.
func (s *Session) ProposeMove(drag DragSession, dropSlot int, mechanic, date string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.store.Get(drag.BookingID)
	if !ok {
		s.reject(events.Event{Type: events.BookingRejected, BookingID: drag.BookingID}, ErrNotFound)
		return model.Booking{}, fmt.Errorf("%w: %s", ErrNotFound, drag.BookingID)
	}

	candidate, err := drag.PlaceCandidate(current, dropSlot, mechanic, date, s.grid)
	if err != nil {
		s.reject(events.Event{Type: events.BookingRejected, BookingID: drag.BookingID, Mechanic: mechanic, Date: date}, err)
		return model.Booking{}, err
	}
	return s.validateCandidate(candidate)
}

// validateCandidate runs field, bounds and overlap checks. Callers hold mu.
func (s *Session) validateCandidate(candidate model.Booking) (model.Booking, error) {
	if candidate.DurationHours <= 0 && candidate.ServiceType != "" {
		if hours, ok := s.durations[candidate.ServiceType]; ok && hours > 0 {
			candidate.DurationHours = hours
		} else {
			candidate.DurationHours = model.DefaultDurationHours(candidate.ServiceType)
		}
	}

	ev := events.Event{Type: events.BookingRejected, BookingID: candidate.ID, Mechanic: candidate.Mechanic, Date: candidate.Date}

	if missing := missingField(&candidate); missing != "" {
		err := fmt.Errorf("%w: %s", ErrMissingField, missing)
		s.reject(ev, err)
		return model.Booking{}, err
	}
	if !Fits(&candidate, s.grid) {
		err := fmt.Errorf("%w: %s for %.1fh", ErrOutOfHours, candidate.StartTime, candidate.DurationHours)
		s.reject(ev, err)
		return model.Booking{}, err
	}
	if Overlaps(&candidate, s.store.ByMechanicAndDay(candidate.Mechanic, candidate.Date), s.grid) {
		err := fmt.Errorf("%w: %s %s at %s", ErrOverlap, candidate.Mechanic, candidate.Date, candidate.StartTime)
		s.reject(ev, err)
		return model.Booking{}, err
	}
	return candidate, nil
}

func missingField(b *model.Booking) string {
	switch {
	case b.Date == "":
		return "date"
	case b.Mechanic == "":
		return "mechanic"
	case b.ServiceType == "":
		return "service_type"
	case b.StartTime == "":
		return "start_time"
	case b.DurationHours <= 0:
		return "duration_hours"
	}
	return ""
}

// CommitCreate persists a validated candidate and adds the server-assigned
// booking to the store. No optimistic insert happens on failure.
func (s *Session) CommitCreate(ctx context.Context, candidate model.Booking) (model.Booking, error) {
	created, err := s.persist.CreateBooking(ctx, candidate)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: create: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	s.store.Add(created)
	s.mu.Unlock()

	s.publish(events.Event{Type: events.BookingCreated, BookingID: created.ID, Mechanic: created.Mechanic, Date: created.Date})
	return created, nil
}

// CommitMove persists a validated move and replaces the stored booking. On
// failure the store keeps its pre-move state; re-rendering from it rolls
// back any visual preview.
func (s *Session) CommitMove(ctx context.Context, candidate model.Booking) (model.Booking, error) {
	updated, err := s.persist.UpdateBooking(ctx, candidate.ID, candidate)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: update %s: %v", ErrPersistence, candidate.ID, err)
	}

	s.mu.Lock()
	s.store.Replace(candidate.ID, updated)
	s.mu.Unlock()

	s.publish(events.Event{Type: events.BookingMoved, BookingID: candidate.ID, Mechanic: updated.Mechanic, Date: updated.Date})
	return updated, nil
}

// CommitEdit persists a validated full edit of an existing booking.
func (s *Session) CommitEdit(ctx context.Context, candidate model.Booking) (model.Booking, error) {
	updated, err := s.persist.UpdateBooking(ctx, candidate.ID, candidate)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: update %s: %v", ErrPersistence, candidate.ID, err)
	}

	s.mu.Lock()
	s.store.Replace(candidate.ID, updated)
	s.mu.Unlock()

	s.publish(events.Event{Type: events.BookingUpdated, BookingID: candidate.ID, Mechanic: updated.Mechanic, Date: updated.Date})
	return updated, nil
}

// CommitDelete removes a booking, collaborator first.
func (s *Session) CommitDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	stored, ok := s.store.Get(id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.persist.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrPersistence, id, err)
	}

	s.mu.Lock()
	s.store.Remove(id)
	s.mu.Unlock()

	s.publish(events.Event{Type: events.BookingDeleted, BookingID: id, Mechanic: stored.Mechanic, Date: stored.Date})
	return nil
}

func (s *Session) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func (s *Session) reject(ev events.Event, err error) {
	ev.Reason = RejectReason(err)
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
