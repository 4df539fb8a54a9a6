package schedule

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glenxmac/CC-PipeLineTool/internal/events"
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/timegrid"
)

type mockPersistence struct {
	mock.Mock
}

func (m *mockPersistence) ListBookings(ctx context.Context, from, to string) ([]model.Booking, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *mockPersistence) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockPersistence) UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, error) {
	args := m.Called(ctx, id, b)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockPersistence) DeleteBooking(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newTestSession(persist Persistence) *Session {
	logger := zerolog.New(io.Discard)
	return NewSession(timegrid.Default(), persist, logger)
}

func TestLoadReplacesStore(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)

	window := WindowFor(date("2025-11-19"))
	listed := []model.Booking{booking("a", "Ana", "2025-11-17", "09:00", 2)}
	persist.On("ListBookings", mock.Anything, "2025-11-17", "2025-11-21").Return(listed, nil)

	require.NoError(t, s.Load(context.Background(), window))
	assert.Len(t, s.Bookings(), 1)

	// Loading again yields the same state.
	require.NoError(t, s.Load(context.Background(), window))
	assert.Equal(t, listed, s.Bookings())
	persist.AssertExpectations(t)
}

func TestLoadFailureLeavesStore(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	s.store.Add(booking("a", "Ana", "2025-11-17", "09:00", 2))

	persist.On("ListBookings", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	err := s.Load(context.Background(), WindowFor(date("2025-11-19")))
	require.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, s.Bookings(), 1, "store must keep its pre-load state")
}

func TestProposeCreateFillsDefaultDuration(t *testing.T) {
	s := newTestSession(&mockPersistence{})

	cand, err := s.ProposeCreate(model.Booking{
		Date:        "2025-11-17",
		Mechanic:    "Ana",
		ServiceType: model.ServiceMajor,
		StartTime:   "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, cand.DurationHours)
}

func TestProposeCreateRejections(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	s.store.Add(booking("x", "Ana", "2025-11-17", "09:00", 2)) // slots [2,6)

	tests := []struct {
		name   string
		fields model.Booking
		want   error
	}{
		{
			name:   "missing mechanic",
			fields: model.Booking{Date: "2025-11-17", ServiceType: model.ServiceExpert, StartTime: "09:00"},
			want:   ErrMissingField,
		},
		{
			name:   "missing service type",
			fields: model.Booking{Date: "2025-11-17", Mechanic: "Ana", StartTime: "09:00"},
			want:   ErrMissingField,
		},
		{
			name:   "out of hours",
			fields: booking("", "Ana", "2025-11-17", "17:30", 2),
			want:   ErrOutOfHours,
		},
		{
			name:   "overlap with existing job",
			fields: booking("", "Ana", "2025-11-17", "10:00", 1),
			want:   ErrOverlap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Bookings()
			_, err := s.ProposeCreate(tt.fields)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, s.Bookings(), "rejection must leave the store unchanged")
		})
	}
}

func TestCommitCreateAddsServerBooking(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)

	cand := booking("", "Ana", "2025-11-17", "09:00", 2)
	created := cand
	created.ID = "srv-1"
	persist.On("CreateBooking", mock.Anything, cand).Return(created, nil)

	got, err := s.CommitCreate(context.Background(), cand)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ID)

	stored, ok := s.Booking("srv-1")
	require.True(t, ok)
	assert.Equal(t, created, stored)
}

func TestCommitCreatePersistenceFailure(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)

	cand := booking("", "Ana", "2025-11-17", "09:00", 2)
	persist.On("CreateBooking", mock.Anything, cand).Return(model.Booking{}, errors.New("503"))

	_, err := s.CommitCreate(context.Background(), cand)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, s.Bookings(), "no optimistic insert on failure")
}

func TestProposeMove(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	x := booking("x", "Ana", "2025-11-17", "09:00", 2) // span 4
	s.store.Add(x)

	drag, err := BeginDrag(&x, 0.75, s.Grid()) // offset 2
	require.NoError(t, err)

	cand, err := s.ProposeMove(drag, 10, "Ana", "2025-11-18")
	require.NoError(t, err)
	assert.Equal(t, "12:00", cand.StartTime) // slot 10-2=8
	assert.Equal(t, "2025-11-18", cand.Date)

	// The booking does not conflict with itself when kept in place.
	cand, err = s.ProposeMove(drag, 4, "Ana", "2025-11-17")
	require.NoError(t, err)
	assert.Equal(t, "09:00", cand.StartTime)
}

func TestProposeMoveRejections(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	x := booking("x", "Ana", "2025-11-17", "09:00", 2)
	y := booking("y", "Ana", "2025-11-17", "13:00", 2) // slots [10,14)
	s.store.Add(x)
	s.store.Add(y)

	drag, err := BeginDrag(&x, 0, s.Grid())
	require.NoError(t, err)

	_, err = s.ProposeMove(DragSession{BookingID: "ghost", Span: 2}, 4, "Ana", "2025-11-17")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ProposeMove(drag, 11, "Ana", "2025-11-17") // lands inside y
	assert.ErrorIs(t, err, ErrOverlap)

	_, err = s.ProposeMove(drag, 19, "Ana", "2025-11-17") // span 4 from 17:30
	assert.ErrorIs(t, err, ErrOutOfHours)
}

func TestCommitMoveRollbackOnFailure(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	x := booking("x", "Ana", "2025-11-17", "09:00", 2)
	s.store.Add(x)

	moved := x
	moved.StartTime = "13:00"
	persist.On("UpdateBooking", mock.Anything, "x", moved).Return(model.Booking{}, errors.New("timeout"))

	_, err := s.CommitMove(context.Background(), moved)
	require.ErrorIs(t, err, ErrPersistence)

	stored, _ := s.Booking("x")
	assert.Equal(t, "09:00", stored.StartTime, "store must keep pre-move state")
}

func TestCommitDelete(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	s.store.Add(booking("x", "Ana", "2025-11-17", "09:00", 2))

	persist.On("DeleteBooking", mock.Anything, "x").Return(nil)
	require.NoError(t, s.CommitDelete(context.Background(), "x"))
	assert.Empty(t, s.Bookings())

	err := s.CommitDelete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNoDoubleBookingAfterCommits(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)

	// Simulate confirmed commits: propose, then add with a server id.
	id := 0
	commit := func(start string, hours float64) error {
		cand, err := s.ProposeCreate(booking("", "Ana", "2025-11-17", start, hours))
		if err != nil {
			return err
		}
		id++
		created := cand
		created.ID = string(rune('a' + id))
		s.mu.Lock()
		s.store.Add(created)
		s.mu.Unlock()
		return nil
	}

	require.NoError(t, commit("08:00", 2))
	require.NoError(t, commit("10:00", 1))
	assert.ErrorIs(t, commit("09:00", 2), ErrOverlap)
	assert.ErrorIs(t, commit("10:30", 0.5), ErrOverlap)
	require.NoError(t, commit("11:00", 1))

	// Committed state: pairwise disjoint intervals per mechanic/day.
	grid := s.Grid()
	all := s.Bookings()
	for i := range all {
		others := append([]model.Booking(nil), all[:i]...)
		others = append(others, all[i+1:]...)
		assert.False(t, Overlaps(&all[i], others, grid), "booking %s overlaps", all[i].ID)
	}
}

func TestRejectionEventsPublished(t *testing.T) {
	persist := &mockPersistence{}
	s := newTestSession(persist)
	bus := events.NewBus()
	var seen []events.Event
	bus.Subscribe(events.BookingRejected, func(ev events.Event) { seen = append(seen, ev) })
	s.UseBus(bus)

	_, err := s.ProposeCreate(model.Booking{Date: "2025-11-17"})
	require.ErrorIs(t, err, ErrMissingField)
	require.Len(t, seen, 1)
	assert.Equal(t, "missing_field", seen[0].Reason)
}
