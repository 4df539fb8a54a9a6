package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// FailoverPersistence reads from a primary collaborator and falls back to a
// secondary when the primary is unreachable, retrying the primary after a
// recovery interval. Writes always go to the primary: a booking created only
// in the fallback would get an id the primary never learns about.
type FailoverPersistence struct {
	primary  Persistence
	fallback Persistence
	logger   *zerolog.Logger

	isDown    atomic.Bool
	lastCheck time.Time
	interval  time.Duration
}

// NewFailoverPersistence wraps primary with read failover to fallback.
func NewFailoverPersistence(primary, fallback Persistence, logger *zerolog.Logger) *FailoverPersistence {
	return &FailoverPersistence{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		interval: time.Minute,
	}
}

func (f *FailoverPersistence) shouldTryPrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	if time.Since(f.lastCheck) > f.interval {
		f.lastCheck = time.Now()
		return true
	}
	return false
}

func (f *FailoverPersistence) ListBookings(ctx context.Context, from, to string) ([]model.Booking, error) {
	if f.shouldTryPrimary() {
		bookings, err := f.primary.ListBookings(ctx, from, to)
		if err == nil {
			if f.isDown.Swap(false) {
				f.logger.Info().Msg("primary booking store recovered")
			}
			return bookings, nil
		}
		if !f.isDown.Swap(true) {
			f.lastCheck = time.Now()
		}
		f.logger.Warn().Err(err).Msg("primary booking store unavailable, reading from fallback")
	}
	return f.fallback.ListBookings(ctx, from, to)
}

func (f *FailoverPersistence) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	return f.primary.CreateBooking(ctx, b)
}

func (f *FailoverPersistence) UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, error) {
	return f.primary.UpdateBooking(ctx, id, b)
}

func (f *FailoverPersistence) DeleteBooking(ctx context.Context, id string) error {
	return f.primary.DeleteBooking(ctx, id)
}
