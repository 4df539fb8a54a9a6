package schedule

import (
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/timegrid"
)

// Interval math is done in slot units rather than clock strings so that
// comparisons never go through floats or string parsing.

// slotInterval resolves a booking to its half-open [start, end) slot
// interval. ok is false when the booking is missing scheduling fields or its
// start time does not land on the grid.
func slotInterval(b *model.Booking, grid *timegrid.Grid) (start, end int, ok bool) {
	if !b.Schedulable() {
		return 0, 0, false
	}
	start, ok = grid.ClockToSlot(b.StartTime)
	if !ok {
		return 0, 0, false
	}
	return start, start + grid.SpanForDuration(b.DurationHours), true
}

// Fits reports whether the booking's interval lies inside the working day.
// A booking whose start does not resolve on the grid does not fit.
func Fits(b *model.Booking, grid *timegrid.Grid) bool {
	start, end, ok := slotInterval(b, grid)
	if !ok {
		return false
	}
	return start >= 0 && end <= grid.SlotCount()
}

// Overlaps reports whether the candidate conflicts with any existing booking
// for the same mechanic and date. The candidate's own id is skipped so that
// a move does not collide with itself. Bookings missing start or duration
// are inert and never conflict.
func Overlaps(candidate *model.Booking, existing []model.Booking, grid *timegrid.Grid) bool {
	candStart, candEnd, ok := slotInterval(candidate, grid)
	if !ok {
		return false
	}

	for i := range existing {
		b := &existing[i]
		if b.ID == candidate.ID {
			continue
		}
		if b.Mechanic != candidate.Mechanic || b.Date != candidate.Date {
			continue
		}
		bStart, bEnd, ok := slotInterval(b, grid)
		if !ok {
			continue
		}
		if candStart < bEnd && candEnd > bStart {
			return true
		}
	}
	return false
}
