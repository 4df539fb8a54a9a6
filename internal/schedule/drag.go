package schedule

import (
	"fmt"
	"math"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/timegrid"
)

// DragSession carries the state of one drag gesture between grab and drop.
// The grab offset is captured once at drag start and never recomputed, so
// the block keeps its position under the pointer instead of snapping its top
// edge to the drop slot. A session is valid only for the gesture that
// created it; an aborted drag is simply discarded.
type DragSession struct {
	BookingID   string
	Span        int
	OffsetSlots int
}

// BeginDrag starts a drag of the given booking. grabFraction is the vertical
// pointer position within the rendered block, 0 at the top edge and 1 at the
// bottom; values outside [0,1] are clamped.
func BeginDrag(b *model.Booking, grabFraction float64, grid *timegrid.Grid) (DragSession, error) {
	if b.ID == "" {
		return DragSession{}, fmt.Errorf("%w: id", ErrMissingField)
	}
	if b.DurationHours <= 0 {
		return DragSession{}, fmt.Errorf("%w: duration_hours", ErrMissingField)
	}

	if grabFraction < 0 {
		grabFraction = 0
	} else if grabFraction > 1 {
		grabFraction = 1
	}

	span := grid.SpanForDuration(b.DurationHours)
	offset := int(math.Floor(grabFraction*float64(span-1) + 0.5))
	if offset < 0 {
		offset = 0
	} else if offset > span-1 {
		offset = span - 1
	}

	return DragSession{BookingID: b.ID, Span: span, OffsetSlots: offset}, nil
}

// DropStart translates a drop target slot into the proposed start slot,
// preserving the grab offset. Clamped at the start of the day.
func (d DragSession) DropStart(dropSlot int) int {
	start := dropSlot - d.OffsetSlots
	if start < 0 {
		start = 0
	}
	return start
}

// PlaceCandidate builds the moved booking for a drop on the target mechanic,
// date and slot. The original booking is not mutated and nothing is stored;
// the caller validates the candidate before committing.
func (d DragSession) PlaceCandidate(b model.Booking, dropSlot int, mechanic, date string, grid *timegrid.Grid) (model.Booking, error) {
	start := d.DropStart(dropSlot)
	clock, err := grid.SlotToClock(start)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: drop slot %d", ErrOutOfHours, dropSlot)
	}

	b.Mechanic = mechanic
	b.Date = date
	b.StartTime = clock
	return b, nil
}
