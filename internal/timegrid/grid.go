// Package timegrid defines the discrete slot grid of a working day and the
// conversions between clock times and slot indexes.
package timegrid

import (
	"fmt"
	"math"
)

// Default working window: 08:00-18:00 in 30-minute steps. The end hour is an
// exclusive boundary, so the last slot starts half an hour before it.
const (
	DefaultStartHour          = 8
	DefaultEndHour            = 18
	DefaultGranularityMinutes = 30
)

// Grid is a pure mapping between slot indexes and clock times. It carries no
// state and is safe to share across mechanics and days.
type Grid struct {
	startHour   int
	endHour     int
	granularity int // minutes
	slots       []string
}

// New builds a grid for [startHour, endHour) with the given granularity.
func New(startHour, endHour, granularityMinutes int) (*Grid, error) {
	if granularityMinutes <= 0 {
		return nil, fmt.Errorf("granularity must be positive, got %d", granularityMinutes)
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("invalid working window %02d:00-%02d:00", startHour, endHour)
	}

	g := &Grid{startHour: startHour, endHour: endHour, granularity: granularityMinutes}
	for m := startHour * 60; m < endHour*60; m += granularityMinutes {
		g.slots = append(g.slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return g, nil
}

// Default returns the standard workshop grid (08:00-18:00, 30 min).
func Default() *Grid {
	g, err := New(DefaultStartHour, DefaultEndHour, DefaultGranularityMinutes)
	if err != nil {
		panic(err) // constants are valid
	}
	return g
}

// SlotCount returns N, the number of slot starts in the working day.
func (g *Grid) SlotCount() int {
	return len(g.slots)
}

// Slots returns all slot start times in order, e.g. for a time picker.
func (g *Grid) Slots() []string {
	out := make([]string, len(g.slots))
	copy(out, g.slots)
	return out
}

// SlotToClock maps a slot index to its "HH:MM" start time.
func (g *Grid) SlotToClock(i int) (string, error) {
	if i < 0 || i >= len(g.slots) {
		return "", fmt.Errorf("slot %d out of range [0,%d)", i, len(g.slots))
	}
	return g.slots[i], nil
}

// ClockToSlot maps an exact grid-aligned "HH:MM" time to its slot index.
// Times that do not fall on the grid report ok=false.
func (g *Grid) ClockToSlot(clock string) (int, bool) {
	for i, s := range g.slots {
		if s == clock {
			return i, true
		}
	}
	return 0, false
}

// SpanForDuration converts a duration in hours to a slot span, rounding to
// the nearest whole slot (half up) with a minimum of one. Durations that are
// not grid-aligned silently snap.
func (g *Grid) SpanForDuration(durationHours float64) int {
	granularityHours := float64(g.granularity) / 60
	span := int(math.Floor(durationHours/granularityHours + 0.5))
	if span < 1 {
		span = 1
	}
	return span
}

// GranularityMinutes returns the slot width in minutes.
func (g *Grid) GranularityMinutes() int {
	return g.granularity
}
