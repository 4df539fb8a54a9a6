package schedule

import "time"

// ISODate is the YYYY-MM-DD layout used throughout the booking model.
const ISODate = "2006-01-02"

// WeekWindow is the Monday-anchored 5-day span shown to the user.
type WeekWindow struct {
	Monday time.Time
}

// Day is one weekday of a window.
type Day struct {
	Date  time.Time
	ISO   string
	Label string
}

// MondayOf normalizes any date to the Monday of its ISO week. Sunday counts
// as day 7 and belongs to the previous week's Monday.
func MondayOf(t time.Time) time.Time {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if day != 1 {
		d = d.AddDate(0, 0, -(day - 1))
	}
	return d
}

// WindowFor returns the week window containing t.
func WindowFor(t time.Time) WeekWindow {
	return WeekWindow{Monday: MondayOf(t)}
}

// Shift returns a new window offset by the given number of weeks.
func (w WeekWindow) Shift(weeks int) WeekWindow {
	return WeekWindow{Monday: w.Monday.AddDate(0, 0, weeks*7)}
}

// Friday returns the last day of the window.
func (w WeekWindow) Friday() time.Time {
	return w.Monday.AddDate(0, 0, 4)
}

// Contains reports whether the ISO date falls on one of the window's days.
func (w WeekWindow) Contains(iso string) bool {
	for _, d := range w.Days() {
		if d.ISO == iso {
			return true
		}
	}
	return false
}

// Days returns the five weekdays of the window with ISO dates and display
// labels, e.g. "Mon 17 Nov".
func (w WeekWindow) Days() []Day {
	days := make([]Day, 5)
	for i := range days {
		d := w.Monday.AddDate(0, 0, i)
		days[i] = Day{
			Date:  d,
			ISO:   d.Format(ISODate),
			Label: d.Format("Mon 02 Jan"),
		}
	}
	return days
}

// Label renders the window header, e.g. "Week of 17 Nov 2025 - 21 Nov 2025".
func (w WeekWindow) Label() string {
	const layout = "02 Jan 2006"
	return "Week of " + w.Monday.Format(layout) + " - " + w.Friday().Format(layout)
}
