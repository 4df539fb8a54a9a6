package pipeline

import (
	"sort"
	"time"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// WeeklyMatrix counts deals opened per salesperson per ISO week.
type WeeklyMatrix struct {
	Weeks []int                  `json:"weeks"`
	Rows  map[string]map[int]int `json:"rows"` // salesperson -> week -> count
}

// RowTotal sums one salesperson's row.
func (m *WeeklyMatrix) RowTotal(salesperson string) int {
	total := 0
	for _, c := range m.Rows[salesperson] {
		total += c
	}
	return total
}

// WeekTotal sums one week's column across salespeople.
func (m *WeeklyMatrix) WeekTotal(week int) int {
	total := 0
	for _, row := range m.Rows {
		total += row[week]
	}
	return total
}

// GrandTotal sums the whole matrix.
func (m *WeeklyMatrix) GrandTotal() int {
	total := 0
	for name := range m.Rows {
		total += m.RowTotal(name)
	}
	return total
}

// Salespeople returns the row keys sorted.
func (m *WeeklyMatrix) Salespeople() []string {
	names := make([]string, 0, len(m.Rows))
	for name := range m.Rows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isoWeek returns the ISO week number of an ISO date, or 0 if unparseable.
func isoWeek(isoDate string) int {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return 0
	}
	_, week := t.ISOWeek()
	return week
}

// BuildWeeklyMatrix aggregates deals by salesperson and ISO week of their
// open date. monthFilter, when non-empty ("YYYY-MM"), restricts to deals
// opened in that month. Deals with an unparseable open date are skipped.
func BuildWeeklyMatrix(deals []model.Deal, monthFilter string) WeeklyMatrix {
	matrix := WeeklyMatrix{Rows: make(map[string]map[int]int)}
	weekSet := make(map[int]bool)

	for i := range deals {
		d := &deals[i]
		if monthFilter != "" && !hasMonth(d.OpenDate, monthFilter) {
			continue
		}
		week := isoWeek(d.OpenDate)
		if week == 0 {
			continue
		}

		name := d.Technician
		if name == "" {
			name = "Unknown"
		}
		if matrix.Rows[name] == nil {
			matrix.Rows[name] = make(map[int]int)
		}
		matrix.Rows[name][week]++
		weekSet[week] = true
	}

	for week := range weekSet {
		matrix.Weeks = append(matrix.Weeks, week)
	}
	sort.Ints(matrix.Weeks)
	return matrix
}

// SnapshotCell is a count/value pair.
type SnapshotCell struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

func (c *SnapshotCell) add(value float64) {
	c.Count++
	c.Value += value
}

// PersonSnapshot is one salesperson's monthly picture: open deals by status
// plus deals closed in the period.
type PersonSnapshot struct {
	ByStatus map[string]SnapshotCell `json:"by_status"`
	Lost     SnapshotCell            `json:"lost"`
	Invoiced SnapshotCell            `json:"invoiced"`
}

// MonthlySnapshot is the per-salesperson summary with grand totals.
type MonthlySnapshot struct {
	People map[string]PersonSnapshot `json:"people"`
	Totals PersonSnapshot            `json:"totals"`
}

// Salespeople returns snapshot keys sorted.
func (s *MonthlySnapshot) Salespeople() []string {
	names := make([]string, 0, len(s.People))
	for name := range s.People {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newPersonSnapshot() PersonSnapshot {
	byStatus := make(map[string]SnapshotCell, len(model.PipelineStatuses))
	for _, st := range model.PipelineStatuses {
		byStatus[st] = SnapshotCell{}
	}
	return PersonSnapshot{ByStatus: byStatus}
}

// BuildMonthlySnapshot aggregates currently open deals per status and the
// deals closed in the filtered month (all closed deals when monthFilter is
// empty). Open deals with a status outside the fixed pipeline set are
// ignored, matching the snapshot table in the source UI.
func BuildMonthlySnapshot(deals []model.Deal, monthFilter string) MonthlySnapshot {
	snap := MonthlySnapshot{People: make(map[string]PersonSnapshot), Totals: newPersonSnapshot()}

	person := func(name string) PersonSnapshot {
		if name == "" {
			name = "Unknown"
		}
		p, ok := snap.People[name]
		if !ok {
			p = newPersonSnapshot()
			snap.People[name] = p
		}
		return p
	}
	put := func(name string, p PersonSnapshot) {
		if name == "" {
			name = "Unknown"
		}
		snap.People[name] = p
	}

	for i := range deals {
		d := &deals[i]

		if d.Open() {
			if !model.ValidStatus(d.Status) {
				continue
			}
			p := person(d.Technician)
			cell := p.ByStatus[d.Status]
			cell.add(d.Value)
			p.ByStatus[d.Status] = cell
			put(d.Technician, p)

			total := snap.Totals.ByStatus[d.Status]
			total.add(d.Value)
			snap.Totals.ByStatus[d.Status] = total
			continue
		}

		if monthFilter != "" && !hasMonth(d.CloseDate, monthFilter) {
			continue
		}
		p := person(d.Technician)
		switch d.ClosedOutcome {
		case model.OutcomeLost:
			p.Lost.add(d.Value)
			snap.Totals.Lost.add(d.Value)
		case model.OutcomeInvoiced:
			p.Invoiced.add(d.Value)
			snap.Totals.Invoiced.add(d.Value)
		}
		put(d.Technician, p)
	}

	return snap
}

func hasMonth(isoDate, month string) bool {
	return len(isoDate) >= len(month) && isoDate[:len(month)] == month
}
