package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

func TestBuildWeeklyMatrix(t *testing.T) {
	deals := []model.Deal{
		{Technician: "John Gill", OpenDate: "2025-11-03"},     // week 45
		{Technician: "John Gill", OpenDate: "2025-11-04"},     // week 45
		{Technician: "John Gill", OpenDate: "2025-11-12"},     // week 46
		{Technician: "Nick Campbell", OpenDate: "2025-11-13"}, // week 46
		{Technician: "", OpenDate: "2025-11-13"},              // Unknown row
		{Technician: "John Gill", OpenDate: "bad-date"},       // skipped
		{Technician: "John Gill", OpenDate: "2025-10-28"},     // filtered out by month
	}

	m := BuildWeeklyMatrix(deals, "2025-11")

	assert.Equal(t, []int{45, 46}, m.Weeks)
	assert.Equal(t, 2, m.Rows["John Gill"][45])
	assert.Equal(t, 1, m.Rows["John Gill"][46])
	assert.Equal(t, 1, m.Rows["Nick Campbell"][46])
	assert.Equal(t, 1, m.Rows["Unknown"][46])

	assert.Equal(t, 3, m.RowTotal("John Gill"))
	assert.Equal(t, 2, m.WeekTotal(45))
	assert.Equal(t, 3, m.WeekTotal(46))
	assert.Equal(t, 5, m.GrandTotal())
	assert.Equal(t, []string{"John Gill", "Nick Campbell", "Unknown"}, m.Salespeople())
}

func TestBuildWeeklyMatrixNoFilter(t *testing.T) {
	deals := []model.Deal{
		{Technician: "John Gill", OpenDate: "2025-10-28"},
		{Technician: "John Gill", OpenDate: "2025-11-03"},
	}
	m := BuildWeeklyMatrix(deals, "")
	assert.Equal(t, 2, m.GrandTotal())
}

func TestBuildMonthlySnapshot(t *testing.T) {
	deals := []model.Deal{
		{Technician: "John Gill", Status: model.StatusQuote, Value: 100},
		{Technician: "John Gill", Status: model.StatusQuote, Value: 50},
		{Technician: "John Gill", Status: model.StatusCommitted, Value: 200},
		{Technician: "Nick Campbell", Status: model.StatusEnquiry, Value: 10},
		{Technician: "Nick Campbell", Status: "Weird", Value: 999}, // ignored
		{Technician: "John Gill", Status: model.StatusCommitted, Value: 300,
			CloseDate: "2025-11-20", ClosedOutcome: model.OutcomeInvoiced},
		{Technician: "John Gill", Status: model.StatusQuote, Value: 80,
			CloseDate: "2025-11-05", ClosedOutcome: model.OutcomeLost},
		{Technician: "Nick Campbell", Status: model.StatusQuote, Value: 70,
			CloseDate: "2025-10-02", ClosedOutcome: model.OutcomeInvoiced}, // outside month
	}

	snap := BuildMonthlySnapshot(deals, "2025-11")

	john := snap.People["John Gill"]
	assert.Equal(t, SnapshotCell{Count: 2, Value: 150}, john.ByStatus[model.StatusQuote])
	assert.Equal(t, SnapshotCell{Count: 1, Value: 200}, john.ByStatus[model.StatusCommitted])
	assert.Equal(t, SnapshotCell{Count: 1, Value: 300}, john.Invoiced)
	assert.Equal(t, SnapshotCell{Count: 1, Value: 80}, john.Lost)

	nick := snap.People["Nick Campbell"]
	assert.Equal(t, SnapshotCell{Count: 1, Value: 10}, nick.ByStatus[model.StatusEnquiry])
	assert.Equal(t, SnapshotCell{}, nick.Invoiced, "deal closed outside the month is excluded")

	assert.Equal(t, SnapshotCell{Count: 2, Value: 150}, snap.Totals.ByStatus[model.StatusQuote])
	assert.Equal(t, SnapshotCell{Count: 1, Value: 300}, snap.Totals.Invoiced)
	assert.Equal(t, []string{"John Gill", "Nick Campbell"}, snap.Salespeople())
}

func TestBuildMonthlySnapshotEmptyFilterIncludesAllClosed(t *testing.T) {
	deals := []model.Deal{
		{Technician: "John Gill", Status: model.StatusQuote, Value: 70,
			CloseDate: "2025-10-02", ClosedOutcome: model.OutcomeInvoiced},
	}
	snap := BuildMonthlySnapshot(deals, "")
	assert.Equal(t, 1, snap.People["John Gill"].Invoiced.Count)
}
