// Package pipeline implements the sales side of the tool: deal lifecycle
// rules and the weekly/monthly summary aggregations.
package pipeline

import (
	"context"
	"fmt"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// DealAPI is the external collaborator owning the durable deal list.
type DealAPI interface {
	ListDeals(ctx context.Context) ([]model.Deal, error)
	CreateDeal(ctx context.Context, d model.Deal) (model.Deal, error)
	UpdateDeal(ctx context.Context, id string, d model.Deal) (model.Deal, error)
	DeleteDeal(ctx context.Context, id string) error
}

// ValidateNew checks the fields required to open a deal.
func ValidateNew(d *model.Deal) error {
	if d.Customer == "" {
		return fmt.Errorf("customer is required")
	}
	if d.Technician == "" {
		return fmt.Errorf("technician is required")
	}
	if d.Status == "" {
		d.Status = model.StatusEnquiry
	}
	if !model.ValidStatus(d.Status) {
		return fmt.Errorf("unknown status %q", d.Status)
	}
	if d.CloseDate != "" || d.ClosedOutcome != "" {
		return fmt.Errorf("new deal cannot be closed")
	}
	return nil
}

// SetStatus moves an open deal between pipeline statuses. Any of the four
// open statuses can be assigned directly, matching the status select in the
// deal list.
func SetStatus(d *model.Deal, status string) error {
	if !d.Open() {
		return fmt.Errorf("deal %s is closed", d.ID)
	}
	if !model.ValidStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}
	d.Status = status
	return nil
}

// Close finishes a deal with an outcome. Closing is terminal except for an
// explicit Reopen.
func Close(d *model.Deal, outcome, closeDate string) error {
	if !d.Open() {
		return fmt.Errorf("deal %s already closed", d.ID)
	}
	if !model.ValidOutcome(outcome) {
		return fmt.Errorf("unknown outcome %q", outcome)
	}
	if closeDate == "" {
		return fmt.Errorf("close date is required")
	}
	d.CloseDate = closeDate
	d.ClosedOutcome = outcome
	return nil
}

// Reopen puts a closed deal back into the pipeline.
func Reopen(d *model.Deal) error {
	if d.Open() {
		return fmt.Errorf("deal %s is not closed", d.ID)
	}
	d.CloseDate = ""
	d.ClosedOutcome = ""
	return nil
}

// StatusCounts tallies open deals per pipeline status.
func StatusCounts(deals []model.Deal) map[string]int {
	counts := make(map[string]int)
	for i := range deals {
		d := &deals[i]
		if !d.Open() {
			continue
		}
		status := d.Status
		if status == "" {
			status = "Unknown"
		}
		counts[status]++
	}
	return counts
}
