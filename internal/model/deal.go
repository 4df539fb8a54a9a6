package model

// Deal represents a sales opportunity in the pipeline.
type Deal struct {
	ID            string  `json:"id"`
	Customer      string  `json:"customer"`
	Bike          string  `json:"bike"`
	Technician    string  `json:"technician"` // salesperson owning the deal
	Status        string  `json:"status"`
	OpenDate      string  `json:"open_date"` // YYYY-MM-DD
	Value         float64 `json:"value"`
	Notes         string  `json:"notes"`
	CloseDate     string  `json:"close_date,omitempty"` // empty while open
	ClosedOutcome string  `json:"closed_outcome,omitempty"`
}

// Pipeline statuses for open deals, in display order.
const (
	StatusEnquiry   = "Enquiry"
	StatusQuote     = "Quote"
	StatusApproval  = "Approval"
	StatusCommitted = "Committed"
)

// Closed outcomes.
const (
	OutcomeInvoiced = "Invoiced"
	OutcomeLost     = "Lost"
)

// PipelineStatuses is the fixed ordering used by summaries.
var PipelineStatuses = []string{StatusEnquiry, StatusQuote, StatusApproval, StatusCommitted}

// Open reports whether the deal is still in the pipeline.
func (d *Deal) Open() bool {
	return d.CloseDate == ""
}

// ValidStatus reports whether s is one of the open pipeline statuses.
func ValidStatus(s string) bool {
	for _, known := range PipelineStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ValidOutcome reports whether s is a recognised closed outcome.
func ValidOutcome(s string) bool {
	return s == OutcomeInvoiced || s == OutcomeLost
}
