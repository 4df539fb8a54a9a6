package schedule

import "errors"

// Rejection kinds surfaced by the facade. Proposal errors are local and
// never touch the store; ErrPersistence wraps a failed collaborator call
// after which the store is left at its pre-call state.
var (
	ErrMissingField = errors.New("missing required booking field")
	ErrOutOfHours   = errors.New("booking falls outside working hours")
	ErrOverlap      = errors.New("booking overlaps an existing job")
	ErrNotFound     = errors.New("booking not found")
	ErrPersistence  = errors.New("persistence call failed")
)

// RejectReason maps a facade error to a short machine-readable label, or ""
// for errors that are not scheduling rejections.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrOutOfHours):
		return "out_of_hours"
	case errors.Is(err, ErrOverlap):
		return "overlap"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return ""
	}
}
