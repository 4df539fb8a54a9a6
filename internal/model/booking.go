package model

// Booking represents one scheduled workshop job.
type Booking struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`     // YYYY-MM-DD
	Mechanic      string  `json:"mechanic"` // resource the job occupies
	ServiceType   string  `json:"service_type"`
	StartTime     string  `json:"start_time"` // "HH:MM", grid-aligned; empty means unscheduled
	DurationHours float64 `json:"duration_hours"`
	CustomerLabel string  `json:"customer_label"`
	Notes         string  `json:"notes"`
}

// Known service types.
const (
	ServicePro    = "Pro Service"
	ServiceMajor  = "Major Service"
	ServiceExpert = "Expert Service"
	ServiceMin    = "Minimum Charge"
)

// DefaultDurationHours returns the default job duration for a service type.
func DefaultDurationHours(serviceType string) float64 {
	switch serviceType {
	case ServicePro:
		return 5
	case ServiceMajor:
		return 3
	case ServiceExpert:
		return 2
	case ServiceMin:
		return 0.5
	default:
		return 1
	}
}

// Schedulable reports whether the booking carries the fields needed for
// grid placement. Bookings without them are inert for conflict checks.
func (b *Booking) Schedulable() bool {
	return b.Mechanic != "" && b.Date != "" && b.StartTime != "" && b.DurationHours > 0
}

// Mechanic is a bookable workshop resource, sourced from the employee list.
type Mechanic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
