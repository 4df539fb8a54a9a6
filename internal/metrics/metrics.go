package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cc_pipeline",
			Name:      "booking_committed_total",
			Help:      "Count of committed booking operations by kind.",
		},
		[]string{"kind"}, // created, moved, updated, deleted
	)

	bookingRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cc_pipeline",
			Name:      "booking_rejected_total",
			Help:      "Count of rejected booking proposals by reason.",
		},
		[]string{"reason"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cc_pipeline",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	recordStoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cc_pipeline",
			Name:      "record_store_errors_total",
			Help:      "Count of failed record store round trips.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCommitted, bookingRejected, httpRequests, recordStoreErrors)
	})
}

func IncBookingCommitted(kind string) {
	bookingCommitted.WithLabelValues(kind).Inc()
}

func IncBookingRejected(reason string) {
	bookingRejected.WithLabelValues(reason).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncRecordStoreError() {
	recordStoreErrors.Inc()
}
