package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_operations_total",
			Help: "Total ticket lifecycle operations",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_operation_duration_seconds",
			Help:    "Duration of ticket lifecycle operations",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"operation"},
	)

	storeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_failures_total",
			Help: "Total persistence failures by operation",
		},
		[]string{"operation"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackOperation records the outcome of one lifecycle operation.
func (m *Monitor) TrackOperation(operation, outcome string) {
	if m == nil {
		return
	}
	ticketOperations.WithLabelValues(operation, outcome).Inc()
}

// TrackDuration records how long one lifecycle operation took.
func (m *Monitor) TrackDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// TrackStoreFailure records a persistence failure.
func (m *Monitor) TrackStoreFailure(operation string) {
	if m == nil {
		return
	}
	storeFailures.WithLabelValues(operation).Inc()
}
