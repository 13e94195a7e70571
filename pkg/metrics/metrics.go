// Package metrics provides Prometheus metrics for the storage layer and its
// HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageOperationsTotal tracks repository operations by outcome
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gestao",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of storage operations by collection, operation, backend and status",
		},
		[]string{"collection", "operation", "backend", "status"},
	)

	// StorageOperationDuration tracks storage operation latency
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gestao",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Duration of storage operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"collection", "operation", "backend"},
	)

	// FallbackActivationsTotal counts activations of the key-value fallback
	FallbackActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gestao",
			Subsystem: "storage",
			Name:      "fallback_activations_total",
			Help:      "Total number of fallback activations by reason",
		},
		[]string{"reason"},
	)

	// BackendMode is 1 for the active backend mode label
	BackendMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gestao",
			Subsystem: "storage",
			Name:      "backend_mode",
			Help:      "Active storage backend (1 = active)",
		},
		[]string{"mode"},
	)

	// GateWaitDuration tracks how long callers waited on the initialization gate
	GateWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gestao",
			Subsystem: "gate",
			Name:      "wait_duration_seconds",
			Help:      "Time spent waiting for storage readiness in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	// SkippedRecordsTotal counts stored records dropped on read because they could not be decoded
	SkippedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gestao",
			Subsystem: "storage",
			Name:      "skipped_records_total",
			Help:      "Total number of stored records skipped on read due to decode failures",
		},
		[]string{"collection", "backend"},
	)

	// KVSOperationDuration tracks key-value medium latency
	KVSOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gestao",
			Subsystem: "kvs",
			Name:      "operation_duration_seconds",
			Help:      "Duration of key-value operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	// ChangeEventsPublished tracks change events exported to the message broker
	ChangeEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gestao",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of change events exported by status",
		},
		[]string{"status"},
	)

	// HTTPRequestsTotal tracks inbound API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gestao",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
)

// ObserveStorage records the outcome and latency of a storage operation
func ObserveStorage(collection, operation, backend string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(collection, operation, backend, status).Inc()
	StorageOperationDuration.WithLabelValues(collection, operation, backend).Observe(time.Since(start).Seconds())
}

// ObserveKVS records the latency of a key-value operation
func ObserveKVS(operation string, start time.Time) {
	KVSOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetBackendMode marks mode as the active backend
func SetBackendMode(active string, modes ...string) {
	for _, m := range modes {
		BackendMode.WithLabelValues(m).Set(0)
	}
	BackendMode.WithLabelValues(active).Set(1)
}
