// Package observability holds the Prometheus metrics for the pricing subsystem.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Repository metrics
	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec

	// Pricing metrics
	MultiplierComputations *prometheus.CounterVec
	PatternsDetected       prometheus.Counter
	PatternsStored         prometheus.Counter
	PatternStoreFailures   prometheus.Counter

	// Batch job metrics
	InsightRunUnits *prometheus.CounterVec
	BackfillItems   *prometheus.CounterVec
}

// NewCollector returns the process-wide metrics collector, creating it on
// first call. The namespace is applied only when the collector is created;
// later calls return the existing collector and ignore the argument.
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	dbOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_operations_total",
			Help:      "Total number of sales-table operations",
		},
		[]string{"operation", "status"},
	)

	dbDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Sales-table operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	multiplierComputations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasonal_multiplier_computations_total",
			Help:      "Total seasonal multiplier computations by outcome",
		},
		[]string{"outcome"},
	)

	patternsDetected := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasonal_patterns_detected_total",
			Help:      "Total significant seasonal patterns detected",
		},
	)

	patternsStored := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasonal_patterns_stored_total",
			Help:      "Total seasonal patterns written to the memory store",
		},
	)

	patternStoreFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasonal_pattern_store_failures_total",
			Help:      "Total best-effort pattern writes that failed",
		},
	)

	insightRunUnits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_run_units_total",
			Help:      "Total aggregator work units by outcome",
		},
		[]string{"outcome"},
	)

	backfillItems := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ttl_backfill_items_total",
			Help:      "Total TTL backfill items by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		dbOperations,
		dbDuration,
		multiplierComputations,
		patternsDetected,
		patternsStored,
		patternStoreFailures,
		insightRunUnits,
		backfillItems,
	)

	globalCollector = &Collector{
		registry:               registry,
		DBOperations:           dbOperations,
		DBDuration:             dbDuration,
		MultiplierComputations: multiplierComputations,
		PatternsDetected:       patternsDetected,
		PatternsStored:         patternsStored,
		PatternStoreFailures:   patternStoreFailures,
		InsightRunUnits:        insightRunUnits,
		BackfillItems:          backfillItems,
	}
	return globalCollector
}

// Registry exposes the collector's registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveDBOperation records one repository call.
func (c *Collector) ObserveDBOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.DBOperations.WithLabelValues(operation, status).Inc()
	c.DBDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
