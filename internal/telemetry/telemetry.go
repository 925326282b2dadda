// Package telemetry exposes Prometheus instrumentation for the unwrap
// orchestration core. Collectors are registered with the default registry;
// embedding applications decide whether and where to serve them.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts cache lookups answered from a stored entry.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uvwrap_cache_hits_total",
		Help: "Total number of unwrap cache hits",
	})

	// CacheMisses counts lookups that found no usable entry, including
	// entries discarded as corrupt.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uvwrap_cache_misses_total",
		Help: "Total number of unwrap cache misses",
	})

	// JobsTotal counts finished batch jobs by outcome.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvwrap_batch_jobs_total",
		Help: "Total number of completed batch jobs",
	}, []string{"status"})

	// UnwrapDuration observes wall time of solver unwrap calls (cache
	// misses only; hits never reach the solver).
	UnwrapDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "uvwrap_unwrap_duration_seconds",
		Help:    "Time taken by external solver unwrap calls",
		Buckets: prometheus.DefBuckets,
	})

	// OptimizerTrials counts evaluated grid-search combinations by outcome.
	OptimizerTrials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvwrap_optimizer_trials_total",
		Help: "Total number of evaluated optimizer trials",
	}, []string{"status"})
)

// Outcome label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
