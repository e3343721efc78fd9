// Package scheduler – Prometheus instrumentation
//
// Collectors for the batch cycle. Label cardinality is bounded: outcomes and
// results are small fixed sets, never post or account ids.
package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// cycles counts batch cycles by result ("ok" or "error"; error means the
	// due-post selection failed and the cycle was aborted).
	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_cycles_total",
			Help: "Total number of batch cycles executed.",
		},
		[]string{"result"},
	)

	// postsProcessed counts per-post outcomes ("posted" or "failed").
	postsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_posts_processed_total",
			Help: "Total number of due posts processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// occurrencesSpawned counts successor posts created for recurring series.
	occurrencesSpawned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_occurrences_spawned_total",
			Help: "Total number of recurring-post occurrences spawned.",
		},
	)

	// cycleDuration records batch cycle wall time in seconds.
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_cycle_duration_seconds",
			Help:    "Duration of batch cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(cycles, postsProcessed, occurrencesSpawned, cycleDuration)
}
