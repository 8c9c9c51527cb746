// Package metrics holds the Prometheus instrumentation shared by the
// poller, the provider layer, and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors. Constructed once at startup and
// passed to the components that record into it.
type Metrics struct {
	Registry *prometheus.Registry

	PollPasses     prometheus.Counter
	PollDuration   prometheus.Histogram
	FetchErrors    *prometheus.CounterVec
	QuotesFetched  *prometheus.CounterVec
	CacheSize      prometheus.Gauge
	SnapshotWrites *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		PollPasses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "faststock",
			Subsystem: "poller",
			Name:      "passes_total",
			Help:      "Completed polling passes.",
		}),
		PollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "faststock",
			Subsystem: "poller",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one polling pass.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faststock",
			Subsystem: "provider",
			Name:      "fetch_errors_total",
			Help:      "Adapter failures by provider and error kind.",
		}, []string{"provider", "kind"}),
		QuotesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faststock",
			Subsystem: "provider",
			Name:      "quotes_fetched_total",
			Help:      "Successful quote fetches by provider.",
		}, []string{"provider"}),
		CacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "faststock",
			Subsystem: "cache",
			Name:      "symbols",
			Help:      "Symbols currently held in the quote cache.",
		}),
		SnapshotWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faststock",
			Subsystem: "options",
			Name:      "snapshot_writes_total",
			Help:      "Persisted option-chain snapshots by index.",
		}, []string{"index"}),
	}
}
