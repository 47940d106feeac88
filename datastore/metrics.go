package datastore

import "github.com/prometheus/client_golang/prometheus"

// Metrics carries the store's observability counters. They are advisory
// state: updated with at-least-consistent semantics across concurrent
// callers, never read for correctness decisions.
type Metrics struct {
	fetchFailures *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "veilfs",
			Subsystem: "localstore",
			Name:      "fetch_failures_total",
			Help:      "Typed fetches that returned absent, by object kind (missing or unparseable raw bytes).",
		}, []string{"kind"}),
	}
}

// FetchFailures exposes the failure counter for one object kind
// ("tree", "blob", "blobmeta").
func (m *Metrics) FetchFailures(kind string) prometheus.Counter {
	return m.fetchFailures.WithLabelValues(kind)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.fetchFailures.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.fetchFailures.Collect(ch)
}
