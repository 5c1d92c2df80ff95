// Package metrics counts what a run did. A run is a batch job, so the
// registry is written to a node-exporter textfile at the end instead of
// being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pdbrenum"

// Alignment outcomes.
const (
	Accepted = "accepted"
	Rejected = "rejected"
	Skipped  = "skipped" // chain was not protein, nothing aligned
)

// Metrics holds the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Registry   *prometheus.Registry
	alignments *prometheus.CounterVec
	remote     *prometheus.CounterVec
	cache      *prometheus.CounterVec
	runs       *prometheus.CounterVec
	runSeconds prometheus.Histogram
}

// New makes a private registry with every collector on it.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		alignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alignments_total",
			Help:      "Chain against reference alignments by outcome.",
		}, []string{"outcome"}),
		remote: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Requests to remote sequence services.",
		}, []string{"service", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_cache_total",
			Help:      "Reference cache lookups.",
		}, []string{"result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Renumbering runs by final state.",
		}, []string{"state"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a renumbering run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900},
		}),
	}
	m.Registry.MustRegister(m.alignments, m.remote, m.cache, m.runs, m.runSeconds)
	return m
}

func (m *Metrics) Alignment(outcome string) {
	if m != nil {
		m.alignments.WithLabelValues(outcome).Inc()
	}
}

// Remote counts one request; err decides the outcome label.
func (m *Metrics) Remote(service string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remote.WithLabelValues(service, outcome).Inc()
}

func (m *Metrics) Cache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
	} else {
		m.cache.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) Run(state string, took time.Duration) {
	if m != nil {
		m.runs.WithLabelValues(state).Inc()
		m.runSeconds.Observe(took.Seconds())
	}
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
