// Package metrics exposes Prometheus collectors for path generation and
// replay.
//
// Collectors are registered on a caller-supplied registry so tests and
// concurrent runs do not share global state. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "changeoracle"

// Metrics holds every collector the oracle records into.
type Metrics struct {
	// StatesExplored counts search states dequeued by the generator.
	// Labels: scenario
	StatesExplored *prometheus.CounterVec

	// PathsGenerated counts paths returned by the generator.
	// Labels: scenario
	PathsGenerated *prometheus.CounterVec

	// GenerationDuration measures one Generate call.
	// Labels: scenario, status (ok, coverage, quota, fault)
	GenerationDuration *prometheus.HistogramVec

	// ReplaySteps counts collaborator operations by outcome.
	// Labels: outcome (ok, reverted, mismatch, error)
	ReplaySteps *prometheus.CounterVec

	// ReplayPaths counts replayed paths by result.
	// Labels: status (pass, fail)
	ReplayPaths *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatesExplored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pathgen",
			Name:      "states_explored_total",
			Help:      "Search states dequeued during path generation",
		}, []string{"scenario"}),
		PathsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pathgen",
			Name:      "paths_total",
			Help:      "Paths produced by path generation",
		}, []string{"scenario"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pathgen",
			Name:      "duration_seconds",
			Help:      "Wall time of one path generation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"scenario", "status"}),
		ReplaySteps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "steps_total",
			Help:      "Collaborator operations issued during replay",
		}, []string{"outcome"}),
		ReplayPaths: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "paths_total",
			Help:      "Replayed paths by result",
		}, []string{"status"}),
	}
}

// ObserveGeneration records one finished Generate call.
func (m *Metrics) ObserveGeneration(scenario, status string, states, paths int, d time.Duration) {
	if m == nil {
		return
	}
	m.StatesExplored.WithLabelValues(scenario).Add(float64(states))
	m.PathsGenerated.WithLabelValues(scenario).Add(float64(paths))
	m.GenerationDuration.WithLabelValues(scenario, status).Observe(d.Seconds())
}

// RecordStep records one collaborator operation.
func (m *Metrics) RecordStep(outcome string) {
	if m == nil {
		return
	}
	m.ReplaySteps.WithLabelValues(outcome).Inc()
}

// RecordPath records one replayed path.
func (m *Metrics) RecordPath(pass bool) {
	if m == nil {
		return
	}
	status := "fail"
	if pass {
		status = "pass"
	}
	m.ReplayPaths.WithLabelValues(status).Inc()
}
