// Package telemetry provides pipeline observability: a Prometheus metrics
// registry and the OpenTelemetry tracer bootstrap.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	surfacesClassified *prometheus.CounterVec
	ambiguousSurfaces  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdpipe_runs_total",
				Help: "Total number of pipeline runs by terminal status",
			},
			[]string{"status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cfdpipe_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		surfacesClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdpipe_surfaces_classified_total",
				Help: "Boundary surfaces classified, by assigned label",
			},
			[]string{"label"},
		),
		ambiguousSurfaces: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cfdpipe_ambiguous_surfaces_total",
				Help: "Surfaces matching both inlet and outlet extents (inlet wins)",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.runsTotal, m.stageDuration, m.surfacesClassified, m.ambiguousSurfaces)
	return m
}

// RecordRun counts a finished pipeline run.
func (m *Metrics) RecordRun(status domain.RunStatus) {
	m.runsTotal.WithLabelValues(string(status)).Inc()
}

// ObserveStage records a stage duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordClassification counts per-label surface totals and ambiguous hits.
func (m *Metrics) RecordClassification(c *domain.Classification) {
	for _, label := range domain.Labels() {
		if n := c.Count(label); n > 0 {
			m.surfacesClassified.WithLabelValues(label.String()).Add(float64(n))
		}
	}
	if len(c.Ambiguous) > 0 {
		m.ambiguousSurfaces.Add(float64(len(c.Ambiguous)))
	}
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
