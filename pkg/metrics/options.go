// Package metrics provides Prometheus metrics for the cardcognition scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager defaults. Every latency is observed in milliseconds.
const (
	defaultNamespace = "cardcognition"
	defaultSubsystem = "synergy"
)

func defaultLatencyBuckets() []float64 {
	return []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
}

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace replaces the "cardcognition" prefix of every series.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "synergy" subsystem of every series.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets the millisecond bounds shared by the scoring,
// extraction, embedding, card store, HTTP and worker latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithModelLoadBuckets sets the millisecond bounds of the commander model
// load histogram. It defaults to the shared latency bounds.
func WithModelLoadBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.modelLoadBuckets = buckets
		}
	}
}

// WithPrometheusRegistry registers the collectors with reg instead of the
// default registerer.
func WithPrometheusRegistry(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}
