// Package metrics exposes scoring counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookingscore"

// Batch outcomes used as the "outcome" label.
const (
	OutcomeScored        = "scored"
	OutcomeMissingFields = "missing_fields"
	OutcomeEncodingError = "encoding_error"
	OutcomeLabelColumn   = "label_column_exists"
	OutcomeInternalError = "internal_error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so command-line runs can skip the registry entirely.
type Metrics struct {
	registry  *prometheus.Registry
	batches   *prometheus.CounterVec
	rows      prometheus.Counter
	unknown   *prometheus.CounterVec
	latency   prometheus.Histogram
	predicted *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Record batches processed, by outcome.",
		}, []string{"outcome"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_scored_total",
			Help:      "Rows that received a prediction.",
		}),
		unknown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_category_total",
			Help:      "Categorical values outside their vocabulary, by field.",
		}, []string{"field"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to validate, encode, score and annotate one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		predicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions by label.",
		}, []string{"label"}),
	}

	m.registry.MustRegister(m.batches, m.rows, m.unknown, m.latency, m.predicted)

	return m
}

// Batch records one processed batch.
func (m *Metrics) Batch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.batches.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// Scored records rows that received a label.
func (m *Metrics) Scored(labels []string) {
	if m == nil {
		return
	}

	m.rows.Add(float64(len(labels)))

	for _, l := range labels {
		m.predicted.WithLabelValues(l).Inc()
	}
}

// UnknownCategory records one unrecognised categorical value.
func (m *Metrics) UnknownCategory(field string) {
	if m == nil {
		return
	}

	m.unknown.WithLabelValues(field).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
