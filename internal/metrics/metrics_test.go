package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Batch(OutcomeScored, 3*time.Millisecond)
	m.Batch(OutcomeMissingFields, time.Millisecond)
	m.Scored([]string{"Canceled", "Not Canceled", "Canceled"})
	m.UnknownCategory("hotel")
	m.UnknownCategory("hotel")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.batches.WithLabelValues(OutcomeScored)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.batches.WithLabelValues(OutcomeMissingFields)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.rows))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.predicted.WithLabelValues("Canceled")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.unknown.WithLabelValues("hotel")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Batch(OutcomeScored, time.Second)
		m.Scored([]string{"x"})
		m.UnknownCategory("hotel")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Scored([]string{"Canceled"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookingscore_rows_scored_total 1")
}
