package prometheus

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/monitoring/metrics"
)

// TestProvider_SameName verifies that requesting a metric twice returns the
// same collector instead of failing on duplicate registration.
func TestProvider_SameName(t *testing.T) {
	provider := NewProvider(log.NewNop(), WithNamespace("test"))

	provider.GetCounter("events_total").Inc()
	provider.GetCounter("events_total").Add(2)

	values, err := provider.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3.0, values["test_events_total"])
}

// TestProvider_Vectors verifies labelled metrics and label validation.
func TestProvider_Vectors(t *testing.T) {
	provider := NewProvider(log.NewNop())

	outcomes := provider.GetCounterVec("outcomes_total", []string{"outcome"})
	outcomes.GetMetricWith(metrics.Labels{"outcome": "approved"}).Inc()
	outcomes.GetMetricWith(metrics.Labels{"outcome": "denied"}).Inc()
	// Unknown label names fall back to a no-op counter.
	outcomes.GetMetricWith(metrics.Labels{"unknown": "x"}).Inc()

	durations := provider.GetHistogramVec("phase_seconds", []float64{0.1, 1}, []string{"phase"})
	durations.GetMetricWith(metrics.Labels{"phase": "finalize"}).Observe(0.5)
	durations.GetMetricWith(metrics.Labels{}).Observe(0.5)

	values, err := provider.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2.0, values["outcomes_total"])
	assert.Equal(t, 1.0, values["phase_seconds"])
}

// TestProvider_TypeClash verifies that a name taken by another kind of
// metric yields a no-op instrument.
func TestProvider_TypeClash(t *testing.T) {
	provider := NewProvider(log.NewNop())

	provider.GetCounter("attempts").Inc()
	provider.GetGauge("attempts").Set(10)

	values, err := provider.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, values["attempts"])
}

// TestProvider_Handler verifies that registered metrics are exposed over HTTP
// and removed on shutdown.
func TestProvider_Handler(t *testing.T) {
	provider := NewProvider(log.NewNop(), WithNamespace("test"))
	provider.GetGauge("in_flight").Set(1)

	scrape := func() string {
		recorder := httptest.NewRecorder()
		provider.GetHTTPHandler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
		body, err := io.ReadAll(recorder.Result().Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Contains(t, scrape(), "test_in_flight 1")

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.NotContains(t, scrape(), "test_in_flight")
}
