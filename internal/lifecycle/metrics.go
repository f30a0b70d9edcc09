package lifecycle

import (
	"time"

	"github.com/yanet-platform/lifeexit/internal/monitoring/metrics"
)

// Metrics holds the instruments recorded by the sequencer.
type Metrics struct {
	attempts      metrics.Counter
	inFlight      metrics.Gauge
	outcomes      metrics.CounterVec
	phaseDuration metrics.HistogramVec
	persistErrors metrics.CounterVec
}

// NewMetrics creates the sequencer instruments in the provider.
func NewMetrics(provider metrics.Provider) *Metrics {
	return &Metrics{
		attempts: provider.GetCounter(
			"attempts_total",
			metrics.WithDescription("number of started shutdown attempts"),
		),
		inFlight: provider.GetGauge(
			"attempt_in_flight",
			metrics.WithDescription("whether a shutdown attempt is in flight"),
		),
		outcomes: provider.GetCounterVec(
			"outcomes_total",
			[]string{"outcome"},
			metrics.WithDescription("number of finished shutdown attempts by outcome"),
		),
		phaseDuration: provider.GetHistogramVec(
			"phase_duration_seconds",
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			[]string{"phase"},
			metrics.WithDescription("observe shutdown phase duration"),
		),
		persistErrors: provider.GetCounterVec(
			"persist_errors_total",
			[]string{"step"},
			metrics.WithDescription("number of failed persistence steps"),
		),
	}
}

func (m *Metrics) started() {
	m.attempts.Inc()
	m.inFlight.Inc()
}

func (m *Metrics) finished(outcome Outcome) {
	m.inFlight.Dec()
	m.outcomes.GetMetricWith(metrics.Labels{"outcome": outcome.String()}).Inc()
}

func (m *Metrics) phase(phase Phase, duration time.Duration) {
	m.phaseDuration.GetMetricWith(metrics.Labels{"phase": phase.String()}).Observe(duration.Seconds())
}

func (m *Metrics) persistFailed(step string) {
	m.persistErrors.GetMetricWith(metrics.Labels{"step": step}).Inc()
}
