// Package metrics defines the instruments the application records and a
// provider abstraction over the metrics backend.
package metrics

import (
	"context"
	"net/http"
)

// Metrics is a provider that can also expose what it collected.
type Metrics interface {
	Provider
	Gatherer
}

// Provider creates named instruments. Requesting the same name twice returns
// the same instrument.
type Provider interface {
	GetCounter(name string, opts ...MetricOption) Counter
	GetGauge(name string, opts ...MetricOption) Gauge
	GetCounterVec(name string, labelNames []string, opts ...MetricOption) CounterVec
	GetHistogramVec(name string, buckets []float64, labelNames []string, opts ...MetricOption) HistogramVec

	Shutdown(ctx context.Context) error
}

type Gatherer interface {
	GetHTTPHandler() http.Handler
}

type Counter interface {
	Inc()
	Add(float64)
}

type Gauge interface {
	Inc()
	Dec()
	Set(float64)
}

type Histogram interface {
	Observe(float64)
}

type Labels map[string]string

type CounterVec interface {
	GetMetricWith(Labels) Counter
}

type HistogramVec interface {
	GetMetricWith(Labels) Histogram
}
