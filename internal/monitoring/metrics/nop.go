package metrics

import (
	"context"
	"net/http"
)

// NopProvider hands out instruments that record nothing.
type NopProvider struct{}

var _ Provider = NopProvider{}

func (NopProvider) GetCounter(string, ...MetricOption) Counter { return nopInstrument{} }

func (NopProvider) GetGauge(string, ...MetricOption) Gauge { return nopInstrument{} }

func (NopProvider) GetCounterVec(string, []string, ...MetricOption) CounterVec {
	return nopInstrument{}
}

func (NopProvider) GetHistogramVec(string, []float64, []string, ...MetricOption) HistogramVec {
	return nopHistogramVec{}
}

func (NopProvider) Shutdown(context.Context) error { return nil }

// NopGatherer exposes nothing.
type NopGatherer struct{}

func (NopGatherer) GetHTTPHandler() http.Handler { return http.NotFoundHandler() }

// nopInstrument satisfies every scalar instrument interface.
type nopInstrument struct{}

func (nopInstrument) Inc() {}
func (nopInstrument) Dec() {}
func (nopInstrument) Add(float64) {}
func (nopInstrument) Set(float64) {}
func (nopInstrument) Observe(float64) {}
func (nopInstrument) GetMetricWith(Labels) Counter { return nopInstrument{} }

type nopHistogramVec struct{}

func (nopHistogramVec) GetMetricWith(Labels) Histogram { return nopInstrument{} }

// NopCounter returns a counter that records nothing.
func NopCounter() Counter { return nopInstrument{} }

// NopHistogram returns a histogram that records nothing.
func NopHistogram() Histogram { return nopInstrument{} }
