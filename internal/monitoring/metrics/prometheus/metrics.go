// Package prometheus implements the metrics provider on top of a private
// Prometheus registry.
package prometheus

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/monitoring/metrics"
)

type Provider struct {
	namespace  string
	registry   *prometheus.Registry
	collectors *collectorSet

	log *log.Logger
}

var _ metrics.Metrics = &Provider{}

// Option configures a Provider.
type Option func(*Provider)

// WithNamespace prefixes every metric name with the namespace.
func WithNamespace(namespace string) Option {
	return func(p *Provider) {
		p.namespace = namespace
	}
}

// WithRuntimeCollectors exposes Go runtime and process metrics next to the
// application metrics.
func WithRuntimeCollectors() Option {
	return func(p *Provider) {
		p.registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
}

func NewProvider(logger *log.Logger, opts ...Option) *Provider {
	registry := prometheus.NewRegistry()
	p := &Provider{
		registry:   registry,
		collectors: newCollectorSet(registry),
		log:        logger.With(log.String("metrics_provider", "prometheus")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (m *Provider) GetCounter(name string, opts ...metrics.MetricOption) metrics.Counter {
	counter, err := getOrCreate(m.collectors, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts(m.opts(name, opts)))
	})
	if err != nil {
		m.log.Error("failed to create counter", log.String("name", name), log.Error(err))
		return metrics.NopCounter()
	}
	return counter
}

func (m *Provider) GetGauge(name string, opts ...metrics.MetricOption) metrics.Gauge {
	gauge, err := getOrCreate(m.collectors, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts(m.opts(name, opts)))
	})
	if err != nil {
		m.log.Error("failed to create gauge", log.String("name", name), log.Error(err))
		return metrics.NopProvider{}.GetGauge(name)
	}
	return gauge
}

func (m *Provider) GetCounterVec(name string, labelNames []string, opts ...metrics.MetricOption) metrics.CounterVec {
	vec, err := getOrCreate(m.collectors, name, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts(m.opts(name, opts)), labelNames)
	})
	if err != nil {
		m.log.Error("failed to create counter vector", log.String("name", name), log.Error(err))
		return metrics.NopProvider{}.GetCounterVec(name, labelNames)
	}
	return &counterVec{vec: vec, log: m.log.With(log.String("name", name))}
}

func (m *Provider) GetHistogramVec(name string, buckets []float64, labelNames []string, opts ...metrics.MetricOption) metrics.HistogramVec {
	vec, err := getOrCreate(m.collectors, name, func() *prometheus.HistogramVec {
		o := m.opts(name, opts)
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.Namespace,
			Name:      o.Name,
			Help:      o.Help,
			Buckets:   buckets,
		}, labelNames)
	})
	if err != nil {
		m.log.Error("failed to create histogram vector", log.String("name", name), log.Error(err))
		return metrics.NopProvider{}.GetHistogramVec(name, buckets, labelNames)
	}
	return &histogramVec{vec: vec, log: m.log.With(log.String("name", name))}
}

func (m *Provider) GetHTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown unregisters every metric created by the provider.
func (m *Provider) Shutdown(_ context.Context) error {
	m.collectors.Shutdown()
	return nil
}

// Snapshot returns the current value of every registered metric keyed by its
// fully qualified name. Labelled series are summed, histograms report their
// sample count.
func (m *Provider) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[family.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[family.GetName()] += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				values[family.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return values, nil
}

func (m *Provider) opts(name string, opts []metrics.MetricOption) prometheus.Opts {
	return prometheus.Opts{
		Namespace: m.namespace,
		Name:      name,
		Help:      metrics.Apply(opts).Description,
	}
}

// counterVec resolves label values, reporting invalid ones instead of
// panicking.
type counterVec struct {
	vec *prometheus.CounterVec
	log *log.Logger
}

func (m *counterVec) GetMetricWith(labels metrics.Labels) metrics.Counter {
	counter, err := m.vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		m.log.Error("invalid labels", log.Any("labels", labels), log.Error(err))
		return metrics.NopCounter()
	}
	return counter
}

type histogramVec struct {
	vec *prometheus.HistogramVec
	log *log.Logger
}

func (m *histogramVec) GetMetricWith(labels metrics.Labels) metrics.Histogram {
	histogram, err := m.vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		m.log.Error("invalid labels", log.Any("labels", labels), log.Error(err))
		return metrics.NopHistogram()
	}
	return histogram
}
