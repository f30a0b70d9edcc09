package prometheus

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// collectorSet remembers the collectors registered by name, so repeated
// lookups return the same collector instead of a duplicate registration
// error.
type collectorSet struct {
	registry *prometheus.Registry
	byName   map[string]prometheus.Collector
	mu       sync.Mutex
}

func newCollectorSet(registry *prometheus.Registry) *collectorSet {
	return &collectorSet{
		registry: registry,
		byName:   make(map[string]prometheus.Collector),
	}
}

// getOrCreate returns the collector registered under name, creating it when
// missing. A name already taken by a collector of another kind is an error.
func getOrCreate[T prometheus.Collector](set *collectorSet, name string, create func() T) (T, error) {
	set.mu.Lock()
	defer set.mu.Unlock()

	if existing, ok := set.byName[name]; ok {
		collector, ok := existing.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("metric %q is registered with another type %T", name, existing)
		}
		return collector, nil
	}

	collector := create()
	if err := set.registry.Register(collector); err != nil {
		return collector, err
	}
	set.byName[name] = collector
	return collector, nil
}

// Shutdown unregisters every tracked collector.
func (m *collectorSet) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, collector := range m.byName {
		m.registry.Unregister(collector)
		delete(m.byName, name)
	}
}
