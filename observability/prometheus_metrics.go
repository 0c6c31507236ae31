/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements Metrics with Prometheus collectors. Tags are label key/value
// pairs; the standard metrics expect the label names they were registered with.
type PrometheusMetrics struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	registerer prometheus.Registerer
}

// NewPrometheusMetrics registers the standard modelstore collectors with registerer, or
// with the default registerer when nil.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	pm := &PrometheusMetrics{
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registerer: registerer,
	}
	pm.registerDefaultMetrics()
	return pm
}

func (p *PrometheusMetrics) registerDefaultMetrics() {
	factory := promauto.With(p.registerer)

	p.counters[MetricEngineOps] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelstore",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations",
		},
		[]string{"operation", "engine"},
	)

	p.counters[MetricEngineErrors] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelstore",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Total number of failed engine operations",
		},
		[]string{"operation", "engine"},
	)

	p.histograms[MetricEngineLatency] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelstore",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "engine"},
	)

	p.histograms[MetricQueryResults] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelstore",
			Subsystem: "query",
			Name:      "results",
			Help:      "Number of items returned by multi-result lookups",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"engine"},
	)

	for _, name := range []string{MetricSaveSuccess, MetricSaveError, MetricDeleteSuccess, MetricDeleteError} {
		p.counters[name] = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: promName(name) + "_total",
				Help: "Total count of " + name,
			},
			[]string{"entity"},
		)
	}

	p.histograms[MetricSaveDuration] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelstore",
			Subsystem: "model",
			Name:      "save_duration_seconds",
			Help:      "Duration of a complete model save in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"entity"},
	)

	p.histograms[MetricShadowWrites] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelstore",
			Subsystem: "shadow",
			Name:      "writes",
			Help:      "Shadow copies written per save",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10, 25},
		},
		[]string{"entity"},
	)

	p.histograms[MetricShadowRemoves] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelstore",
			Subsystem: "shadow",
			Name:      "removes",
			Help:      "Stale shadow copies removed per save or delete",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10, 25},
		},
		[]string{"entity"},
	)
}

// Increment increments a Prometheus counter, creating it on first use.
func (p *PrometheusMetrics) Increment(name string, tags ...string) {
	p.mu.Lock()
	counter, ok := p.counters[name]
	if !ok {
		counter = promauto.With(p.registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: promName(name) + "_total",
				Help: "Dynamic counter: " + name,
			},
			labelNames(tags),
		)
		p.counters[name] = counter
	}
	p.mu.Unlock()

	counter.With(labelValues(tags)).Inc()
}

// Histogram records a value in a Prometheus histogram, creating it on first use.
func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...string) {
	p.mu.Lock()
	histogram, ok := p.histograms[name]
	if !ok {
		histogram = promauto.With(p.registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    promName(name),
				Help:    "Dynamic histogram: " + name,
				Buckets: prometheus.DefBuckets,
			},
			labelNames(tags),
		)
		p.histograms[name] = histogram
	}
	p.mu.Unlock()

	histogram.With(labelValues(tags)).Observe(value)
}

// Timing records a duration in seconds.
func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...string) {
	p.Histogram(name, duration.Seconds(), tags...)
}

// promName turns a dotted metric name into a valid Prometheus name.
func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelNames(tags []string) []string {
	names := make([]string, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		names = append(names, tags[i])
	}
	return names
}

func labelValues(tags []string) prometheus.Labels {
	labels := make(prometheus.Labels, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	return labels
}
