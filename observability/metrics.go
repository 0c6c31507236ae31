/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package observability

import (
	"sync"
	"time"
)

// Metrics records counters and distributions for modelstore operations.
type Metrics interface {
	// Increment increases a counter by 1
	Increment(name string, tags ...string)

	// Histogram records a value distribution (result counts, fan-out sizes)
	Histogram(name string, value float64, tags ...string)

	// Timing records a duration
	Timing(name string, duration time.Duration, tags ...string)
}

// NoOpMetrics is a metrics collector that does nothing.
type NoOpMetrics struct{}

func (m *NoOpMetrics) Increment(name string, tags ...string)                      {}
func (m *NoOpMetrics) Histogram(name string, value float64, tags ...string)       {}
func (m *NoOpMetrics) Timing(name string, duration time.Duration, tags ...string) {}

// MetricsOrNoOp returns m, or a NoOpMetrics when m is nil.
func MetricsOrNoOp(m Metrics) Metrics {
	if m == nil {
		return &NoOpMetrics{}
	}
	return m
}

// InMemoryMetrics stores metrics in memory for tests. Tags are ignored.
type InMemoryMetrics struct {
	mu         sync.Mutex
	counters   map[string]int
	histograms map[string][]float64
	timings    map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]int),
		histograms: make(map[string][]float64),
		timings:    make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Increment(name string, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = append(m.histograms[name], value)
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], duration)
}

// Counter returns the current value of a counter.
func (m *InMemoryMetrics) Counter(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Observations returns the values recorded for a histogram.
func (m *InMemoryMetrics) Observations(name string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.histograms[name]...)
}

// Timings returns the durations recorded for a timing.
func (m *InMemoryMetrics) Timings(name string) []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.timings[name]...)
}

// Common metric names
const (
	MetricEngineOps     = "modelstore.engine.ops"
	MetricEngineErrors  = "modelstore.engine.errors"
	MetricEngineLatency = "modelstore.engine.latency"
	MetricQueryResults  = "modelstore.query.results"
	MetricCacheHits     = "modelstore.cache.hits"
	MetricCacheMisses   = "modelstore.cache.misses"

	MetricSaveSuccess   = "modelstore.model.save.success"
	MetricSaveError     = "modelstore.model.save.error"
	MetricSaveDuration  = "modelstore.model.save.duration"
	MetricDeleteSuccess = "modelstore.model.delete.success"
	MetricDeleteError   = "modelstore.model.delete.error"
	MetricShadowWrites  = "modelstore.shadow.writes"
	MetricShadowRemoves = "modelstore.shadow.removes"
)
