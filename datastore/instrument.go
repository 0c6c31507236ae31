/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"time"

	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

// instrumented wraps an Engine with logging and metrics. Errors are returned unmodified.
type instrumented struct {
	next    Engine
	name    string
	logger  observability.Logger
	metrics observability.Metrics
}

// Instrument decorates engine so that every call is counted, timed and logged at debug level,
// and every failure is logged as a warning. name identifies the engine in metric tags.
func Instrument(engine Engine, name string, logger observability.Logger, metrics observability.Metrics) CloseableEngine {
	return &instrumented{
		next:    engine,
		name:    name,
		logger:  observability.OrNoOp(logger),
		metrics: observability.MetricsOrNoOp(metrics),
	}
}

func (i *instrumented) observe(op, key string, start time.Time, err error) {
	tags := []string{"operation", op, "engine", i.name}
	i.metrics.Increment(observability.MetricEngineOps, tags...)
	i.metrics.Timing(observability.MetricEngineLatency, time.Since(start), tags...)
	if err != nil {
		i.metrics.Increment(observability.MetricEngineErrors, tags...)
		i.logger.Warn("engine operation failed", "operation", op, "engine", i.name, "key", key, "error", err)
		return
	}
	i.logger.Debug("engine operation", "operation", op, "engine", i.name, "key", key, "duration", time.Since(start))
}

func (i *instrumented) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	start := time.Now()
	res, err := i.next.Get(ctx, key, opts)
	i.observe("get", key, start, err)
	if err == nil && res != nil && res.Value == nil {
		i.metrics.Histogram(observability.MetricQueryResults, float64(len(res.Items)), "engine", i.name)
	}
	return res, err
}

func (i *instrumented) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value, labels)
	i.observe("set", key, start, err)
	return err
}

func (i *instrumented) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Remove(ctx, key)
	i.observe("remove", key, start, err)
	return err
}

// Close closes the wrapped engine if it holds resources.
func (i *instrumented) Close() error {
	if c, ok := i.next.(CloseableEngine); ok {
		return c.Close()
	}
	return nil
}
