/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/model"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/registry"
)

// Client owns an engine and the model store writing through it.
type Client struct {
	engine datastore.CloseableEngine
	store  *model.Store
	logger observability.Logger
	repos  *registry.TypeCache[any]
	sync   func() error
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger     observability.Logger
	metrics    observability.Metrics
	registerer prometheus.Registerer
}

// WithLogger replaces the zap logger Open builds from cfg.LogLevel.
func WithLogger(l observability.Logger) Option {
	return func(o *openOptions) { o.logger = l }
}

// WithMetrics sets the metrics collector. It takes precedence over cfg.Metrics.
func WithMetrics(m observability.Metrics) Option {
	return func(o *openOptions) { o.metrics = m }
}

// WithRegisterer sets where Prometheus collectors are registered when cfg.Metrics is set.
// The default registerer is used otherwise.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *openOptions) { o.registerer = r }
}

// New wraps an open engine. The client takes ownership of it.
func New(engine datastore.CloseableEngine, opts ...model.Option) *Client {
	return &Client{
		engine: engine,
		store:  model.NewStore(engine, opts...),
		logger: &observability.NoOpLogger{},
		repos:  registry.NewTypeCache[any](),
	}
}

// Open validates cfg, opens the configured engine and instruments it with logging and
// metrics. A positive cfg.CacheSize puts a read cache in front of the instrumented engine.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	var syncLogger func() error
	if o.logger == nil {
		zl, err := observability.NewProductionZapLogger(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		o.logger, syncLogger = zl, zl.Sync
	}
	if o.metrics == nil && cfg.Metrics {
		o.metrics = observability.NewPrometheusMetrics(o.registerer)
	}
	o.metrics = observability.MetricsOrNoOp(o.metrics)

	engine, err := OpenEngine(ctx, cfg, o.logger)
	if err != nil {
		return nil, err
	}
	engine = datastore.Instrument(engine, cfg.Engine, o.logger, o.metrics)
	if cfg.CacheSize > 0 {
		cachedEngine, err := datastore.Cache(engine, cfg.CacheSize, o.metrics)
		if err != nil {
			_ = engine.Close()
			return nil, err
		}
		engine = cachedEngine
	}

	c := New(engine,
		model.WithLogger(o.logger),
		model.WithMetrics(o.metrics),
		model.WithMaxShadowKeys(cfg.MaxShadowKeys),
		model.WithShadowConcurrency(cfg.ShadowConcurrency),
	)
	c.logger = o.logger
	c.sync = syncLogger
	c.logger.Info("modelstore opened", "engine", cfg.Engine, "version", Version)
	return c, nil
}

// Engine returns the engine the client writes through.
func (c *Client) Engine() datastore.Engine { return c.engine }

// Store returns the model store.
func (c *Client) Store() *model.Store { return c.store }

// Close closes the engine and flushes the logger Open created.
func (c *Client) Close() error {
	err := c.engine.Close()
	if c.sync != nil {
		// Sync on a terminal stderr fails with ENOTTY.
		_ = c.sync()
	}
	if err != nil {
		return fmt.Errorf("failed to close engine: %w", err)
	}
	return nil
}
