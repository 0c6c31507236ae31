/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/suparena/modelstore/casing"
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

// cached keeps the results of exact primary lookups, including absences, in an LRU. Set and
// Remove evict the key they write. List lookups always reach the wrapped engine.
type cached struct {
	next    Engine
	entries *lru.Cache[string, storagemodels.Record]
	// writes counts Set and Remove calls; a lookup that raced a write is not cached.
	writes atomic.Uint64
	// mu orders the version check and fill of a lookup against the eviction of a write.
	mu      sync.Mutex
	metrics observability.Metrics
}

// Cache decorates engine with a read cache of size entries. Records handed out are copies.
// Writes that bypass the returned engine are not seen by the cache.
func Cache(engine Engine, size int, metrics observability.Metrics) (CloseableEngine, error) {
	entries, err := lru.New[string, storagemodels.Record](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &cached{
		next:    engine,
		entries: entries,
		metrics: observability.MetricsOrNoOp(metrics),
	}, nil
}

func (c *cached) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	if !keyexpr.Single(key, opts) {
		return c.next.Get(ctx, key, opts)
	}
	if rec, ok := c.entries.Get(key); ok {
		c.metrics.Increment(observability.MetricCacheHits)
		return &storagemodels.Result{Value: casing.Clone(rec)}, nil
	}
	c.metrics.Increment(observability.MetricCacheMisses)

	version := c.writes.Load()
	res, err := c.next.Get(ctx, key, opts)
	if err != nil {
		return nil, err
	}
	var rec storagemodels.Record
	if res != nil {
		rec = res.Value
	}
	c.mu.Lock()
	if c.writes.Load() == version {
		c.entries.Add(key, casing.Clone(rec))
	}
	c.mu.Unlock()
	return res, nil
}

func (c *cached) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
	c.writes.Add(1)
	defer c.evict(key)
	return c.next.Set(ctx, key, value, labels)
}

func (c *cached) Remove(ctx context.Context, key string) error {
	c.writes.Add(1)
	defer c.evict(key)
	return c.next.Remove(ctx, key)
}

func (c *cached) evict(key string) {
	c.mu.Lock()
	c.entries.Remove(key)
	c.mu.Unlock()
}

// Close drops the cache and closes the wrapped engine if it holds resources.
func (c *cached) Close() error {
	c.entries.Purge()
	if cl, ok := c.next.(CloseableEngine); ok {
		return cl.Close()
	}
	return nil
}
