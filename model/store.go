/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

// DefaultMaxShadowKeys is the number of shadow key-sets a Shadowed entity may declare.
const DefaultMaxShadowKeys = 5

// Store saves, deletes and hydrates entities through an engine.
type Store struct {
	engine            datastore.Engine
	codec             Codec
	logger            observability.Logger
	metrics           observability.Metrics
	maxShadowKeys     int
	shadowConcurrency int
}

// Option configures a Store.
type Option func(*Store)

// WithCodec replaces the default JSONCodec.
func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Store) { s.logger = observability.OrNoOp(l) }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m observability.Metrics) Option {
	return func(s *Store) { s.metrics = observability.MetricsOrNoOp(m) }
}

// WithMaxShadowKeys changes the bound on shadow key-sets of Shadowed entities. Zero or less
// keeps DefaultMaxShadowKeys.
func WithMaxShadowKeys(n int) Option {
	return func(s *Store) {
		if n <= 0 {
			n = DefaultMaxShadowKeys
		}
		s.maxShadowKeys = n
	}
}

// WithShadowConcurrency limits how many shadow writes and removals run at once. Zero or less
// means no limit.
func WithShadowConcurrency(n int) Option {
	return func(s *Store) { s.shadowConcurrency = n }
}

// NewStore creates a Store writing through engine.
func NewStore(engine datastore.Engine, opts ...Option) *Store {
	s := &Store{
		engine:        engine,
		codec:         JSONCodec{},
		logger:        &observability.NoOpLogger{},
		metrics:       &observability.NoOpMetrics{},
		maxShadowKeys: DefaultMaxShadowKeys,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine the store writes through.
func (s *Store) Engine() datastore.Engine { return s.engine }

// Save writes e under its primary key and every shadow key. Key and configuration faults are
// reported before anything is written. When the primary key changed since the entity was
// loaded, the old record is removed first; stale shadow records are removed alongside the
// shadow writes. Engine errors are returned unmodified; the entity's snapshots only reflect
// the writes and removals that succeeded.
func (s *Store) Save(ctx context.Context, e Entity) (err error) {
	start := time.Now()
	p, err := s.plan(e, true)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			s.metrics.Increment(observability.MetricSaveError, "entity", p.entity)
			return
		}
		s.metrics.Increment(observability.MetricSaveSuccess, "entity", p.entity)
		s.metrics.Timing(observability.MetricSaveDuration, time.Since(start), "entity", p.entity)
	}()

	record, err := s.codec.Encode(e)
	if err != nil {
		return err
	}

	st := e.state()
	if st.snapshot != "" && st.snapshot != p.primary.key {
		if err := s.engine.Remove(ctx, st.snapshot); err != nil {
			return err
		}
		s.logger.Debug("primary key migrated", "entity", p.entity, "from", st.snapshot, "to", p.primary.key)
		st.snapshot = ""
	}

	if err := s.engine.Set(ctx, p.primary.key, record, p.primary.labels); err != nil {
		return err
	}
	st.snapshot = p.primary.key

	if !p.shadowed {
		return nil
	}
	return s.syncShadows(ctx, p, st, record)
}

// syncShadows removes stale shadow records and writes the current ones concurrently.
func (s *Store) syncShadows(ctx context.Context, p *plan, st *Persistence, record storagemodels.Record) error {
	current := make(map[string]bool, len(p.shadows))
	for _, key := range p.shadowKeys() {
		current[key] = true
	}

	var (
		mu      sync.Mutex
		removed = make(map[string]bool)
		written = make(map[string]bool)
		g       = s.group()
		stale   int
	)

	for _, old := range st.shadowSnapshots {
		if current[old] {
			continue
		}
		stale++
		g.Go(func() error {
			if err := s.engine.Remove(ctx, old); err != nil {
				s.logger.Warn("failed to remove stale shadow", "entity", p.entity, "key", old, "error", err)
				return err
			}
			mu.Lock()
			removed[old] = true
			mu.Unlock()
			return nil
		})
	}

	for _, loc := range p.shadows {
		g.Go(func() error {
			if err := s.engine.Set(ctx, loc.key, record, loc.labels); err != nil {
				s.logger.Warn("failed to write shadow", "entity", p.entity, "key", loc.key, "error", err)
				return err
			}
			mu.Lock()
			written[loc.key] = true
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	next := make([]string, 0, len(p.shadows))
	kept := make(map[string]bool)
	for _, old := range st.shadowSnapshots {
		if !removed[old] && !kept[old] {
			kept[old] = true
			next = append(next, old)
		}
	}
	for _, key := range p.shadowKeys() {
		if written[key] && !kept[key] {
			kept[key] = true
			next = append(next, key)
		}
	}
	st.shadowSnapshots = next

	s.metrics.Histogram(observability.MetricShadowWrites, float64(len(written)), "entity", p.entity)
	s.metrics.Histogram(observability.MetricShadowRemoves, float64(len(removed)), "entity", p.entity)
	if stale > 0 {
		s.logger.Debug("shadow keys changed", "entity", p.entity, "stale", stale, "removed", len(removed))
	}
	return err
}

// Delete removes the record at the current primary key, then every shadow record
// concurrently. Keys the entity was loaded or last saved under are removed too when they
// differ from the current ones, so a changed but unsaved entity leaves nothing behind.
func (s *Store) Delete(ctx context.Context, e Entity) (err error) {
	p, err := s.plan(e, false)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			s.metrics.Increment(observability.MetricDeleteError, "entity", p.entity)
			return
		}
		s.metrics.Increment(observability.MetricDeleteSuccess, "entity", p.entity)
	}()

	st := e.state()
	if st.snapshot != "" && st.snapshot != p.primary.key {
		if err := s.engine.Remove(ctx, st.snapshot); err != nil {
			return err
		}
		st.snapshot = ""
	}
	if err := s.engine.Remove(ctx, p.primary.key); err != nil {
		return err
	}
	st.snapshot = ""

	var targets []string
	seen := make(map[string]bool)
	if p.shadowed {
		targets = p.shadowKeys()
		for _, key := range targets {
			seen[key] = true
		}
	}
	for _, old := range st.shadowSnapshots {
		if !seen[old] {
			seen[old] = true
			targets = append(targets, old)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		removed = make(map[string]bool)
		g       = s.group()
	)
	for _, key := range targets {
		g.Go(func() error {
			if err := s.engine.Remove(ctx, key); err != nil {
				s.logger.Warn("failed to remove shadow", "entity", p.entity, "key", key, "error", err)
				return err
			}
			mu.Lock()
			removed[key] = true
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	next := make([]string, 0, len(st.shadowSnapshots))
	for _, old := range st.shadowSnapshots {
		if !removed[old] {
			next = append(next, old)
		}
	}
	st.shadowSnapshots = next
	s.metrics.Histogram(observability.MetricShadowRemoves, float64(len(removed)), "entity", p.entity)
	return err
}

// Hydrate populates e from a stored record and starts tracking it at its current keys.
func (s *Store) Hydrate(e Entity, raw storagemodels.Record) error {
	if raw == nil {
		return errors.NewValidationError("raw", "cannot hydrate "+entityName(e)+" from an empty record")
	}
	if err := s.codec.Decode(raw, e); err != nil {
		return err
	}
	return s.Track(e)
}

// Track records the current keys of e as its persisted location, as if it had just been
// loaded. Shadow key-sets are not checked against the bound.
func (s *Store) Track(e Entity) error {
	p, err := s.plan(e, false)
	if err != nil {
		return err
	}
	st := e.state()
	st.snapshot = p.primary.key
	st.shadowSnapshots = nil
	if p.shadowed {
		st.shadowSnapshots = p.shadowKeys()
	}
	return nil
}

func (s *Store) group() *errgroup.Group {
	g := new(errgroup.Group)
	if s.shadowConcurrency > 0 {
		g.SetLimit(s.shadowConcurrency)
	}
	return g
}
