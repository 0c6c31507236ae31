/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory datastore.Engine for tests.
//
// The engine keeps records ordered by sort key, honours labels, cursors, limits and
// reverse scans like the real adapters, records every mutating call, and can be told to
// fail specific operations.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// Op names a mutating engine call.
type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// Call is one recorded Set or Remove, in arrival order.
type Call struct {
	Op     Op
	Key    string
	Labels storagemodels.LabelSet
}

type entry struct {
	value  storagemodels.Record
	labels storagemodels.LabelSet
}

// Engine is an in-memory datastore.Engine.
type Engine struct {
	mu      sync.RWMutex
	records map[string]entry
	calls   []Call

	getError     error
	setError     error
	removeError  error
	setFailures  map[string]error
	remFailures  map[string]error
	strictRemove bool
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		records:     make(map[string]entry),
		setFailures: make(map[string]error),
		remFailures: make(map[string]error),
	}
}

// WithGetError makes every Get return err.
func (m *Engine) WithGetError(err error) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
	return m
}

// WithSetError makes every Set return err.
func (m *Engine) WithSetError(err error) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setError = err
	return m
}

// WithRemoveError makes every Remove return err.
func (m *Engine) WithRemoveError(err error) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeError = err
	return m
}

// FailSetOn makes Set of one key return err.
func (m *Engine) FailSetOn(key string, err error) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setFailures[key] = err
	return m
}

// FailRemoveOn makes Remove of one key return err.
func (m *Engine) FailRemoveOn(key string, err error) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remFailures[key] = err
	return m
}

// WithStrictRemove makes Remove of an absent key return a NotFoundError instead of
// succeeding.
func (m *Engine) WithStrictRemove() *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strictRemove = true
	return m
}

// Get implements datastore.Engine.
func (m *Engine) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}

	if keyexpr.Single(key, opts) {
		e, ok := m.records[key]
		if !ok {
			return &storagemodels.Result{}, nil
		}
		return &storagemodels.Result{Value: cloneRecord(e.value)}, nil
	}

	expr := keyexpr.Parse(key)
	var cands []keyexpr.Candidate
	for pk, e := range m.records {
		if opts.Label == "" {
			ns, sk := keyexpr.Split(pk)
			if ns == expr.Namespace && expr.Match(sk) {
				cands = append(cands, keyexpr.Candidate{SortKey: sk, Key: pk})
			}
			continue
		}
		lv, ok := e.labels[opts.Label]
		if !ok {
			continue
		}
		ns, sk := keyexpr.Split(lv)
		if ns == expr.Namespace && expr.Match(sk) {
			cands = append(cands, keyexpr.Candidate{SortKey: sk, Key: pk})
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		return keyexpr.Before(cands[i], cands[j], opts)
	})

	kept, lastKey := keyexpr.Window(cands, opts)
	res := &storagemodels.Result{Items: make([]storagemodels.Item, 0, len(kept)), LastKey: lastKey}
	for _, c := range kept {
		res.Items = append(res.Items, storagemodels.Item{Key: c.Key, Value: cloneRecord(m.records[c.Key].value)})
	}
	return res, nil
}

// Set implements datastore.Engine.
func (m *Engine) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: OpSet, Key: key, Labels: cloneLabels(labels)})
	if m.setError != nil {
		return m.setError
	}
	if err := m.setFailures[key]; err != nil {
		return err
	}
	for label := range labels {
		if !label.Valid() {
			return errors.NewValidationError("labels", "unknown label "+string(label))
		}
	}

	m.records[key] = entry{value: cloneRecord(value), labels: cloneLabels(labels)}
	return nil
}

// Remove implements datastore.Engine.
func (m *Engine) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Op: OpRemove, Key: key})
	if m.removeError != nil {
		return m.removeError
	}
	if err := m.remFailures[key]; err != nil {
		return err
	}
	if _, ok := m.records[key]; !ok {
		if m.strictRemove {
			return errors.NewNotFoundError(key)
		}
		return nil
	}

	delete(m.records, key)
	return nil
}

// Close implements datastore.CloseableEngine.
func (m *Engine) Close() error { return nil }

// Helper methods for testing

// Keys returns the stored primary keys in order.
func (m *Engine) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record returns a copy of the stored record.
func (m *Engine) Record(key string) (storagemodels.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.records[key]
	if !ok {
		return nil, false
	}
	return cloneRecord(e.value), true
}

// Labels returns a copy of the labels stored with key.
func (m *Engine) Labels(key string) storagemodels.LabelSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLabels(m.records[key].labels)
}

// Calls returns the recorded Set and Remove calls.
func (m *Engine) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// ResetCalls forgets recorded calls.
func (m *Engine) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Count returns the number of stored records.
func (m *Engine) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Clear removes all records, recorded calls and injected failures.
func (m *Engine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]entry)
	m.calls = nil
	m.getError, m.setError, m.removeError = nil, nil, nil
	m.setFailures = make(map[string]error)
	m.remFailures = make(map[string]error)
}

func cloneLabels(labels storagemodels.LabelSet) storagemodels.LabelSet {
	if labels == nil {
		return nil
	}
	out := make(storagemodels.LabelSet, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func cloneRecord(r storagemodels.Record) storagemodels.Record {
	if r == nil {
		return nil
	}
	return cloneValue(r).(storagemodels.Record)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case storagemodels.Record:
		out := make(storagemodels.Record, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
