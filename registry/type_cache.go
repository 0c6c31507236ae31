/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// TypeCache associates Go types with data derived from them, such as the resolved
// capabilities of a model type. It is read on every save, so lookups do not lock.
type TypeCache[D any] struct {
	entries *xsync.MapOf[reflect.Type, D]
}

// NewTypeCache creates an empty cache.
func NewTypeCache[D any]() *TypeCache[D] {
	return &TypeCache[D]{entries: xsync.NewMapOf[reflect.Type, D]()}
}

// TypeOf returns the reflect.Type of T, including interface and pointer types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Store associates d with t, replacing any previous entry.
func (c *TypeCache[D]) Store(t reflect.Type, d D) {
	c.entries.Store(t, d)
}

// Load retrieves the entry for t, if any.
func (c *TypeCache[D]) Load(t reflect.Type) (D, bool) {
	return c.entries.Load(t)
}

// LoadOrCompute returns the cached entry for t or computes and caches it. Failed computations
// are not cached. Concurrent callers may compute twice; the first stored result wins.
func (c *TypeCache[D]) LoadOrCompute(t reflect.Type, compute func(reflect.Type) (D, error)) (D, error) {
	if d, ok := c.entries.Load(t); ok {
		return d, nil
	}

	d, err := compute(t)
	if err != nil {
		return d, err
	}
	actual, _ := c.entries.LoadOrStore(t, d)
	return actual, nil
}

// Len returns the number of cached types.
func (c *TypeCache[D]) Len() int {
	return c.entries.Size()
}
