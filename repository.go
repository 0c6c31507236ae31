/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"reflect"

	"github.com/suparena/modelstore/hydrate"
	"github.com/suparena/modelstore/model"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/storagemodels"
)

// Repository provides type-safe persistence and queries for entities of type M.
type Repository[M model.Entity] struct {
	client  *Client
	hydrate hydrate.Constructor[M]
}

// For returns the repository of M, creating it on first use. newEmpty must return a fresh
// zero entity; it is only consulted when the repository is created.
func For[M model.Entity](c *Client, newEmpty func() M) *Repository[M] {
	repo, _ := c.repos.LoadOrCompute(registry.TypeOf[M](), func(reflect.Type) (any, error) {
		return &Repository[M]{
			client:  c,
			hydrate: model.Hydrator(c.store, newEmpty),
		}, nil
	})
	return repo.(*Repository[M])
}

// Save writes m under all of its keys.
func (r *Repository[M]) Save(ctx context.Context, m M) error {
	return r.client.store.Save(ctx, m)
}

// Delete removes m from all of its keys.
func (r *Repository[M]) Delete(ctx context.Context, m M) error {
	return r.client.store.Delete(ctx, m)
}

// One resolves an exact primary query.
func (r *Repository[M]) One(ctx context.Context, q query.Resolver) (M, bool, error) {
	return query.One(ctx, r.client.engine, q, r.hydrate)
}

// List resolves a multi-result query.
func (r *Repository[M]) List(ctx context.Context, q query.Resolver) ([]M, string, error) {
	return query.List(ctx, r.client.engine, q, r.hydrate)
}

// Keys resolves a multi-result query to record keys.
func (r *Repository[M]) Keys(ctx context.Context, q query.Resolver) ([]string, error) {
	return query.Keys(ctx, r.client.engine, q)
}

// Stream pages through a multi-result query.
func (r *Repository[M]) Stream(ctx context.Context, q query.Resolver, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[M] {
	return query.Stream(ctx, r.client.engine, q, r.hydrate, opts...)
}

// Hydrate builds a tracked entity from a raw record.
func (r *Repository[M]) Hydrate(raw storagemodels.Record) (M, error) {
	return r.hydrate(raw)
}

// Decode is Hydrate as a registry.DecodeFunc, for registry.RegisterNamespace.
func (r *Repository[M]) Decode(raw storagemodels.Record) (any, error) {
	return r.hydrate(raw)
}
