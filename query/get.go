/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/hydrate"
)

// One resolves a single-result query. found is false when the engine has no record, which is
// not an error.
func One[M any](ctx context.Context, engine datastore.Engine, q Resolver, ctor hydrate.Constructor[M]) (m M, found bool, err error) {
	if !q.Single() {
		return m, false, errors.NewValidationError("query", "One requires an exact query on a primary index, use List")
	}

	res, err := resolve(ctx, engine, q)
	if err != nil {
		return m, false, err
	}
	if res == nil || res.Value == nil {
		return m, false, nil
	}

	m, err = ctor(res.Value)
	if err != nil {
		return m, false, err
	}
	return m, true, nil
}

// List resolves a multi-result query and hydrates every item in store order. lastKey is the
// cursor to resume from when a limit cut the scan short.
func List[M any](ctx context.Context, engine datastore.Engine, q Resolver, ctor hydrate.Constructor[M]) (items []M, lastKey string, err error) {
	if q.Single() {
		return nil, "", errors.NewValidationError("query", "List requires a multi-result query, use One")
	}

	res, err := resolve(ctx, engine, q)
	if err != nil {
		return nil, "", err
	}
	if res == nil {
		return []M{}, "", nil
	}

	items = make([]M, 0, len(res.Items))
	for _, item := range res.Items {
		m, err := ctor(item.Value)
		if err != nil {
			return nil, "", err
		}
		items = append(items, m)
	}
	return items, res.LastKey, nil
}

// Keys resolves a multi-result query and returns the raw keys without hydrating values.
func Keys(ctx context.Context, engine datastore.Engine, q Resolver) ([]string, error) {
	if q.Single() {
		return nil, errors.NewValidationError("query", "Keys requires a multi-result query")
	}

	res, err := resolve(ctx, engine, q)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return []string{}, nil
	}

	keys := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		keys = append(keys, item.Key)
	}
	return keys, nil
}
