/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"strings"

	"github.com/suparena/modelstore/hydrate"
	"github.com/suparena/modelstore/storagemodels"
)

// Hydrator returns a constructor that builds tracked entities from stored records, for use
// with query.One, query.List and query.Stream.
func Hydrator[M Entity](s *Store, newEmpty func() M) hydrate.Constructor[M] {
	return func(raw storagemodels.Record) (M, error) {
		m := newEmpty()
		if err := s.Hydrate(m, raw); err != nil {
			var zero M
			return zero, err
		}
		return m, nil
	}
}

// Clean returns a serialization-ready copy of v using its JSON field names, without
// persistence bookkeeping, and with every dotted path in exclude removed. Paths that do not
// resolve are ignored. Field names are not re-cased.
func Clean(v any, exclude ...string) (storagemodels.Record, error) {
	rec, err := hydrate.Encode(v)
	if err != nil {
		return nil, err
	}
	for _, path := range exclude {
		deletePath(rec, strings.Split(path, "."))
	}
	return rec, nil
}

func deletePath(m map[string]any, path []string) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		delete(m, path[0])
		return
	}
	next, ok := m[path[0]].(map[string]any)
	if !ok {
		return
	}
	deletePath(next, path[1:])
}
