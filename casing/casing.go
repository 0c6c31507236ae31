/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package casing renames the keys of nested records between the JSON field names of Go
// types and the snake_case used in stored records.
package casing

import (
	"github.com/suparena/modelstore/storagemodels"
)

// Func renames one key.
type Func func(string) string

// Clone returns a deep copy of the maps and slices of rec.
func Clone(rec storagemodels.Record) storagemodels.Record {
	return Transform(rec, func(k string) string { return k })
}

// Transform returns a copy of rec with every map key renamed by fn. Values inside slices are
// transformed too; scalars are shared.
func Transform(rec storagemodels.Record, fn Func) storagemodels.Record {
	if rec == nil {
		return nil
	}
	return transform(rec, fn).(storagemodels.Record)
}

func transform(v any, fn Func) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fn(k)] = transform(val, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = transform(val, fn)
		}
		return out
	default:
		return v
	}
}
