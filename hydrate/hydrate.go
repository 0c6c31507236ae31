/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package hydrate

import (
	"encoding/json"
	"fmt"

	"github.com/suparena/modelstore/storagemodels"
)

// Hydratable is implemented by types that populate themselves from a raw record.
type Hydratable interface {
	Hydrate(raw storagemodels.Record) error
}

// Constructor builds a populated instance of M from a raw record.
type Constructor[M any] func(raw storagemodels.Record) (M, error)

// FromEmpty adapts a factory of empty instances into a Constructor: every call creates a
// fresh instance and asks it to hydrate itself.
func FromEmpty[M Hydratable](newEmpty func() M) Constructor[M] {
	return func(raw storagemodels.Record) (M, error) {
		m := newEmpty()
		if err := m.Hydrate(raw); err != nil {
			var zero M
			return zero, err
		}
		return m, nil
	}
}

// All hydrates every record with ctor, preserving order.
func All[M any](ctor Constructor[M], raws []storagemodels.Record) ([]M, error) {
	out := make([]M, 0, len(raws))
	for i, raw := range raws {
		m, err := ctor(raw)
		if err != nil {
			return nil, fmt.Errorf("hydrate item %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Decode populates target, a pointer, from raw through its JSON field mapping.
func Decode(raw storagemodels.Record, target any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode record into %T: %w", target, err)
	}
	return nil
}

// Encode turns v into a deep-copied record following its JSON field mapping.
func Encode(v any) (storagemodels.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	var rec storagemodels.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to encode %T as a record: %w", v, err)
	}
	return rec, nil
}
