/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"fmt"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/storagemodels"
)

// location is one compiled key-set: a primary key plus its labels.
type location struct {
	key    string
	labels storagemodels.LabelSet
}

// plan is every location an entity should be stored at.
type plan struct {
	entity   string
	primary  location
	shadowed bool
	shadows  []location
}

func (p *plan) shadowKeys() []string {
	keys := make([]string, 0, len(p.shadows))
	seen := make(map[string]bool, len(p.shadows))
	for _, s := range p.shadows {
		if !seen[s.key] {
			seen[s.key] = true
			keys = append(keys, s.key)
		}
	}
	return keys
}

// plan compiles the keys of e. With bounded set, the shadow key-set count is checked
// against the store limit.
func (s *Store) plan(e Entity, bounded bool) (*plan, error) {
	name := entityName(e)
	mode, err := modeOf(e)
	if err != nil {
		return nil, err
	}

	primary, err := compile(name, e.Keys())
	if err != nil {
		return nil, err
	}
	p := &plan{entity: name, primary: primary}

	var sets [][]query.Key
	switch mode {
	case boundedShadows:
		sets = e.(Shadowed).ShadowKeys()
		if bounded && len(sets) > s.maxShadowKeys {
			return nil, errors.NewShadowLimitError(name, len(sets), s.maxShadowKeys)
		}
	case unboundedShadows:
		sets = e.(UnboundedShadowed).UnsafeShadowKeysUnbounded()
	default:
		return p, nil
	}

	p.shadowed = true
	p.shadows = make([]location, 0, len(sets))
	for i, set := range sets {
		loc, err := compile(name, set)
		if err != nil {
			return nil, fmt.Errorf("shadow key-set %d: %w", i, err)
		}
		p.shadows = append(p.shadows, loc)
	}
	return p, nil
}

// compile resolves the primary key and the labels of one key-set.
func compile(entity string, keys []query.Key) (location, error) {
	var loc location
	var primaries int

	for _, k := range keys {
		if k.Operator() != query.OpExact {
			return loc, errors.NewConfigurationError(entity, errors.ErrInvalidKey,
				fmt.Sprintf("keys must be exact queries, got %s", k.Operator()))
		}

		compiled, err := k.Query()
		if err != nil {
			return loc, err
		}

		if k.Primary() {
			if compiled == "" {
				return loc, errors.NewValidationError("key", entity+": primary key compiles to an empty string")
			}
			primaries++
			loc.key = compiled
			continue
		}

		label := k.Label()
		if !label.Valid() {
			return loc, errors.NewConfigurationError(entity, errors.ErrInvalidKey,
				fmt.Sprintf("unknown label %q, expected one of %v", label, storagemodels.Labels))
		}
		if loc.labels == nil {
			loc.labels = make(storagemodels.LabelSet)
		}
		if _, dup := loc.labels[label]; dup {
			return loc, errors.NewConfigurationError(entity, errors.ErrDuplicateLabel,
				fmt.Sprintf("label %s is used by more than one key", label))
		}
		loc.labels[label] = compiled
	}

	switch {
	case primaries == 0:
		return loc, errors.NewMissingPrimaryKeyError(entity)
	case primaries > 1:
		return loc, errors.NewConfigurationError(entity, errors.ErrMultiplePrimaryKeys,
			fmt.Sprintf("%d keys target a primary index, expected exactly one", primaries))
	}
	if loc.labels == nil {
		loc.labels = storagemodels.LabelSet{}
	}
	return loc, nil
}
