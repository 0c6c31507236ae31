/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"reflect"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/registry"
)

// Persistence holds where an entity was last persisted. Embed it in entity structs; its
// fields are unexported and never encoded.
type Persistence struct {
	snapshot        string
	shadowSnapshots []string
}

func (p *Persistence) state() *Persistence { return p }

// Snapshot returns the primary key the entity was last saved or loaded under, empty for
// transient entities.
func (p *Persistence) Snapshot() string { return p.snapshot }

// ShadowSnapshots returns the shadow primary keys the entity was last persisted under.
func (p *Persistence) ShadowSnapshots() []string {
	return append([]string(nil), p.shadowSnapshots...)
}

// Persisted reports whether the entity is tracked.
func (p *Persistence) Persisted() bool { return p.snapshot != "" }

// Entity is a storable model. Keys must contain exactly one exact key on a primary index;
// secondary keys must use distinct labels.
type Entity interface {
	Keys() []query.Key
	state() *Persistence
}

// Shadowed entities are also stored under every key-set returned by ShadowKeys. Each
// key-set follows the same rules as Keys. The number of key-sets is bounded.
type Shadowed interface {
	ShadowKeys() [][]query.Key
}

// UnboundedShadowed is Shadowed without the bound on the number of key-sets.
type UnboundedShadowed interface {
	UnsafeShadowKeysUnbounded() [][]query.Key
}

type shadowMode int

const (
	unshadowed shadowMode = iota
	boundedShadows
	unboundedShadows
)

var shadowModes = registry.NewTypeCache[shadowMode]()

var (
	shadowedType          = registry.TypeOf[Shadowed]()
	unboundedShadowedType = registry.TypeOf[UnboundedShadowed]()
)

// modeOf resolves the shadow capability of the entity type once per type.
func modeOf(e Entity) (shadowMode, error) {
	return shadowModes.LoadOrCompute(reflect.TypeOf(e), func(t reflect.Type) (shadowMode, error) {
		bounded := t.Implements(shadowedType)
		unbounded := t.Implements(unboundedShadowedType)
		switch {
		case bounded && unbounded:
			return unshadowed, errors.NewConfigurationError(entityName(e), errors.ErrConflictingShadowKeys,
				"implement either ShadowKeys or UnsafeShadowKeysUnbounded, not both")
		case bounded:
			return boundedShadows, nil
		case unbounded:
			return unboundedShadows, nil
		default:
			return unshadowed, nil
		}
	})
}

func entityName(e any) string {
	t := reflect.TypeOf(e)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}
