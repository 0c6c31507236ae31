/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// IndexOptions describes one access path.
type IndexOptions[T any] struct {
	// Namespace prefixes every key of the index with "Namespace:". Range and partial
	// operators are only meaningful within a namespace.
	Namespace string

	// Label makes the index secondary. It must be one of storagemodels.Labels and must be
	// unique among the keys of a model.
	Label storagemodels.Label

	// Converter renders values into key strings. DefaultConverter is used when nil.
	Converter Converter[T]
}

// Index is an access path over values of type T. The zero value is an anonymous primary index.
type Index[T any] struct {
	options IndexOptions[T]
}

// BuildIndex creates an index. Construction is pure: identical options always compile
// identical keys.
func BuildIndex[T any](opts IndexOptions[T]) Index[T] {
	return Index[T]{options: opts}
}

// Options returns the options the index was built with.
func (i Index[T]) Options() IndexOptions[T] {
	return i.options
}

// Namespace returns the namespace of the index, if any.
func (i Index[T]) Namespace() string {
	return i.options.Namespace
}

// Label returns the label of a secondary index, empty for primary indexes.
func (i Index[T]) Label() storagemodels.Label {
	return i.options.Label
}

// Primary reports whether the index has no label.
func (i Index[T]) Primary() bool {
	return i.options.Label == ""
}

// Convert renders a single value with the index converter.
func (i Index[T]) Convert(v T) (string, error) {
	if i.options.Converter != nil {
		return i.options.Converter(v)
	}
	return DefaultConverter(v)
}

// Operate compiles op into a key expression.
func (i Index[T]) Operate(op Operation[T]) (string, error) {
	rendered, err := op.Render(i.Convert)
	if err != nil {
		return "", err
	}
	if i.options.Namespace != "" {
		return i.options.Namespace + ":" + rendered, nil
	}
	return rendered, nil
}

func (i Index[T]) query(op Operation[T]) Query[T] {
	return Query[T]{index: i, op: op}
}

// All scans the whole namespace.
func (i Index[T]) All() Query[T] { return i.query(All[T]()) }

// Exact looks up one key. On a primary index the query resolves to at most one record.
func (i Index[T]) Exact(v T) Query[T] { return i.query(Equals(v)) }

// Equals is an alias of Exact.
func (i Index[T]) Equals(v T) Query[T] { return i.Exact(v) }

// Partial scans keys starting with v.
func (i Index[T]) Partial(v T) Query[T] { return i.query(Partial(v)) }

// LessThan scans keys strictly before v.
func (i Index[T]) LessThan(v T) Query[T] { return i.query(LessThan(v)) }

// GreaterThan scans keys strictly after v.
func (i Index[T]) GreaterThan(v T) Query[T] { return i.query(GreaterThan(v)) }

// Leq scans keys before or at v.
func (i Index[T]) Leq(v T) Query[T] { return i.query(LessThanOrEqual(v)) }

// Geq scans keys at or after v.
func (i Index[T]) Geq(v T) Query[T] { return i.query(GreaterThanOrEqual(v)) }

// Before is an alias of LessThan.
func (i Index[T]) Before(v T) Query[T] { return i.LessThan(v) }

// After is an alias of GreaterThan.
func (i Index[T]) After(v T) Query[T] { return i.GreaterThan(v) }

// Between scans the closed range [a, b].
func (i Index[T]) Between(a, b T) Query[T] { return i.query(Between(a, b)) }

func validateLabel(label storagemodels.Label) error {
	if label != "" && !label.Valid() {
		return errors.NewValidationError("label", fmt.Sprintf("unknown label %q, expected one of %v", label, storagemodels.Labels))
	}
	return nil
}

func errInvalidOperation[T any](o Operation[T]) error {
	return errors.NewValidationError("operation", fmt.Sprintf("%s operation with %d arguments", o.Operator, len(o.Args)))
}
