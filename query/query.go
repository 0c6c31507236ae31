/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/storagemodels"
)

// Key is the type-erased view of a query used by models to declare their access paths.
type Key interface {
	Primary() bool
	Label() storagemodels.Label
	Operator() Operator
	Query() (string, error)
}

// Resolver is a compiled query that can be sent to an engine.
type Resolver interface {
	Single() bool
	Query() (string, error)
	Options() (storagemodels.GetOptions, error)
	Resolve(ctx context.Context, engine datastore.Engine) (*storagemodels.Result, error)
}

// Query binds an Index to an Operation plus pagination options. Queries are values: the
// pagination modifiers return modified copies.
type Query[T any] struct {
	index   Index[T]
	op      Operation[T]
	start   *T
	after   string
	limit   int
	reverse bool
}

var (
	_ Key      = Query[string]{}
	_ Resolver = Query[string]{}
)

// New creates a query applying op to index.
func New[T any](index Index[T], op Operation[T]) Query[T] {
	return Query[T]{index: index, op: op}
}

// Index returns the index the query runs against.
func (q Query[T]) Index() Index[T] { return q.index }

// Operation returns the query operation.
func (q Query[T]) Operation() Operation[T] { return q.op }

// Operator returns the tag of the query operation.
func (q Query[T]) Operator() Operator { return q.op.Operator }

// Primary reports whether the query runs against a primary index.
func (q Query[T]) Primary() bool { return q.index.Primary() }

// Label returns the label of the index, empty for primary indexes.
func (q Query[T]) Label() storagemodels.Label { return q.index.Label() }

// Single reports whether the query resolves to at most one record: an exact operation on a
// primary index. Every other query resolves to an ordered list.
func (q Query[T]) Single() bool {
	return q.op.Operator == OpExact && q.index.Primary()
}

// Reverse returns a copy of the query scanning in descending order.
func (q Query[T]) Reverse() Query[T] {
	q.reverse = true
	return q
}

// StartAt returns a copy of the query resuming after start. The cursor is converted with the
// index converter, so it uses the same encoding as the keys.
func (q Query[T]) StartAt(start T) Query[T] {
	q.start = &start
	q.after = ""
	return q
}

// Resume returns a copy of the query resuming after a LastKey returned by an earlier page. It
// replaces StartAt.
func (q Query[T]) Resume(lastKey string) Query[T] {
	q.after = lastKey
	q.start = nil
	return q
}

// Limit returns a copy of the query returning at most n items.
func (q Query[T]) Limit(n int) Query[T] {
	q.limit = n
	return q
}

// Query compiles the key expression.
func (q Query[T]) Query() (string, error) {
	return q.index.Operate(q.op)
}

// Options compiles the retrieval options. Label is set for secondary indexes; Start, Limit and
// Reverse are only set when requested on a multi-result query.
func (q Query[T]) Options() (storagemodels.GetOptions, error) {
	var opts storagemodels.GetOptions

	if !q.index.Primary() {
		if err := validateLabel(q.index.Label()); err != nil {
			return opts, err
		}
		opts.Label = q.index.Label()
	}
	if q.Single() {
		return opts, nil
	}

	if q.reverse {
		opts.Reverse = true
	}
	switch {
	case q.after != "":
		opts.Start = q.after
	case q.start != nil:
		start, err := q.index.Convert(*q.start)
		if err != nil {
			return opts, err
		}
		opts.Start = start
	}
	if q.limit > 0 {
		opts.Limit = q.limit
	}
	return opts, nil
}

// Resolve runs the query against engine and returns the raw result. Engine errors are
// returned unmodified.
func (q Query[T]) Resolve(ctx context.Context, engine datastore.Engine) (*storagemodels.Result, error) {
	return resolve(ctx, engine, q)
}

func resolve(ctx context.Context, engine datastore.Engine, r Resolver) (*storagemodels.Result, error) {
	key, err := r.Query()
	if err != nil {
		return nil, err
	}
	opts, err := r.Options()
	if err != nil {
		return nil, err
	}
	return engine.Get(ctx, key, opts)
}
