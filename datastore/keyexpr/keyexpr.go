/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package keyexpr parses the key expressions produced by the query package on the engine side.
//
// A key expression is "namespace:sortKey". The namespace is the text before the first colon;
// keys without a colon live in the default (empty) namespace. The sort key part may carry
// one operator:
//
//	n:*       every key of the namespace
//	n:p*      keys starting with p
//	n:<v      keys before v (n:<=v includes v)
//	n:>v      keys after v (n:>=v includes v)
//	n:a|b     keys in the closed range [a, b]
//
// Anything else is an exact key.
package keyexpr

import (
	"strings"

	"github.com/suparena/modelstore/storagemodels"
)

// Op is the operator of a parsed expression.
type Op int

const (
	Exact Op = iota
	Prefix
	Less
	LessEq
	Greater
	GreaterEq
	Between
)

// Expr is a parsed key expression.
type Expr struct {
	Namespace string
	Op        Op
	// Value is the operand; the lower bound for Between.
	Value string
	// Upper is the upper bound for Between.
	Upper string
}

// Split separates the namespace from the sort key at the first colon.
func Split(key string) (namespace, sortKey string) {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

// Join is the inverse of Split.
func Join(namespace, sortKey string) string {
	if namespace == "" {
		return sortKey
	}
	return namespace + ":" + sortKey
}

// Parse parses a key expression.
func Parse(key string) Expr {
	ns, rest := Split(key)
	e := Expr{Namespace: ns}

	switch {
	case rest == "*":
		e.Op = Prefix
	case strings.HasPrefix(rest, "<="):
		e.Op, e.Value = LessEq, rest[2:]
	case strings.HasPrefix(rest, ">="):
		e.Op, e.Value = GreaterEq, rest[2:]
	case strings.HasPrefix(rest, "<"):
		e.Op, e.Value = Less, rest[1:]
	case strings.HasPrefix(rest, ">"):
		e.Op, e.Value = Greater, rest[1:]
	case strings.HasSuffix(rest, "*"):
		e.Op, e.Value = Prefix, rest[:len(rest)-1]
	case strings.Contains(rest, "|"):
		i := strings.IndexByte(rest, '|')
		e.Op, e.Value, e.Upper = Between, rest[:i], rest[i+1:]
	default:
		e.Op, e.Value = Exact, rest
	}
	return e
}

// Match reports whether sortKey satisfies the expression. The namespace is not checked.
func (e Expr) Match(sortKey string) bool {
	switch e.Op {
	case Exact:
		return sortKey == e.Value
	case Prefix:
		return strings.HasPrefix(sortKey, e.Value)
	case Less:
		return sortKey < e.Value
	case LessEq:
		return sortKey <= e.Value
	case Greater:
		return sortKey > e.Value
	case GreaterEq:
		return sortKey >= e.Value
	case Between:
		return e.Value <= sortKey && sortKey <= e.Upper
	default:
		return false
	}
}

// PrefixEnd returns the smallest string greater than every string starting with p. ok is
// false when no such string exists (p is empty or all 0xff bytes).
func PrefixEnd(p string) (end string, ok bool) {
	b := []byte(p)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}

// Single reports whether a lookup returns the single-value shape: an exact key without a
// label.
func Single(key string, opts storagemodels.GetOptions) bool {
	return opts.Label == "" && Parse(key).Op == Exact
}

// Candidate is a matching entry found by an engine scan, before values are loaded.
type Candidate struct {
	// SortKey is the key the scan is ordered by: the record sort key, or the label sort key
	// for labelled lookups.
	SortKey string
	// Key is the primary key of the record.
	Key string
}

// Cursor returns the position of c in a scan: its sort key, or on labelled scans, where
// several records may share a label sort key, the label sort key followed by "\x00" and the
// primary key.
func (c Candidate) Cursor(opts storagemodels.GetOptions) string {
	if opts.Label == "" {
		return c.SortKey
	}
	return c.SortKey + "\x00" + c.Key
}

// Before reports whether a comes before b in scan direction.
func Before(a, b Candidate, opts storagemodels.GetOptions) bool {
	if opts.Reverse {
		a, b = b, a
	}
	if a.SortKey != b.SortKey {
		return a.SortKey < b.SortKey
	}
	return opts.Label != "" && a.Key < b.Key
}

// PastStart reports whether c lies after the exclusive start cursor in scan direction. A
// labelled scan started from a plain sort key skips every record with that sort key; one
// started from a Cursor resumes right after that record. Without a cursor every candidate is
// past the start.
func PastStart(c Candidate, opts storagemodels.GetOptions) bool {
	if opts.Start == "" {
		return true
	}
	pos := c.SortKey
	if opts.Label != "" && strings.Contains(opts.Start, "\x00") {
		pos = c.Cursor(opts)
	}
	if opts.Reverse {
		return pos < opts.Start
	}
	return pos > opts.Start
}

// Window applies the exclusive start cursor and the limit to candidates that are already
// ordered in scan direction. lastKey is the Cursor of the last kept candidate, set only when
// the limit cut the scan short.
func Window(cands []Candidate, opts storagemodels.GetOptions) (kept []Candidate, lastKey string) {
	kept = make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !PastStart(c, opts) {
			continue
		}
		if opts.Limit > 0 && len(kept) == opts.Limit {
			lastKey = kept[len(kept)-1].Cursor(opts)
			break
		}
		kept = append(kept, c)
	}
	return kept, lastKey
}
