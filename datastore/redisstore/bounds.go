/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redisstore

import (
	"strings"

	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/storagemodels"
)

// bound is one end of a sort-key range. The zero value is unbounded.
type bound struct {
	value     string
	inclusive bool
	set       bool
}

func incl(v string) bound { return bound{value: v, inclusive: true, set: true} }
func excl(v string) bound { return bound{value: v, set: true} }

// sortRange is the closed, open or half-open range of sort keys an expression selects.
type sortRange struct {
	lower, upper bound
	// after is a labelled cursor, a label set member the scan resumes past.
	after   string
	reverse bool
}

// rangeOf converts a key expression and the start cursor into a sort-key range.
func rangeOf(e keyexpr.Expr, opts storagemodels.GetOptions) sortRange {
	var r sortRange
	switch e.Op {
	case keyexpr.Exact:
		r.lower, r.upper = incl(e.Value), incl(e.Value)
	case keyexpr.Prefix:
		if e.Value != "" {
			r.lower = incl(e.Value)
			if next, ok := keyexpr.PrefixEnd(e.Value); ok {
				r.upper = excl(next)
			}
		}
	case keyexpr.Less:
		r.upper = excl(e.Value)
	case keyexpr.LessEq:
		r.upper = incl(e.Value)
	case keyexpr.Greater:
		r.lower = excl(e.Value)
	case keyexpr.GreaterEq:
		r.lower = incl(e.Value)
	case keyexpr.Between:
		r.lower, r.upper = incl(e.Value), incl(e.Upper)
	}

	switch {
	case opts.Start == "":
	case opts.Label != "" && strings.Contains(opts.Start, "\x00"):
		r.after, r.reverse = opts.Start, opts.Reverse
	default:
		if opts.Reverse {
			r.upper = tighterUpper(r.upper, excl(opts.Start))
		} else {
			r.lower = tighterLower(r.lower, excl(opts.Start))
		}
	}
	return r
}

func tighterLower(a, b bound) bound {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	case a.value != b.value:
		if a.value > b.value {
			return a
		}
		return b
	case !a.inclusive:
		return a
	default:
		return b
	}
}

func tighterUpper(a, b bound) bound {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	case a.value != b.value:
		if a.value < b.value {
			return a
		}
		return b
	case !a.inclusive:
		return a
	default:
		return b
	}
}

// Namespace sets hold bare sort keys, so bounds map onto ZRANGEBYLEX syntax directly.
func (r sortRange) namespaceLex() (lo, hi string) {
	lo, hi = "-", "+"
	if r.lower.set {
		lo = lexBound(r.lower.value, r.lower.inclusive)
	}
	if r.upper.set {
		hi = lexBound(r.upper.value, r.upper.inclusive)
	}
	return lo, hi
}

// Label sets hold "sortKey\x00primaryKey" members. A sort key v owns every member between
// "v\x00" and "v\x01", which shifts the bounds.
func (r sortRange) labelLex() (lo, hi string) {
	lo, hi = "-", "+"
	if r.lower.set {
		if r.lower.inclusive {
			lo = "[" + r.lower.value
		} else {
			lo = "[" + r.lower.value + "\x01"
		}
	}
	if r.upper.set {
		if r.upper.inclusive {
			hi = "(" + r.upper.value + "\x01"
		} else {
			hi = "(" + r.upper.value
		}
	}
	switch {
	case r.after == "":
	case r.reverse:
		hi = lowerOf(hi, "("+r.after)
	default:
		lo = higherOf(lo, "("+r.after)
	}
	return lo, hi
}

// higherOf returns the tighter of two ZRANGEBYLEX lower bounds; neither is "+".
func higherOf(a, b string) string {
	switch {
	case a == "-":
		return b
	case b == "-":
		return a
	case a[1:] != b[1:]:
		if a[1:] > b[1:] {
			return a
		}
		return b
	case a[0] == '(':
		return a
	default:
		return b
	}
}

// lowerOf returns the tighter of two ZRANGEBYLEX upper bounds; neither is "-".
func lowerOf(a, b string) string {
	switch {
	case a == "+":
		return b
	case b == "+":
		return a
	case a[1:] != b[1:]:
		if a[1:] < b[1:] {
			return a
		}
		return b
	case a[0] == '(':
		return a
	default:
		return b
	}
}

func lexBound(v string, inclusive bool) string {
	if inclusive {
		return "[" + v
	}
	return "(" + v
}
