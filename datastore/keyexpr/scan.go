/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package keyexpr

import (
	"strings"

	"github.com/suparena/modelstore/storagemodels"
)

// SeekBounds returns the sort key an ordered forward scan starts at and the sort key a reverse
// scan starts at or below. An empty reverse seek means the end of the namespace. Index entries
// may extend a sort key with "\x00" and a suffix.
func (e Expr) SeekBounds(opts storagemodels.GetOptions) (forward, reverse string) {
	switch e.Op {
	case Exact, Prefix, GreaterEq, Greater, Between:
		forward = e.Value
	}

	// v+"\x01" is past v and past every v+"\x00"+suffix.
	switch e.Op {
	case Exact, LessEq:
		reverse = e.Value + "\x01"
	case Less:
		reverse = e.Value
	case Between:
		reverse = e.Upper + "\x01"
	case Prefix:
		reverse, _ = PrefixEnd(e.Value)
	}

	if opts.Start != "" {
		if !opts.Reverse && opts.Start > forward {
			forward = opts.Start
		}
		if opts.Reverse && (reverse == "" || opts.Start < reverse) {
			reverse = opts.Start
		}
	}
	return forward, reverse
}

// Beyond reports whether sortKey, and therefore every later key in scan direction, lies
// outside the expression's range.
func (e Expr) Beyond(sortKey string, reverse bool) bool {
	if reverse {
		switch e.Op {
		case Exact, Prefix, GreaterEq:
			return sortKey < e.Value
		case Greater:
			return sortKey <= e.Value
		case Between:
			return sortKey < e.Value
		}
		return false
	}
	switch e.Op {
	case Exact, LessEq:
		return sortKey > e.Value
	case Less:
		return sortKey >= e.Value
	case Prefix:
		return sortKey > e.Value && !strings.HasPrefix(sortKey, e.Value)
	case Between:
		return sortKey > e.Upper
	}
	return false
}
