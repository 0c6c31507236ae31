/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package keyexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/modelstore/storagemodels"
)

func TestParse(t *testing.T) {
	tests := []struct {
		key  string
		want Expr
	}{
		{"User:*", Expr{Namespace: "User", Op: Prefix}},
		{"User:bo*", Expr{Namespace: "User", Op: Prefix, Value: "bo"}},
		{"User:<=k", Expr{Namespace: "User", Op: LessEq, Value: "k"}},
		{"User:>=k", Expr{Namespace: "User", Op: GreaterEq, Value: "k"}},
		{"User:<k", Expr{Namespace: "User", Op: Less, Value: "k"}},
		{"User:>k", Expr{Namespace: "User", Op: Greater, Value: "k"}},
		{"User:a|b", Expr{Namespace: "User", Op: Between, Value: "a", Upper: "b"}},
		{"User:k", Expr{Namespace: "User", Op: Exact, Value: "k"}},
		{"k", Expr{Op: Exact, Value: "k"}},
		{"O:T_boba:X_Origato:Yo", Expr{Namespace: "O", Op: Exact, Value: "T_boba:X_Origato:Yo"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.key))
		})
	}
}

func TestSplitJoin(t *testing.T) {
	ns, sk := Split("A:b:c")
	assert.Equal(t, "A", ns)
	assert.Equal(t, "b:c", sk)
	assert.Equal(t, "A:b:c", Join(ns, sk))

	ns, sk = Split("plain")
	assert.Equal(t, "", ns)
	assert.Equal(t, "plain", sk)
	assert.Equal(t, "plain", Join(ns, sk))
}

func TestMatch(t *testing.T) {
	assert.True(t, Parse("N:*").Match("anything"))
	assert.True(t, Parse("N:ab*").Match("abc"))
	assert.False(t, Parse("N:ab*").Match("b"))
	assert.True(t, Parse("N:<b").Match("a"))
	assert.False(t, Parse("N:<b").Match("b"))
	assert.True(t, Parse("N:<=b").Match("b"))
	assert.True(t, Parse("N:>b").Match("c"))
	assert.False(t, Parse("N:>b").Match("b"))
	assert.True(t, Parse("N:>=b").Match("b"))
	assert.True(t, Parse("N:b|d").Match("b"))
	assert.True(t, Parse("N:b|d").Match("d"))
	assert.False(t, Parse("N:b|d").Match("e"))
	assert.True(t, Parse("N:k").Match("k"))
	assert.False(t, Parse("N:k").Match("kk"))
}

func TestSingle(t *testing.T) {
	assert.True(t, Single("N:k", storagemodels.GetOptions{}))
	assert.False(t, Single("N:k", storagemodels.GetOptions{Label: storagemodels.Label1}))
	assert.False(t, Single("N:k*", storagemodels.GetOptions{}))
}

func TestWindow(t *testing.T) {
	cands := []Candidate{{"a", "N:a"}, {"b", "N:b"}, {"c", "N:c"}, {"d", "N:d"}}

	t.Run("no options", func(t *testing.T) {
		kept, last := Window(cands, storagemodels.GetOptions{})
		assert.Len(t, kept, 4)
		assert.Empty(t, last)
	})

	t.Run("limit truncates", func(t *testing.T) {
		kept, last := Window(cands, storagemodels.GetOptions{Limit: 2})
		assert.Equal(t, []Candidate{{"a", "N:a"}, {"b", "N:b"}}, kept)
		assert.Equal(t, "b", last)
	})

	t.Run("limit equal to matches", func(t *testing.T) {
		_, last := Window(cands, storagemodels.GetOptions{Limit: 4})
		assert.Empty(t, last)
	})

	t.Run("start is exclusive", func(t *testing.T) {
		kept, last := Window(cands, storagemodels.GetOptions{Start: "b", Limit: 1})
		assert.Equal(t, []Candidate{{"c", "N:c"}}, kept)
		assert.Equal(t, "c", last)
	})

	t.Run("reverse start", func(t *testing.T) {
		rev := []Candidate{{"d", "N:d"}, {"c", "N:c"}, {"b", "N:b"}, {"a", "N:a"}}
		kept, last := Window(rev, storagemodels.GetOptions{Start: "c", Reverse: true})
		assert.Equal(t, []Candidate{{"b", "N:b"}, {"a", "N:a"}}, kept)
		assert.Empty(t, last)
	})
}

func TestPastStart(t *testing.T) {
	at := func(sk string) Candidate { return Candidate{SortKey: sk, Key: "N:" + sk} }
	assert.True(t, PastStart(at("a"), storagemodels.GetOptions{}))
	assert.True(t, PastStart(at("c"), storagemodels.GetOptions{Start: "b"}))
	assert.False(t, PastStart(at("b"), storagemodels.GetOptions{Start: "b"}))
	assert.True(t, PastStart(at("a"), storagemodels.GetOptions{Start: "b", Reverse: true}))
	assert.False(t, PastStart(at("c"), storagemodels.GetOptions{Start: "b", Reverse: true}))

	t.Run("labelled scans resume after a record", func(t *testing.T) {
		opts := storagemodels.GetOptions{Label: storagemodels.Label1, Start: "10\x00R:b"}
		assert.False(t, PastStart(Candidate{"10", "R:a"}, opts))
		assert.False(t, PastStart(Candidate{"10", "R:b"}, opts))
		assert.True(t, PastStart(Candidate{"10", "R:c"}, opts))
		assert.True(t, PastStart(Candidate{"11", "R:a"}, opts))

		opts.Reverse = true
		assert.True(t, PastStart(Candidate{"10", "R:a"}, opts))
		assert.False(t, PastStart(Candidate{"10", "R:c"}, opts))
		assert.True(t, PastStart(Candidate{"09", "R:z"}, opts))
	})

	t.Run("labelled scans from a sort key skip its records", func(t *testing.T) {
		opts := storagemodels.GetOptions{Label: storagemodels.Label1, Start: "10"}
		assert.False(t, PastStart(Candidate{"10", "R:z"}, opts))
		assert.True(t, PastStart(Candidate{"11", "R:a"}, opts))

		opts.Reverse = true
		assert.False(t, PastStart(Candidate{"10", "R:a"}, opts))
		assert.True(t, PastStart(Candidate{"09", "R:z"}, opts))
	})
}

func TestWindowLabelledTies(t *testing.T) {
	opts := storagemodels.GetOptions{Label: storagemodels.Label1, Limit: 1}
	cands := []Candidate{{"10", "R:a"}, {"10", "R:b"}, {"10", "R:c"}}

	var seen []string
	for {
		kept, last := Window(cands, opts)
		for _, c := range kept {
			seen = append(seen, c.Key)
		}
		if last == "" {
			break
		}
		assert.Equal(t, kept[0].Cursor(opts), last)
		opts.Start = last
	}
	assert.Equal(t, []string{"R:a", "R:b", "R:c"}, seen)
}

func TestBefore(t *testing.T) {
	labelled := storagemodels.GetOptions{Label: storagemodels.Label1}
	assert.True(t, Before(Candidate{"1", "R:b"}, Candidate{"2", "R:a"}, labelled))
	assert.True(t, Before(Candidate{"1", "R:a"}, Candidate{"1", "R:b"}, labelled))
	assert.False(t, Before(Candidate{"1", "R:b"}, Candidate{"1", "R:a"}, labelled))

	labelled.Reverse = true
	assert.True(t, Before(Candidate{"1", "R:b"}, Candidate{"1", "R:a"}, labelled))
	assert.True(t, Before(Candidate{"2", "R:a"}, Candidate{"1", "R:b"}, labelled))
}

func TestPrefixEnd(t *testing.T) {
	end, ok := PrefixEnd("ab")
	assert.True(t, ok)
	assert.Equal(t, "ac", end)

	end, ok = PrefixEnd("a\xff")
	assert.True(t, ok)
	assert.Equal(t, "b", end)

	_, ok = PrefixEnd("\xff\xff")
	assert.False(t, ok)
	_, ok = PrefixEnd("")
	assert.False(t, ok)
}

func TestSeekBounds(t *testing.T) {
	tests := []struct {
		key     string
		opts    storagemodels.GetOptions
		forward string
		reverse string
	}{
		{key: "n:*"},
		{key: "n:ab*", forward: "ab", reverse: "ac"},
		{key: "n:<b", reverse: "b"},
		{key: "n:<=b", reverse: "b\x01"},
		{key: "n:>b", forward: "b"},
		{key: "n:a|c", forward: "a", reverse: "c\x01"},
		{key: "n:*", opts: storagemodels.GetOptions{Start: "m"}, forward: "m"},
		{key: "n:*", opts: storagemodels.GetOptions{Start: "m", Reverse: true}, reverse: "m"},
		{key: "n:>=x", opts: storagemodels.GetOptions{Start: "m"}, forward: "x"},
		{key: "n:a|c", opts: storagemodels.GetOptions{Start: "m", Reverse: true}, forward: "a", reverse: "c\x01"},
	}
	for _, tt := range tests {
		forward, reverse := Parse(tt.key).SeekBounds(tt.opts)
		assert.Equal(t, tt.forward, forward, "%s %+v", tt.key, tt.opts)
		assert.Equal(t, tt.reverse, reverse, "%s %+v", tt.key, tt.opts)
	}
}

func TestBeyond(t *testing.T) {
	assert.True(t, Parse("n:ab*").Beyond("ac", false))
	assert.False(t, Parse("n:ab*").Beyond("ab1", false))
	assert.True(t, Parse("n:ab*").Beyond("aa", true))
	assert.True(t, Parse("n:<b").Beyond("b", false))
	assert.True(t, Parse("n:>b").Beyond("b", true))
	assert.False(t, Parse("n:>b").Beyond("z", false))
	assert.True(t, Parse("n:a|c").Beyond("d", false))
	assert.True(t, Parse("n:a|c").Beyond("0", true))
	assert.False(t, Parse("n:*").Beyond("anything", true))
}
