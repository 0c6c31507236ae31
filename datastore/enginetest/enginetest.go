/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package enginetest is a behaviour suite every datastore.Engine adapter runs in its tests.
package enginetest

import (
	"context"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/testmodels"
	"github.com/suparena/modelstore/model"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/storagemodels"
)

// Factory returns an empty engine. Cleanup is registered on t.
type Factory func(t *testing.T) datastore.Engine

// Run runs the whole suite, each group against a fresh engine.
func Run(t *testing.T, newEngine Factory) {
	t.Run("Single", func(t *testing.T) { testSingle(t, newEngine(t)) })
	t.Run("Operators", func(t *testing.T) { testOperators(t, newEngine(t)) })
	t.Run("Paging", func(t *testing.T) { testPaging(t, newEngine(t)) })
	t.Run("Labels", func(t *testing.T) { testLabels(t, newEngine(t)) })
	t.Run("LabelTies", func(t *testing.T) { testLabelTies(t, newEngine(t)) })
	t.Run("Models", func(t *testing.T) { testModels(t, newEngine(t)) })
}

func get(t *testing.T, e datastore.Engine, key string, opts storagemodels.GetOptions) *storagemodels.Result {
	t.Helper()
	res, err := e.Get(context.Background(), key, opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func set(t *testing.T, e datastore.Engine, key string, value storagemodels.Record, labels storagemodels.LabelSet) {
	t.Helper()
	if labels == nil {
		labels = storagemodels.LabelSet{}
	}
	require.NoError(t, e.Set(context.Background(), key, value, labels))
}

func keysOf(res *storagemodels.Result) []string {
	keys := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		keys = append(keys, item.Key)
	}
	return keys
}

func testSingle(t *testing.T, e datastore.Engine) {
	ctx := context.Background()
	value := storagemodels.Record{
		"name":   "first",
		"n":      float64(3),
		"ok":     true,
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"k": "v"},
	}

	res := get(t, e, "doc:1", storagemodels.GetOptions{})
	assert.Nil(t, res.Value, "absent keys are not an error")

	set(t, e, "doc:1", value, nil)
	res = get(t, e, "doc:1", storagemodels.GetOptions{})
	assert.Equal(t, value, res.Value)
	assert.Empty(t, res.Items)

	set(t, e, "doc:1", storagemodels.Record{"name": "second"}, nil)
	res = get(t, e, "doc:1", storagemodels.GetOptions{})
	assert.Equal(t, storagemodels.Record{"name": "second"}, res.Value)

	set(t, e, "plain", storagemodels.Record{"name": "default namespace"}, nil)
	res = get(t, e, "plain", storagemodels.GetOptions{})
	assert.Equal(t, "default namespace", res.Value["name"])
	res = get(t, e, "*", storagemodels.GetOptions{})
	assert.Equal(t, []string{"plain"}, keysOf(res))

	require.NoError(t, e.Remove(ctx, "doc:1"))
	res = get(t, e, "doc:1", storagemodels.GetOptions{})
	assert.Nil(t, res.Value)

	assert.NoError(t, e.Remove(ctx, "doc:missing"), "removing an absent key is a no-op")
}

func testOperators(t *testing.T, e datastore.Engine) {
	for _, sk := range []string{"c1", "a1", "b1", "a2"} {
		set(t, e, "n:"+sk, storagemodels.Record{"sk": sk}, nil)
	}
	set(t, e, "m:a1", storagemodels.Record{"sk": "other namespace"}, nil)
	set(t, e, "a1", storagemodels.Record{"sk": "default namespace"}, nil)

	tests := []struct {
		key     string
		reverse bool
		want    []string
	}{
		{key: "n:*", want: []string{"n:a1", "n:a2", "n:b1", "n:c1"}},
		{key: "n:*", reverse: true, want: []string{"n:c1", "n:b1", "n:a2", "n:a1"}},
		{key: "n:a*", want: []string{"n:a1", "n:a2"}},
		{key: "n:<b1", want: []string{"n:a1", "n:a2"}},
		{key: "n:<=b1", want: []string{"n:a1", "n:a2", "n:b1"}},
		{key: "n:>a2", want: []string{"n:b1", "n:c1"}},
		{key: "n:>=a2", want: []string{"n:a2", "n:b1", "n:c1"}},
		{key: "n:a2|b1", want: []string{"n:a2", "n:b1"}},
		{key: "n:a2|b1", reverse: true, want: []string{"n:b1", "n:a2"}},
		{key: "n:b1|a2", want: []string{}},
		{key: "n:z*", want: []string{}},
		{key: "empty:*", want: []string{}},
	}
	for _, tt := range tests {
		res := get(t, e, tt.key, storagemodels.GetOptions{Reverse: tt.reverse})
		assert.Equal(t, tt.want, keysOf(res), "%s reverse=%v", tt.key, tt.reverse)
		assert.Empty(t, res.LastKey, tt.key)
	}

	res := get(t, e, "n:*", storagemodels.GetOptions{})
	require.Len(t, res.Items, 4)
	assert.Equal(t, storagemodels.Record{"sk": "a1"}, res.Items[0].Value)
}

func testPaging(t *testing.T, e datastore.Engine) {
	for _, sk := range []string{"a", "b", "c", "d", "e"} {
		set(t, e, "p:"+sk, storagemodels.Record{"sk": sk}, nil)
	}

	res := get(t, e, "p:*", storagemodels.GetOptions{Limit: 2})
	assert.Equal(t, []string{"p:a", "p:b"}, keysOf(res))
	assert.Equal(t, "b", res.LastKey)

	res = get(t, e, "p:*", storagemodels.GetOptions{Limit: 2, Start: res.LastKey})
	assert.Equal(t, []string{"p:c", "p:d"}, keysOf(res))
	assert.Equal(t, "d", res.LastKey)

	res = get(t, e, "p:*", storagemodels.GetOptions{Limit: 2, Start: res.LastKey})
	assert.Equal(t, []string{"p:e"}, keysOf(res))
	assert.Empty(t, res.LastKey, "an exhausted scan has no cursor")

	res = get(t, e, "p:*", storagemodels.GetOptions{Limit: 5})
	assert.Len(t, res.Items, 5)
	assert.Empty(t, res.LastKey, "a limit equal to the remaining items does not truncate")

	res = get(t, e, "p:*", storagemodels.GetOptions{Reverse: true, Start: "c", Limit: 1})
	assert.Equal(t, []string{"p:b"}, keysOf(res))
	assert.Equal(t, "b", res.LastKey)

	res = get(t, e, "p:>=b", storagemodels.GetOptions{Start: "b"})
	assert.Equal(t, []string{"p:c", "p:d", "p:e"}, keysOf(res), "the cursor is exclusive")
}

func testLabels(t *testing.T, e datastore.Engine) {
	set(t, e, "u:1", storagemodels.Record{"name": "bob"}, storagemodels.LabelSet{storagemodels.Label1: "name:bob"})
	set(t, e, "u:2", storagemodels.Record{"name": "alice"}, storagemodels.LabelSet{storagemodels.Label1: "name:alice"})
	set(t, e, "u:3", storagemodels.Record{"name": "carol"}, storagemodels.LabelSet{
		storagemodels.Label1: "name:carol",
		storagemodels.Label2: "age:030",
	})

	label1 := storagemodels.GetOptions{Label: storagemodels.Label1}

	res := get(t, e, "name:*", label1)
	assert.Equal(t, []string{"u:2", "u:1", "u:3"}, keysOf(res), "ordered by label key")
	assert.Equal(t, storagemodels.Record{"name": "alice"}, res.Items[0].Value)

	res = get(t, e, "name:bob", label1)
	assert.Nil(t, res.Value, "labelled exact lookups use the list shape")
	assert.Equal(t, []string{"u:1"}, keysOf(res))

	res = get(t, e, "age:>=020", storagemodels.GetOptions{Label: storagemodels.Label2})
	assert.Equal(t, []string{"u:3"}, keysOf(res))

	res = get(t, e, "name:*", storagemodels.GetOptions{Label: storagemodels.Label1, Limit: 1, Start: "alice"})
	assert.Equal(t, []string{"u:1"}, keysOf(res))
	assert.Equal(t, "bob\x00u:1", res.LastKey, "labelled cursors name the record")

	set(t, e, "u:1", storagemodels.Record{"name": "zed"}, storagemodels.LabelSet{storagemodels.Label1: "name:zed"})
	assert.Empty(t, get(t, e, "name:bob", label1).Items, "overwrites drop stale label entries")
	assert.Equal(t, []string{"u:1"}, keysOf(get(t, e, "name:z*", label1)))

	set(t, e, "u:3", storagemodels.Record{"name": "carol"}, storagemodels.LabelSet{storagemodels.Label1: "name:carol"})
	assert.Empty(t, get(t, e, "age:*", storagemodels.GetOptions{Label: storagemodels.Label2}).Items)

	require.NoError(t, e.Remove(context.Background(), "u:2"))
	assert.Empty(t, get(t, e, "name:alice", label1).Items)
	assert.Equal(t, []string{"u:3", "u:1"}, keysOf(get(t, e, "name:*", label1)))
}

// testLabelTies pages through records sharing one label value.
func testLabelTies(t *testing.T, e datastore.Engine) {
	for _, id := range []string{"c", "a", "d", "b"} {
		set(t, e, "s:"+id, storagemodels.Record{"id": id}, storagemodels.LabelSet{storagemodels.Label1: "score:000010"})
	}
	set(t, e, "s:e", storagemodels.Record{"id": "e"}, storagemodels.LabelSet{storagemodels.Label1: "score:000020"})

	page := func(key string, opts storagemodels.GetOptions) []string {
		var keys []string
		for {
			res := get(t, e, key, opts)
			keys = append(keys, keysOf(res)...)
			if res.LastKey == "" {
				return keys
			}
			opts.Start = res.LastKey
		}
	}

	for _, limit := range []int{1, 2, 3} {
		opts := storagemodels.GetOptions{Label: storagemodels.Label1, Limit: limit}
		assert.Equal(t, []string{"s:a", "s:b", "s:c", "s:d", "s:e"}, page("score:*", opts), "limit %d", limit)
		assert.Equal(t, []string{"s:a", "s:b", "s:c", "s:d"}, page("score:000010", opts), "limit %d", limit)

		opts.Reverse = true
		assert.Equal(t, []string{"s:e", "s:d", "s:c", "s:b", "s:a"}, page("score:*", opts), "reverse limit %d", limit)
		assert.Equal(t, []string{"s:d", "s:c", "s:b", "s:a"}, page("score:<=000010", opts), "reverse limit %d", limit)
	}

	res := get(t, e, "score:*", storagemodels.GetOptions{Label: storagemodels.Label1, Start: "000010"})
	assert.Equal(t, []string{"s:e"}, keysOf(res), "a plain sort key cursor skips all of its records")
}

func testModels(t *testing.T, e datastore.Engine) {
	ctx := context.Background()
	store := model.NewStore(e)
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	systems := []*testmodels.RatingSystem{
		testmodels.NewRatingSystem("elo", "Elo", "chess ratings", strfmt.DateTime(base)),
		testmodels.NewRatingSystem("glicko", "Glicko", "rating deviation", strfmt.DateTime(base.Add(time.Hour))),
		testmodels.NewRatingSystem("trueskill", "TrueSkill", "team games", strfmt.DateTime(base.Add(2*time.Hour))),
	}
	for _, s := range systems {
		require.NoError(t, store.Save(ctx, s))
		assert.Equal(t, "RatingSystem:"+*s.ID, s.Snapshot())
	}

	newSystem := model.Hydrator(store, func() *testmodels.RatingSystem { return &testmodels.RatingSystem{} })

	got, found, err := query.One(ctx, e, testmodels.RatingSystemByID.Exact("glicko"), newSystem)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Glicko", *got.Name)
	assert.Equal(t, "rating deviation", *got.Description)
	assert.Equal(t, "RatingSystem:glicko", got.Snapshot())
	assert.True(t, time.Time(*got.CreatedAt).Equal(base.Add(time.Hour)))

	byName, _, err := query.List(ctx, e, testmodels.RatingSystemByName.Exact("TrueSkill"), newSystem)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "trueskill", *byName[0].ID)

	recent, lastKey, err := query.List(ctx, e,
		testmodels.RatingSystemByCreated.After(strfmt.DateTime(base)).Reverse(), newSystem)
	require.NoError(t, err)
	assert.Empty(t, lastKey)
	require.Len(t, recent, 2)
	assert.Equal(t, "trueskill", *recent[0].ID)
	assert.Equal(t, "glicko", *recent[1].ID)

	// Renaming moves the label entry and keeps the primary record in place.
	name := "Elo-2"
	systems[0].Name = &name
	require.NoError(t, store.Save(ctx, systems[0]))
	old, _, err := query.List(ctx, e, testmodels.RatingSystemByName.Exact("Elo"), newSystem)
	require.NoError(t, err)
	assert.Empty(t, old)

	ratings := []*testmodels.Rating{
		{ID: "r1", SystemID: "elo", Player: "ann", Score: 1500},
		{ID: "r2", SystemID: "elo", Player: "ben", Score: 1720},
		{ID: "r3", SystemID: "elo", Player: "cat", Score: 1610},
	}
	for _, r := range ratings {
		require.NoError(t, store.Save(ctx, r))
		assert.Equal(t, []string{"RatingSystem_elo_Rating:" + r.Player}, r.ShadowSnapshots())
	}

	newRating := model.Hydrator(store, func() *testmodels.Rating { return &testmodels.Rating{} })
	top, _, err := query.List(ctx, e, testmodels.RatingsByScore("elo").All().Reverse().Limit(2), newRating)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "ben", top[0].Player)
	assert.Equal(t, "cat", top[1].Player)

	ratings[0].Player = "anna"
	require.NoError(t, store.Save(ctx, ratings[0]))
	players, err := query.Keys(ctx, e, testmodels.RatingsOfSystem("elo").All())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"RatingSystem_elo_Rating:anna",
		"RatingSystem_elo_Rating:ben",
		"RatingSystem_elo_Rating:cat",
	}, players)

	require.NoError(t, store.Delete(ctx, ratings[1]))
	_, found, err = query.One(ctx, e, testmodels.RatingByID.Exact("r2"), newRating)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = query.One(ctx, e, testmodels.RatingsOfSystem("elo").Exact("ben"), newRating)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, ratings[1].ShadowSnapshots())
	assert.False(t, ratings[1].Persisted())
}
