/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model_test

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/datastore/mock"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/model"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/storagemodels"
)

var (
	ID = query.BuildIndex(query.IndexOptions[string]{})
	X  = query.BuildIndex(query.IndexOptions[int]{Namespace: "M", Label: storagemodels.Label1})
	XS = query.BuildIndex(query.IndexOptions[string]{Namespace: "M", Label: storagemodels.Label1})
	Y  = query.BuildIndex(query.IndexOptions[string]{Label: storagemodels.Label2, Converter: query.Infallible(strings.ToLower)})
)

func T(t string) query.Index[string] {
	return query.BuildIndex(query.IndexOptions[string]{Namespace: "O:T_" + t})
}

func TX(t, x string) query.Index[string] {
	return query.BuildIndex(query.IndexOptions[string]{Namespace: "O:T_" + t + ":X_" + x, Label: storagemodels.Label1})
}

func C(c string) query.Index[string] {
	return query.BuildIndex(query.IndexOptions[string]{Namespace: "O:C_" + c})
}

func CX(c, x string) query.Index[[]string] {
	return query.BuildIndex(query.IndexOptions[[]string]{
		Namespace: "O:C_" + c + ":X_" + x,
		Label:     storagemodels.Label1,
		Converter: query.JoinConverter(","),
	})
}

type Nested struct {
	O struct {
		R string `json:"r,omitempty"`
		B struct {
			S string `json:"s"`
		} `json:"b"`
	} `json:"o"`
}

type M struct {
	model.Persistence
	ID   string  `json:"id"`
	TheX int     `json:"theX"`
	Y    string  `json:"y"`
	Z    *Nested `json:"z,omitempty"`
}

func (m *M) Keys() []query.Key {
	return []query.Key{ID.Exact(m.ID), X.Exact(m.TheX), Y.Exact(m.Y)}
}

type N struct {
	model.Persistence
	X int    `json:"x"`
	Y string `json:"y"`
}

func (n *N) Keys() []query.Key {
	return []query.Key{X.Exact(n.X), Y.Exact(n.Y)}
}

type Q struct {
	model.Persistence
	ID string `json:"id"`
}

func (q *Q) Keys() []query.Key {
	return []query.Key{ID.Exact(q.ID)}
}

type O struct {
	model.Persistence
	ID string   `json:"id"`
	X  string   `json:"x"`
	T  []string `json:"t"`
	C  string   `json:"c"`
}

func (o *O) Keys() []query.Key {
	return []query.Key{ID.Exact(o.ID), XS.Exact(o.X)}
}

func (o *O) ShadowKeys() [][]query.Key {
	return shadowSets(o.ID, o.X, o.T, o.C)
}

func shadowSets(id, x string, ts []string, c string) [][]query.Key {
	sets := make([][]query.Key, 0, len(ts)+1)
	for _, t := range ts {
		sets = append(sets, []query.Key{T(t).Exact(id), TX(t, x).Exact(id)})
	}
	if c != "" {
		sets = append(sets, []query.Key{C(c).Exact(id), CX(c, x).Exact(ts)})
	}
	return sets
}

type P struct {
	model.Persistence
	ID string   `json:"id"`
	X  string   `json:"x"`
	T  []string `json:"t"`
}

func (p *P) Keys() []query.Key { return []query.Key{ID.Exact(p.ID)} }

func (p *P) UnsafeShadowKeysUnbounded() [][]query.Key {
	return shadowSets(p.ID, p.X, p.T, "")
}

type R struct {
	P
}

func (r *R) ShadowKeys() [][]query.Key {
	return shadowSets(r.ID, r.X, r.T, "")
}

type Owner struct {
	FullName string `json:"fullName"`
}

type Doc struct {
	model.Persistence
	ID        string            `json:"id"`
	CreatedBy string            `json:"created_by"`
	Tags      map[string]string `json:"tags"`
	Owners    map[string]Owner  `json:"owners"`
}

func (d *Doc) Keys() []query.Key { return []query.Key{ID.Exact(d.ID)} }

func setCalls(e *mock.Engine) []mock.Call {
	var out []mock.Call
	for _, c := range e.Calls() {
		if c.Op == mock.OpSet {
			out = append(out, c)
		}
	}
	return out
}

func removedKeys(e *mock.Engine) []string {
	var out []string
	for _, c := range e.Calls() {
		if c.Op == mock.OpRemove {
			out = append(out, c.Key)
		}
	}
	return out
}

func callKeys(calls []mock.Call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Key)
	}
	return out
}

func loadM(t *testing.T, store *model.Store, raw storagemodels.Record) *M {
	t.Helper()
	m, err := model.Hydrator(store, func() *M { return &M{} })(raw)
	require.NoError(t, err)
	return m
}

func loadO(t *testing.T, store *model.Store, raw storagemodels.Record) *O {
	t.Helper()
	o, err := model.Hydrator(store, func() *O { return &O{} })(raw)
	require.NoError(t, err)
	return o
}

func oRecord() storagemodels.Record {
	return storagemodels.Record{"id": "Yo", "x": "Origato", "t": []any{"boba", "joba"}, "c": "WHATEVS"}
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a record from its indexes", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)

		m := &M{ID: "hola", TheX: 2, Y: "YOLO"}
		require.NoError(t, store.Save(ctx, m))

		calls := setCalls(engine)
		require.Len(t, calls, 1)
		assert.Equal(t, "hola", calls[0].Key)
		assert.Equal(t, storagemodels.LabelSet{
			storagemodels.Label1: "M:2",
			storagemodels.Label2: "yolo",
		}, calls[0].Labels)

		rec, ok := engine.Record("hola")
		require.True(t, ok)
		assert.Equal(t, storagemodels.Record{"id": "hola", "the_x": float64(2), "y": "YOLO"}, rec)
		assert.Equal(t, "hola", m.Snapshot())
	})

	t.Run("creates a record without secondary keys", func(t *testing.T) {
		engine := mock.New()
		require.NoError(t, model.NewStore(engine).Save(ctx, &Q{ID: "hola"}))

		calls := setCalls(engine)
		require.Len(t, calls, 1)
		assert.Equal(t, "hola", calls[0].Key)
		assert.Empty(t, calls[0].Labels)
	})

	t.Run("updates in place", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 42, "y": "WHATEVS"})

		m.TheX = 43
		require.NoError(t, store.Save(ctx, m))

		assert.Empty(t, removedKeys(engine))
		calls := setCalls(engine)
		require.Len(t, calls, 1)
		assert.Equal(t, storagemodels.LabelSet{
			storagemodels.Label1: "M:43",
			storagemodels.Label2: "whatevs",
		}, calls[0].Labels)
	})

	t.Run("removes the previous record when the primary key changes", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		require.NoError(t, store.Save(ctx, &M{ID: "hola", TheX: 42, Y: "WHATEVS"}))
		engine.ResetCalls()

		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 42, "y": "WHATEVS"})
		m.ID = "yolo"
		require.NoError(t, store.Save(ctx, m))

		assert.Equal(t, []mock.Call{
			{Op: mock.OpRemove, Key: "hola"},
			{Op: mock.OpSet, Key: "yolo", Labels: storagemodels.LabelSet{
				storagemodels.Label1: "M:42",
				storagemodels.Label2: "whatevs",
			}},
		}, engine.Calls())
		assert.Equal(t, []string{"yolo"}, engine.Keys())
		assert.Equal(t, "yolo", m.Snapshot())
	})

	t.Run("fails without a primary key before touching storage", func(t *testing.T) {
		engine := mock.New()
		err := model.NewStore(engine).Save(ctx, &N{X: 42, Y: "WHATEVS"})

		assert.ErrorIs(t, err, errors.ErrMissingPrimaryKey)
		assert.True(t, errors.IsConfiguration(err))
		assert.Empty(t, engine.Calls())
	})

	t.Run("rejects malformed key declarations", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)

		err := store.Save(ctx, &keyed{keys: []query.Key{ID.Exact("a"), ID.Exact("b")}})
		assert.ErrorIs(t, err, errors.ErrMultiplePrimaryKeys)

		err = store.Save(ctx, &keyed{keys: []query.Key{ID.Exact("a"), XS.Exact("x"), TX("a", "b").Exact("c")}})
		assert.ErrorIs(t, err, errors.ErrDuplicateLabel)

		err = store.Save(ctx, &keyed{keys: []query.Key{ID.Partial("a")}})
		assert.ErrorIs(t, err, errors.ErrInvalidKey)

		err = store.Save(ctx, &keyed{keys: []query.Key{ID.Exact("")}})
		assert.True(t, errors.IsValidationError(err))

		bad := query.BuildIndex(query.IndexOptions[struct{}]{})
		err = store.Save(ctx, &keyed{keys: []query.Key{bad.Exact(struct{}{})}})
		assert.True(t, errors.IsConversion(err))

		assert.Empty(t, engine.Calls())
	})

	t.Run("stops when the stale primary cannot be removed", func(t *testing.T) {
		boom := stderrors.New("boom")
		engine := mock.New().FailRemoveOn("hola", boom)
		store := model.NewStore(engine)
		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 1, "y": "a"})

		m.ID = "yolo"
		err := store.Save(ctx, m)
		assert.Same(t, boom, err)
		assert.Empty(t, setCalls(engine))
		assert.Equal(t, "hola", m.Snapshot())
	})

	t.Run("primary write failure leaves the entity transient after migration", func(t *testing.T) {
		boom := stderrors.New("boom")
		engine := mock.New().FailSetOn("yolo", boom)
		store := model.NewStore(engine)
		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 1, "y": "a"})

		m.ID = "yolo"
		assert.ErrorIs(t, store.Save(ctx, m), boom)
		assert.False(t, m.Persisted())
	})
}

type keyed struct {
	model.Persistence
	keys []query.Key
}

func (k *keyed) Keys() []query.Key { return k.keys }

func TestHydrate(t *testing.T) {
	store := model.NewStore(mock.New())

	t.Run("loads from stored records", func(t *testing.T) {
		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 42, "y": "WHATEVS"})
		assert.Equal(t, "hola", m.ID)
		assert.Equal(t, 42, m.TheX)
		assert.Equal(t, "WHATEVS", m.Y)
		assert.True(t, m.Persisted())
		assert.Equal(t, "hola", m.Snapshot())
	})

	t.Run("tracks shadow keys", func(t *testing.T) {
		o := loadO(t, store, oRecord())
		assert.Equal(t, []string{"O:T_boba:Yo", "O:T_joba:Yo", "O:C_WHATEVS:Yo"}, o.ShadowSnapshots())
	})

	t.Run("is idempotent", func(t *testing.T) {
		a := loadO(t, store, oRecord())
		b := loadO(t, store, oRecord())
		require.NoError(t, store.Hydrate(b, oRecord()))
		assert.Equal(t, a, b)
	})

	t.Run("fails without a primary key", func(t *testing.T) {
		_, err := model.Hydrator(store, func() *N { return &N{} })(storagemodels.Record{"x": 42, "y": "WHATEVS"})
		assert.ErrorIs(t, err, errors.ErrMissingPrimaryKey)
	})

	t.Run("rejects empty records", func(t *testing.T) {
		assert.True(t, errors.IsValidationError(store.Hydrate(&M{}, nil)))
	})

	t.Run("round trips through storage", func(t *testing.T) {
		engine := mock.New()
		s := model.NewStore(engine)
		orig := &M{ID: "hola", TheX: 7, Y: "Yo", Z: &Nested{}}
		orig.Z.O.R = "amigo"
		orig.Z.O.B.S = "siracha"
		require.NoError(t, s.Save(ctx(), orig))

		got, found, err := query.One(ctx(), engine, ID.Exact("hola"), model.Hydrator(s, func() *M { return &M{} }))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, orig, got)
	})

	t.Run("keeps snake tagged fields and map keys", func(t *testing.T) {
		engine := mock.New()
		s := model.NewStore(engine)
		orig := &Doc{
			ID:        "d1",
			CreatedBy: "alice",
			Tags:      map[string]string{"Env-Name": "prod", "teamName": "core"},
			Owners:    map[string]Owner{"Primary-Owner": {FullName: "Ann"}},
		}
		require.NoError(t, s.Save(ctx(), orig))

		rec, ok := engine.Record("d1")
		require.True(t, ok)
		assert.Equal(t, "alice", rec["created_by"])
		assert.Equal(t, map[string]any{"Env-Name": "prod", "teamName": "core"}, rec["tags"])
		assert.Equal(t, map[string]any{"Primary-Owner": map[string]any{"full_name": "Ann"}}, rec["owners"])

		got, found, err := query.One(ctx(), engine, ID.Exact("d1"), model.Hydrator(s, func() *Doc { return &Doc{} }))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, orig, got)
	})
}

func ctx() context.Context { return context.Background() }

func TestDelete(t *testing.T) {
	t.Run("removes the primary record", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 42, "y": "WHATEVS"})

		require.NoError(t, store.Delete(ctx(), m))
		assert.Equal(t, []string{"hola"}, removedKeys(engine))
		assert.False(t, m.Persisted())
	})

	t.Run("removes shadow records", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		require.NoError(t, store.Delete(ctx(), o))
		removed := removedKeys(engine)
		require.Len(t, removed, 4)
		assert.Equal(t, "Yo", removed[0])
		assert.ElementsMatch(t, []string{"O:T_boba:Yo", "O:T_joba:Yo", "O:C_WHATEVS:Yo"}, removed[1:])
		assert.Empty(t, o.ShadowSnapshots())
	})

	t.Run("keeps snapshots of shadows that could not be removed", func(t *testing.T) {
		boom := stderrors.New("boom")
		engine := mock.New().FailRemoveOn("O:T_joba:Yo", boom)
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		assert.ErrorIs(t, store.Delete(ctx(), o), boom)
		assert.Equal(t, []string{"O:T_joba:Yo"}, o.ShadowSnapshots())
	})
	t.Run("removes the loaded primary after a key change", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		require.NoError(t, store.Save(ctx(), &M{ID: "hola", TheX: 1, Y: "a"}))
		m := loadM(t, store, storagemodels.Record{"id": "hola", "the_x": 1, "y": "a"})
		m.ID = "adios"

		require.NoError(t, store.Delete(ctx(), m))
		assert.Equal(t, []string{"hola", "adios"}, removedKeys(engine))
		assert.Empty(t, engine.Keys())
		assert.False(t, m.Persisted())
	})

	t.Run("removes stale shadows after a key change", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())
		o.T = []string{"boba"}
		o.C = ""

		require.NoError(t, store.Delete(ctx(), o))
		removed := removedKeys(engine)
		assert.Equal(t, "Yo", removed[0])
		assert.ElementsMatch(t, []string{"O:T_boba:Yo", "O:T_joba:Yo", "O:C_WHATEVS:Yo"}, removed[1:])
		assert.Empty(t, o.ShadowSnapshots())
	})
}

func TestShadows(t *testing.T) {
	record := func(ts ...any) storagemodels.Record {
		return storagemodels.Record{"id": "Yo", "x": "Origato", "t": ts, "c": "WHATEVS"}
	}

	t.Run("writes every shadow key-set", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		require.NoError(t, store.Save(ctx(), o))

		calls := setCalls(engine)
		require.Len(t, calls, 4)
		assert.Equal(t, mock.Call{Op: mock.OpSet, Key: "Yo", Labels: storagemodels.LabelSet{
			storagemodels.Label1: "M:Origato",
		}}, calls[0])
		assert.ElementsMatch(t, []mock.Call{
			{Op: mock.OpSet, Key: "O:T_boba:Yo", Labels: storagemodels.LabelSet{storagemodels.Label1: "O:T_boba:X_Origato:Yo"}},
			{Op: mock.OpSet, Key: "O:T_joba:Yo", Labels: storagemodels.LabelSet{storagemodels.Label1: "O:T_joba:X_Origato:Yo"}},
			{Op: mock.OpSet, Key: "O:C_WHATEVS:Yo", Labels: storagemodels.LabelSet{storagemodels.Label1: "O:C_WHATEVS:X_Origato:boba,joba"}},
		}, calls[1:])
		assert.Empty(t, removedKeys(engine))

		for _, key := range engine.Keys() {
			rec, _ := engine.Record(key)
			assert.Equal(t, record("boba", "joba"), rec, key)
		}
	})

	t.Run("moves shadows with the primary key", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		o.ID = "Bye"
		require.NoError(t, store.Save(ctx(), o))

		removed := removedKeys(engine)
		require.Len(t, removed, 4)
		assert.Equal(t, "Yo", removed[0])
		assert.ElementsMatch(t, []string{"O:T_boba:Yo", "O:T_joba:Yo", "O:C_WHATEVS:Yo"}, removed[1:])

		calls := setCalls(engine)
		require.Len(t, calls, 4)
		assert.Equal(t, "Bye", calls[0].Key)
		assert.ElementsMatch(t, []string{"O:T_boba:Bye", "O:T_joba:Bye", "O:C_WHATEVS:Bye"}, callKeys(calls[1:]))
		assert.ElementsMatch(t, []string{"O:T_boba:Bye", "O:T_joba:Bye", "O:C_WHATEVS:Bye"}, o.ShadowSnapshots())
	})

	t.Run("removes exactly the shadows that left the set", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		o.T = []string{"boba"}
		require.NoError(t, store.Save(ctx(), o))

		assert.Equal(t, []string{"O:T_joba:Yo"}, removedKeys(engine))
		calls := setCalls(engine)
		require.Len(t, calls, 3)
		assert.ElementsMatch(t, []mock.Call{
			{Op: mock.OpSet, Key: "O:T_boba:Yo", Labels: storagemodels.LabelSet{storagemodels.Label1: "O:T_boba:X_Origato:Yo"}},
			{Op: mock.OpSet, Key: "O:C_WHATEVS:Yo", Labels: storagemodels.LabelSet{storagemodels.Label1: "O:C_WHATEVS:X_Origato:boba"}},
		}, calls[1:])
		assert.ElementsMatch(t, []string{"O:T_boba:Yo", "O:C_WHATEVS:Yo"}, o.ShadowSnapshots())
	})

	t.Run("replaces a changed shadow key-set", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		o.C = "Bro"
		require.NoError(t, store.Save(ctx(), o))

		assert.Equal(t, []string{"O:C_WHATEVS:Yo"}, removedKeys(engine))
		assert.Len(t, setCalls(engine), 4)
	})

	t.Run("too many shadow key-sets fail before storage", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		o := &O{ID: "Yo", X: "Origato", T: []string{"boba", "joba", "toga", "hoga", "roma"}, C: "WHATEVS"}

		err := store.Save(ctx(), o)
		assert.ErrorIs(t, err, errors.ErrTooManyShadowKeys)
		assert.True(t, errors.IsConfiguration(err))
		assert.Contains(t, err.Error(), "5")
		assert.Contains(t, err.Error(), "UnsafeShadowKeysUnbounded")
		assert.Empty(t, engine.Calls())
	})

	t.Run("bound is configurable", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine, model.WithMaxShadowKeys(1))
		err := store.Save(ctx(), &O{ID: "Yo", X: "Origato", T: []string{"boba"}, C: "WHATEVS"})
		assert.ErrorIs(t, err, errors.ErrTooManyShadowKeys)
	})

	t.Run("zero bound keeps the default", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine, model.WithMaxShadowKeys(0))
		require.NoError(t, store.Save(ctx(), &O{ID: "Yo", X: "Origato", T: []string{"boba", "joba"}, C: "WHATEVS"}))
		assert.Len(t, setCalls(engine), 4)

		o := &O{ID: "Yo", X: "Origato", T: []string{"a", "b", "c", "d", "e", "f"}}
		assert.ErrorIs(t, store.Save(ctx(), o), errors.ErrTooManyShadowKeys)
	})

	t.Run("unbounded shadow keys are allowed", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		p := &P{ID: "Yo", X: "Origato", T: []string{"boba", "joba", "toga", "hoga", "roma", "giro"}}

		require.NoError(t, store.Save(ctx(), p))
		assert.Len(t, setCalls(engine), 7)
	})

	t.Run("declaring both capabilities is a fault", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine)
		r := &R{P{ID: "Yo", X: "Origato", T: []string{"boba", "joba"}}}

		err := store.Save(ctx(), r)
		assert.ErrorIs(t, err, errors.ErrConflictingShadowKeys)
		assert.True(t, errors.IsConfiguration(err))
		assert.Empty(t, engine.Calls())

		assert.ErrorIs(t, store.Track(r), errors.ErrConflictingShadowKeys)
	})

	t.Run("partial shadow failure keeps confirmed snapshots", func(t *testing.T) {
		boom := stderrors.New("boom")
		engine := mock.New().FailSetOn("O:T_joba:Yo", boom)
		store := model.NewStore(engine)
		o := &O{ID: "Yo", X: "Origato", T: []string{"boba", "joba"}, C: "WHATEVS"}

		err := store.Save(ctx(), o)
		assert.Same(t, boom, err)
		assert.Equal(t, "Yo", o.Snapshot())
		assert.ElementsMatch(t, []string{"O:T_boba:Yo", "O:C_WHATEVS:Yo"}, o.ShadowSnapshots())
		assert.Len(t, setCalls(engine), 4)
	})

	t.Run("failed stale removal stays tracked", func(t *testing.T) {
		boom := stderrors.New("boom")
		engine := mock.New().FailRemoveOn("O:T_joba:Yo", boom)
		store := model.NewStore(engine)
		o := loadO(t, store, oRecord())

		o.T = []string{"boba"}
		assert.ErrorIs(t, store.Save(ctx(), o), boom)
		assert.ElementsMatch(t, []string{"O:T_boba:Yo", "O:T_joba:Yo", "O:C_WHATEVS:Yo"}, o.ShadowSnapshots())
	})

	t.Run("limited concurrency", func(t *testing.T) {
		engine := mock.New()
		store := model.NewStore(engine, model.WithShadowConcurrency(1))
		o := loadO(t, store, oRecord())
		o.T = []string{"a", "b", "c"}

		require.NoError(t, store.Save(ctx(), o))
		assert.Len(t, setCalls(engine), 5)
		assert.Len(t, removedKeys(engine), 2)
	})
}

func TestClean(t *testing.T) {
	m := &M{ID: "hola", TheX: 42, Y: "WHATEVS", Z: &Nested{}}
	m.Z.O.R = "amigo"
	m.Z.O.B.S = "siracha"
	require.NoError(t, model.NewStore(mock.New()).Track(m))

	full := storagemodels.Record{
		"id":   "hola",
		"theX": float64(42),
		"y":    "WHATEVS",
		"z": map[string]any{
			"o": map[string]any{
				"r": "amigo",
				"b": map[string]any{"s": "siracha"},
			},
		},
	}

	got, err := model.Clean(m)
	require.NoError(t, err)
	assert.Equal(t, full, got)

	got, err = model.Clean(m, "y")
	require.NoError(t, err)
	assert.NotContains(t, got, "y")
	assert.Equal(t, full["z"], got["z"])

	got, err = model.Clean(m, "z.o.b.s")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"o": map[string]any{
			"r": "amigo",
			"b": map[string]any{},
		},
	}, got["z"])
	assert.Equal(t, "WHATEVS", got["y"])

	got, err = model.Clean(m, "y", "z.o.r", "missing.path", "id.deeper")
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Record{
		"id":   "hola",
		"theX": float64(42),
		"z": map[string]any{
			"o": map[string]any{
				"b": map[string]any{"s": "siracha"},
			},
		},
	}, got)

	assert.Equal(t, "hola", m.Snapshot())
}

func TestCodec(t *testing.T) {
	engine := mock.New()
	store := model.NewStore(engine, model.WithCodec(model.JSONCodec{KeepCase: true}))
	require.NoError(t, store.Save(ctx(), &M{ID: "hola", TheX: 1, Y: "a"}))

	rec, ok := engine.Record("hola")
	require.True(t, ok)
	assert.Contains(t, rec, "theX")

	m := loadM(t, store, rec)
	assert.Equal(t, 1, m.TheX)
}

func TestMetrics(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	engine := mock.New()
	store := model.NewStore(engine, model.WithMetrics(metrics), model.WithLogger(nil))

	require.NoError(t, store.Save(ctx(), &O{ID: "Yo", X: "Origato", T: []string{"boba"}, C: "WHATEVS"}))
	engine.WithSetError(stderrors.New("down"))
	assert.Error(t, store.Save(ctx(), &Q{ID: "x"}))

	assert.Equal(t, 1, metrics.Counter(observability.MetricSaveSuccess))
	assert.Equal(t, 1, metrics.Counter(observability.MetricSaveError))
	assert.Equal(t, []float64{2}, metrics.Observations(observability.MetricShadowWrites))
}
