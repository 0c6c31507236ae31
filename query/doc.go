/*
Package query compiles structured access paths into key expressions and resolves them against
a storage engine.

An Index describes one access path: an optional namespace, an optional label (a labelled index
is secondary) and an optional converter:

	byID := query.BuildIndex(query.IndexOptions[string]{Namespace: "users"})
	byCreated := query.BuildIndex(query.IndexOptions[time.Time]{
	    Namespace: "users",
	    Label:     storagemodels.Label1,
	    Converter: query.TimeConverter(),
	})

Operators build a tagged Operation that the index renders into the value part of the key:

	Equals(k)             "k"
	Partial(k)            "k*"
	LessThan(k)           "<k"
	GreaterThan(k)        ">k"
	LessThanOrEqual(k)    "<=k"
	GreaterThanOrEqual(k) ">=k"
	Between(a, b)         "a|b"
	All()                 "*"

A Query binds an index to an operation and carries pagination options:

	q := byCreated.After(since).Reverse().Limit(20)
	users, next, err := query.List(ctx, engine, q, ctor)

An exact query on a primary index resolves to at most one record (One); every other query
resolves to an ordered list (List, Keys, Stream).
*/
package query
