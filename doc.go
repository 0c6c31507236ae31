/*
Package modelstore is a typed query and persistence layer over key-value engines.

Models declare their access paths as indexes. A query compiles an index and an operator into
a key expression ("namespace:sortKey" plus an operator such as a prefix or a range) and
retrieval options; an engine resolves it. Entities list their keys, and the model store keeps
every record location in sync when keys change, including shadow copies of the record under
additional keys.

The packages are layered:
  - query: indexes, operators, queries, One/List/Keys/Stream
  - model: entity persistence (save, delete, shadow keys, hydration)
  - datastore: the Engine interface and its DynamoDB, Redis, Badger and in-memory adapters
  - config, observability: settings, zap logging and Prometheus metrics

This package ties them together. Open builds a Client from a config.Config; For returns the
typed Repository of an entity type.

Basic Usage:

	cfg, _ := config.Load("modelstore.yaml")
	client, _ := modelstore.Open(ctx, cfg)
	defer client.Close()

	users := modelstore.For(client, func() *User { return &User{} })
	_ = users.Save(ctx, &User{ID: "42", Name: "ann"})

	u, found, _ := users.One(ctx, UserByID.Exact("42"))
	byName, lastKey, _ := users.List(ctx, UserByName.Partial("a").Limit(10))
*/
package modelstore
