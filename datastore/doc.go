/*
Package datastore defines the storage engine collaborator of modelstore.

The main interface is Engine, a narrow key-value contract:

	type Engine interface {
	    Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error)
	    Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error
	    Remove(ctx context.Context, key string) error
	}

Keys are "namespace:sortKey" expressions. Get understands the operators produced by the query
package (see keyexpr). Set registers a record under up to five labelled secondary keys.

Implementations:
  - ddb: DynamoDB adapter, labels map onto global secondary indexes
  - redisstore: Redis adapter built on lexicographically ordered sorted sets
  - badgerstore: embedded BadgerDB adapter
  - mock: in-memory engine with call recording and fault injection for testing

Instrument wraps any Engine with structured logging and metrics.
*/
package datastore
