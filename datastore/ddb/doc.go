/*
Package ddb provides a DynamoDB implementation of datastore.Engine.

The Engine uses a single-table design:

	pk     namespace of the key ("_" for the default namespace)
	sk     sort key
	key    full key, returned as the item key of list results
	value  the record, as a map attribute

Labels are projected onto global secondary indexes. By default label1..label5 map to GSIs of
the same name keyed by label1_pk/label1_sk and so on; WithGSIConfigs changes the mapping:

	engine := ddb.New(client, "models", ddb.WithGSIConfigs(map[storagemodels.Label]ddb.GSIConfig{
	    storagemodels.Label1: {IndexName: "GSI1", PartitionKeyName: "PK1", SortKeyName: "SK1"},
	}))

Key operators become key conditions: exact keys use "=", prefixes begins_with, ranges the
comparison operators and BETWEEN. Exact lookups without a label use GetItem with a consistent
read; everything else is a paginated Query.
*/
package ddb
