/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import "github.com/suparena/modelstore/storagemodels"

// Attribute names of the base table.
const (
	// AttrPartitionKey holds the namespace of the primary key.
	AttrPartitionKey = "pk"
	// AttrSortKey holds the sort key of the primary key.
	AttrSortKey = "sk"
	// AttrKey holds the full primary key, returned as the item key of list results.
	AttrKey = "key"
	// AttrValue holds the record.
	AttrValue = "value"
)

// defaultNamespace stands in for the empty namespace; DynamoDB rejects empty key attributes.
const defaultNamespace = "_"

// GSIConfig maps a label onto a global secondary index.
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "label1")
	IndexName string
	// PartitionKeyName is the partition key attribute of the GSI (e.g., "label1_pk")
	PartitionKeyName string
	// SortKeyName is the sort key attribute of the GSI (e.g., "label1_sk")
	SortKeyName string
}

// DefaultGSIConfigs maps every label to a GSI of the same name keyed by <label>_pk and
// <label>_sk.
var DefaultGSIConfigs = func() map[storagemodels.Label]GSIConfig {
	configs := make(map[storagemodels.Label]GSIConfig, len(storagemodels.Labels))
	for _, label := range storagemodels.Labels {
		configs[label] = GSIConfig{
			IndexName:        string(label),
			PartitionKeyName: string(label) + "_pk",
			SortKeyName:      string(label) + "_sk",
		}
	}
	return configs
}()

// GetGSIConfig returns the default GSI configuration for a label.
func GetGSIConfig(label storagemodels.Label) (GSIConfig, bool) {
	config, ok := DefaultGSIConfigs[label]
	return config, ok
}
