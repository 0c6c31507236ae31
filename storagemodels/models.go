/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Record is a raw stored value as handed to and returned by an engine.
type Record = map[string]any

// Label names one of the secondary access paths a record can be registered under.
type Label string

const (
	Label1 Label = "label1"
	Label2 Label = "label2"
	Label3 Label = "label3"
	Label4 Label = "label4"
	Label5 Label = "label5"
)

// Labels lists every label an engine has to support, in order.
var Labels = []Label{Label1, Label2, Label3, Label4, Label5}

// Valid reports whether l is one of the fixed labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// LabelSet maps a label to the key expression the record is registered under for that label.
type LabelSet map[Label]string

// GetOptions are the retrieval options compiled by a query.
// Zero values mean "not set" and are never sent as defaults.
type GetOptions struct {
	// Label selects a secondary access path. Empty means the primary keys.
	Label Label `json:"label,omitempty" yaml:"label,omitempty"`
	// Start is an exclusive cursor on the sort key, in scan direction.
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	// Limit caps the number of returned items.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
	// Reverse scans in descending key order.
	Reverse bool `json:"reverse,omitempty" yaml:"reverse,omitempty"`
}

// Item is one key/value pair of a list response.
type Item struct {
	Key   string `json:"key"`
	Value Record `json:"value"`
}

// Result is the raw response of an engine lookup.
type Result struct {
	// Value is set by exact primary lookups; nil means no record.
	Value Record `json:"value,omitempty"`
	// Items holds list responses in store order.
	Items []Item `json:"items,omitempty"`
	// LastKey is the sort key of the last item when the scan was cut short by a limit.
	LastKey string `json:"lastKey,omitempty"`
}
