/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/modelstore/storagemodels"
)

// Engine is the key-value storage collaborator consumed by queries and models.
//
// Get returns the single-value shape (Result.Value, nil when absent) for exact lookups
// without a label and the list shape (Result.Items, Result.LastKey) otherwise; see
// keyexpr.Single. Errors are passed through by callers unmodified.
type Engine interface {
	Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error)

	Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error

	Remove(ctx context.Context, key string) error
}

// CloseableEngine is an Engine holding resources that must be released.
type CloseableEngine interface {
	Engine
	Close() error
}
