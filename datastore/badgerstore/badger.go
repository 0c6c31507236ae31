/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package badgerstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

// maxConflictRetries bounds retries of write transactions that lost a conflict.
const maxConflictRetries = 10

type envelope struct {
	Value  storagemodels.Record   `json:"value"`
	Labels storagemodels.LabelSet `json:"labels,omitempty"`
}

// Engine implements datastore.Engine on an embedded BadgerDB.
type Engine struct {
	db     *badger.DB
	logger observability.Logger
}

var _ datastore.CloseableEngine = (*Engine)(nil)

// badgerLogger routes badger's own logging to an observability.Logger.
type badgerLogger struct {
	logger observability.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any) {
	bl.logger.Error(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLogger) Warningf(msg string, items ...any) {
	bl.logger.Warn(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLogger) Infof(msg string, items ...any) {
	bl.logger.Info(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLogger) Debugf(msg string, items ...any) {
	bl.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// Open opens the database at path, creating the directory when needed. With inMemory set the
// path is ignored and nothing touches disk.
func Open(path string, inMemory bool, logger observability.Logger) (*Engine, error) {
	logger = observability.OrNoOp(logger)

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", path)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return &Engine{db: db, logger: logger}, nil
}

// Close closes the database.
func (b *Engine) Close() error {
	return b.db.Close()
}

// Get reads one record or iterates a namespace or label index.
func (b *Engine) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Label != "" && !opts.Label.Valid() {
		return nil, errors.NewValidationError("label", fmt.Sprintf("unknown label %q", opts.Label))
	}

	res := &storagemodels.Result{}
	err := b.db.View(func(txn *badger.Txn) error {
		if keyexpr.Single(key, opts) {
			env, err := load(txn, key)
			if err != nil || env == nil {
				return err
			}
			res.Value = env.Value
			return nil
		}

		cands, err := scan(txn, key, opts)
		if err != nil {
			return err
		}
		kept, lastKey := keyexpr.Window(cands, opts)
		res.Items = make([]storagemodels.Item, 0, len(kept))
		res.LastKey = lastKey
		for _, c := range kept {
			env, err := load(txn, c.Key)
			if err != nil {
				return err
			}
			if env == nil {
				return fmt.Errorf("index entry for %q has no record", c.Key)
			}
			res.Items = append(res.Items, storagemodels.Item{Key: c.Key, Value: env.Value})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// scan collects matching index entries in scan direction, stopping after one entry more than
// the limit.
func scan(txn *badger.Txn, key string, opts storagemodels.GetOptions) ([]keyexpr.Candidate, error) {
	e := keyexpr.Parse(key)

	var prefix string
	if opts.Label == "" {
		prefix = namespaceScanPrefix(e.Namespace)
	} else {
		prefix = labelScanPrefix(opts.Label, e.Namespace)
	}

	iterOpts := badger.DefaultIteratorOptions
	iterOpts.PrefetchValues = false
	iterOpts.Reverse = opts.Reverse
	iterOpts.Prefix = []byte(prefix)
	it := txn.NewIterator(iterOpts)
	defer it.Close()

	forward, reverse := e.SeekBounds(opts)
	seek := prefix + forward
	if opts.Reverse {
		seek = prefix + reverse
		if reverse == "" {
			seek = prefix + "\xff"
		}
	}

	var cands []keyexpr.Candidate
	for it.Seek([]byte(seek)); it.ValidForPrefix(iterOpts.Prefix); it.Next() {
		rest := string(it.Item().Key()[len(prefix):])

		var c keyexpr.Candidate
		if opts.Label == "" {
			c = keyexpr.Candidate{SortKey: rest, Key: keyexpr.Join(e.Namespace, rest)}
		} else {
			sortKey, primary, ok := strings.Cut(rest, sep)
			if !ok {
				return nil, fmt.Errorf("malformed label index entry %q", it.Item().Key())
			}
			c = keyexpr.Candidate{SortKey: sortKey, Key: primary}
		}

		if e.Beyond(c.SortKey, opts.Reverse) {
			break
		}
		if !e.Match(c.SortKey) || !keyexpr.PastStart(c, opts) {
			continue
		}
		cands = append(cands, c)
		if opts.Limit > 0 && len(cands) > opts.Limit {
			break
		}
	}
	return cands, nil
}

// Set stores the record and replaces its index entries in one transaction.
func (b *Engine) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for label := range labels {
		if !label.Valid() {
			return errors.NewValidationError("labels", fmt.Sprintf("unknown label %q", label))
		}
	}
	if value == nil {
		value = storagemodels.Record{}
	}
	data, err := json.Marshal(envelope{Value: value, Labels: labels})
	if err != nil {
		return fmt.Errorf("failed to marshal record %q: %w", key, err)
	}

	return b.update(key, func(txn *badger.Txn) error {
		old, err := load(txn, key)
		if err != nil {
			return err
		}
		if old != nil {
			if err := unlabel(txn, key, old.Labels); err != nil {
				return err
			}
		}
		if err := txn.Set(recordKey(key), data); err != nil {
			return err
		}
		if err := txn.Set(namespaceIndexKey(key), nil); err != nil {
			return err
		}
		for label, expr := range labels {
			if err := txn.Set(labelIndexKey(label, expr, key), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// Remove deletes the record and its index entries. Removing an absent key is a no-op.
func (b *Engine) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.update(key, func(txn *badger.Txn) error {
		old, err := load(txn, key)
		if err != nil || old == nil {
			return err
		}
		if err := txn.Delete(recordKey(key)); err != nil {
			return err
		}
		if err := txn.Delete(namespaceIndexKey(key)); err != nil {
			return err
		}
		return unlabel(txn, key, old.Labels)
	})
}

func (b *Engine) update(key string, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = b.db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
		b.logger.Debug("badger transaction conflict, retrying", "key", key, "attempt", attempt+1)
	}
	if err != nil {
		return fmt.Errorf("badger update %q: %w", key, err)
	}
	return nil
}

func unlabel(txn *badger.Txn, key string, labels storagemodels.LabelSet) error {
	for label, expr := range labels {
		if err := txn.Delete(labelIndexKey(label, expr, key)); err != nil {
			return err
		}
	}
	return nil
}

func load(txn *badger.Txn, key string) (*envelope, error) {
	item, err := txn.Get(recordKey(key))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}

	var env envelope
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &env)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %q: %w", key, err)
	}
	if env.Value == nil {
		env.Value = storagemodels.Record{}
	}
	return &env, nil
}
