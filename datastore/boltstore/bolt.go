/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package boltstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

var (
	recordsBucket    = []byte("records")
	namespacesBucket = []byte("namespaces")
	labelsBucket     = []byte("labels")
)

const sep = "\x00"

type envelope struct {
	Value  storagemodels.Record   `msgpack:"v"`
	Labels storagemodels.LabelSet `msgpack:"l,omitempty"`
}

// Options configures Open.
type Options struct {
	// Timeout bounds the wait for the file lock. Zero waits forever.
	Timeout time.Duration
	// NoSync skips fsync after commits. Only safe for scratch data.
	NoSync bool
	Logger observability.Logger
}

// Engine implements datastore.Engine on a bbolt database file.
type Engine struct {
	db     *bbolt.DB
	logger observability.Logger
}

var _ datastore.CloseableEngine = (*Engine)(nil)

// Open opens or creates the database file at path.
func Open(path string, opts Options) (*Engine, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opts.Timeout
	bopt.NoSync = opts.NoSync
	bopt.FreelistType = bbolt.FreelistMapType

	db, err := bbolt.Open(path, 0600, &bopt)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt at %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{recordsBucket, namespacesBucket, labelsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare buckets: %w", err)
	}

	logger := observability.OrNoOp(opts.Logger)
	logger.Debug("bolt database opened", "path", path)
	return &Engine{db: db, logger: logger}, nil
}

// Close closes the database file.
func (b *Engine) Close() error {
	return b.db.Close()
}

// Get reads one record or walks a namespace or label index.
func (b *Engine) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Label != "" && !opts.Label.Valid() {
		return nil, errors.NewValidationError("label", fmt.Sprintf("unknown label %q", opts.Label))
	}

	res := &storagemodels.Result{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		records := tx.Bucket(recordsBucket)
		if keyexpr.Single(key, opts) {
			env, err := load(records, key)
			if err != nil || env == nil {
				return err
			}
			res.Value = env.Value
			return nil
		}

		cands, err := scan(tx, key, opts)
		if err != nil {
			return err
		}
		kept, lastKey := keyexpr.Window(cands, opts)
		res.Items = make([]storagemodels.Item, 0, len(kept))
		res.LastKey = lastKey
		for _, c := range kept {
			env, err := load(records, c.Key)
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
func scan(tx *bbolt.Tx, key string, opts storagemodels.GetOptions) ([]keyexpr.Candidate, error) {
	e := keyexpr.Parse(key)

	var (
		bucket *bbolt.Bucket
		prefix []byte
	)
	if opts.Label == "" {
		bucket, prefix = tx.Bucket(namespacesBucket), []byte(e.Namespace+sep)
	} else {
		bucket, prefix = tx.Bucket(labelsBucket), labelScanPrefix(opts.Label, e.Namespace)
	}

	c := bucket.Cursor()
	forward, reverse := e.SeekBounds(opts)

	var k []byte
	switch {
	case !opts.Reverse:
		k, _ = c.Seek(append(prefix, forward...))
	case reverse != "":
		k = seekAtOrBefore(c, append(prefix, reverse...))
	default:
		end, _ := keyexpr.PrefixEnd(string(prefix))
		k = seekBefore(c, []byte(end))
	}

	var cands []keyexpr.Candidate
	for ; k != nil && bytes.HasPrefix(k, prefix); k = step(c, opts.Reverse) {
		rest := string(k[len(prefix):])

		var cand keyexpr.Candidate
		if opts.Label == "" {
			cand = keyexpr.Candidate{SortKey: rest, Key: keyexpr.Join(e.Namespace, rest)}
		} else {
			sortKey, primary, ok := strings.Cut(rest, sep)
			if !ok {
				return nil, fmt.Errorf("malformed label index entry %q", k)
			}
			cand = keyexpr.Candidate{SortKey: sortKey, Key: primary}
		}

		if e.Beyond(cand.SortKey, opts.Reverse) {
			break
		}
		if !e.Match(cand.SortKey) || !keyexpr.PastStart(cand, opts) {
			continue
		}
		cands = append(cands, cand)
		if opts.Limit > 0 && len(cands) > opts.Limit {
			break
		}
	}
	return cands, nil
}

// seekAtOrBefore positions c on the last key <= target.
func seekAtOrBefore(c *bbolt.Cursor, target []byte) []byte {
	k, _ := c.Seek(target)
	if k == nil {
		k, _ = c.Last()
		return k
	}
	if bytes.Compare(k, target) > 0 {
		k, _ = c.Prev()
	}
	return k
}

// seekBefore positions c on the last key < target.
func seekBefore(c *bbolt.Cursor, target []byte) []byte {
	k, _ := c.Seek(target)
	if k == nil {
		k, _ = c.Last()
		return k
	}
	k, _ = c.Prev()
	return k
}

func step(c *bbolt.Cursor, reverse bool) []byte {
	if reverse {
		k, _ := c.Prev()
		return k
	}
	k, _ := c.Next()
	return k
}

// Set stores the record and replaces its index entries in one transaction.
func (b *Engine) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.NewValidationError("key", "must not be empty")
	}
	for label := range labels {
		if !label.Valid() {
			return errors.NewValidationError("labels", fmt.Sprintf("unknown label %q", label))
		}
	}
	if value == nil {
		value = storagemodels.Record{}
	}
	data, err := encode(envelope{Value: value, Labels: labels})
	if err != nil {
		return fmt.Errorf("failed to marshal record %q: %w", key, err)
	}

	return b.update(key, func(tx *bbolt.Tx) error {
		records := tx.Bucket(recordsBucket)
		old, err := load(records, key)
		if err != nil {
			return err
		}
		if old != nil {
			if err := unlabel(tx, key, old.Labels); err != nil {
				return err
			}
		}
		if err := records.Put([]byte(key), data); err != nil {
			return err
		}
		if err := tx.Bucket(namespacesBucket).Put(namespaceIndexKey(key), []byte{}); err != nil {
			return err
		}
		labelIdx := tx.Bucket(labelsBucket)
		for label, expr := range labels {
			if err := labelIdx.Put(labelIndexKey(label, expr, key), []byte{}); err != nil {
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
	return b.update(key, func(tx *bbolt.Tx) error {
		records := tx.Bucket(recordsBucket)
		old, err := load(records, key)
		if err != nil || old == nil {
			return err
		}
		if err := records.Delete([]byte(key)); err != nil {
			return err
		}
		if err := tx.Bucket(namespacesBucket).Delete(namespaceIndexKey(key)); err != nil {
			return err
		}
		return unlabel(tx, key, old.Labels)
	})
}

func (b *Engine) update(key string, fn func(tx *bbolt.Tx) error) error {
	if err := b.db.Update(fn); err != nil {
		return fmt.Errorf("bolt update %q: %w", key, err)
	}
	return nil
}

func unlabel(tx *bbolt.Tx, key string, labels storagemodels.LabelSet) error {
	labelIdx := tx.Bucket(labelsBucket)
	for label, expr := range labels {
		if err := labelIdx.Delete(labelIndexKey(label, expr, key)); err != nil {
			return err
		}
	}
	return nil
}

func namespaceIndexKey(key string) []byte {
	ns, sk := keyexpr.Split(key)
	return []byte(ns + sep + sk)
}

func labelScanPrefix(label storagemodels.Label, namespace string) []byte {
	return []byte(string(label) + sep + namespace + sep)
}

func labelIndexKey(label storagemodels.Label, expr, key string) []byte {
	ns, sk := keyexpr.Split(expr)
	return append(labelScanPrefix(label, ns), sk+sep+key...)
}

func encode(env envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(env)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// load returns nil when key holds no record. The bucket must belong to an open transaction.
func load(records *bbolt.Bucket, key string) (*envelope, error) {
	data := records.Get([]byte(key))
	if data == nil {
		return nil, nil
	}
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %q: %w", key, err)
	}
	if env.Value == nil {
		env.Value = storagemodels.Record{}
	}
	return &env, nil
}
