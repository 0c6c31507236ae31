/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redisstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

// DefaultPrefix prefixes every Redis key written by the engine.
const DefaultPrefix = "modelstore"

// maxTxRetries bounds optimistic transaction retries when a watched record changes.
const maxTxRetries = 10

// envelope is the stored form of a record: its value and the label entries to clean up when
// the record is replaced or removed.
type envelope struct {
	Value  storagemodels.Record   `json:"value"`
	Labels storagemodels.LabelSet `json:"labels,omitempty"`
}

// Engine implements datastore.Engine on Redis.
//
// Key layout, for prefix p:
//
//	p:rec:<key>                  JSON envelope of the record
//	p:ns:<namespace>             sorted set of the namespace's sort keys
//	p:lx:<label>:<namespace>     sorted set of "labelSortKey\x00key" members
//
// Sorted set members all share score 0 so that ZRANGEBYLEX orders them bytewise.
type Engine struct {
	client redis.UniversalClient
	prefix string
	logger observability.Logger
	owned  bool
}

var _ datastore.CloseableEngine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithPrefix changes DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(r *Engine) { r.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(r *Engine) { r.logger = observability.OrNoOp(l) }
}

// New creates an engine on an existing client. Close does not close the client.
func New(client redis.UniversalClient, opts ...Option) *Engine {
	r := &Engine{
		client: client,
		prefix: DefaultPrefix,
		logger: &observability.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open connects to addr and verifies the connection. Close closes the client.
func Open(ctx context.Context, addr, password string, db int, opts ...Option) (*Engine, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	r := New(client, opts...)
	r.owned = true
	return r, nil
}

func (r *Engine) recordKey(key string) string {
	return r.prefix + ":rec:" + key
}

func (r *Engine) namespaceKey(namespace string) string {
	return r.prefix + ":ns:" + namespace
}

func (r *Engine) labelKey(label storagemodels.Label, namespace string) string {
	return r.prefix + ":lx:" + string(label) + ":" + namespace
}

func labelMember(sortKey, key string) string {
	return sortKey + "\x00" + key
}

// Get reads one record or walks a namespace or label set in lexical order.
func (r *Engine) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	if keyexpr.Single(key, opts) {
		env, err := r.load(ctx, r.client.Get, key)
		if err != nil {
			return nil, err
		}
		if env == nil {
			return &storagemodels.Result{}, nil
		}
		return &storagemodels.Result{Value: env.Value}, nil
	}

	if opts.Label != "" && !opts.Label.Valid() {
		return nil, errors.NewValidationError("label", fmt.Sprintf("unknown label %q", opts.Label))
	}

	e := keyexpr.Parse(key)
	rng := rangeOf(e, opts)

	var setKey, lo, hi string
	if opts.Label == "" {
		setKey = r.namespaceKey(e.Namespace)
		lo, hi = rng.namespaceLex()
	} else {
		setKey = r.labelKey(opts.Label, e.Namespace)
		lo, hi = rng.labelLex()
	}

	by := &redis.ZRangeBy{Min: lo, Max: hi}
	if opts.Limit > 0 {
		by.Count = int64(opts.Limit + 1)
	}
	var members []string
	var err error
	if opts.Reverse {
		members, err = r.client.ZRevRangeByLex(ctx, setKey, by).Result()
	} else {
		members, err = r.client.ZRangeByLex(ctx, setKey, by).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redis range %s: %w", setKey, err)
	}

	cands := make([]keyexpr.Candidate, 0, len(members))
	for _, m := range members {
		if opts.Label == "" {
			cands = append(cands, keyexpr.Candidate{SortKey: m, Key: keyexpr.Join(e.Namespace, m)})
			continue
		}
		sortKey, primary, _ := strings.Cut(m, "\x00")
		cands = append(cands, keyexpr.Candidate{SortKey: sortKey, Key: primary})
	}
	kept, lastKey := keyexpr.Window(cands, opts)

	items := make([]storagemodels.Item, 0, len(kept))
	if len(kept) > 0 {
		recKeys := make([]string, len(kept))
		for i, c := range kept {
			recKeys[i] = r.recordKey(c.Key)
		}
		raws, err := r.client.MGet(ctx, recKeys...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget: %w", err)
		}
		for i, raw := range raws {
			s, ok := raw.(string)
			if !ok {
				// Removed between the range read and the value read.
				continue
			}
			env, err := decode(kept[i].Key, []byte(s))
			if err != nil {
				return nil, err
			}
			items = append(items, storagemodels.Item{Key: kept[i].Key, Value: env.Value})
		}
	}
	return &storagemodels.Result{Items: items, LastKey: lastKey}, nil
}

// Set stores the record and replaces its index entries in one MULTI/EXEC transaction,
// retried while the record is modified concurrently.
func (r *Engine) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
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

	ns, sk := keyexpr.Split(key)
	recKey := r.recordKey(key)
	return r.transact(ctx, recKey, func(tx *redis.Tx) error {
		old, err := r.load(ctx, tx.Get, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old != nil {
				r.unlabel(ctx, pipe, key, old.Labels)
			}
			pipe.Set(ctx, recKey, data, 0)
			pipe.ZAdd(ctx, r.namespaceKey(ns), redis.Z{Member: sk})
			for label, expr := range labels {
				lns, lsk := keyexpr.Split(expr)
				pipe.ZAdd(ctx, r.labelKey(label, lns), redis.Z{Member: labelMember(lsk, key)})
			}
			return nil
		})
		return err
	})
}

// Remove deletes the record and its index entries. Removing an absent key is a no-op.
func (r *Engine) Remove(ctx context.Context, key string) error {
	ns, sk := keyexpr.Split(key)
	recKey := r.recordKey(key)
	return r.transact(ctx, recKey, func(tx *redis.Tx) error {
		old, err := r.load(ctx, tx.Get, key)
		if err != nil || old == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, recKey)
			pipe.ZRem(ctx, r.namespaceKey(ns), sk)
			r.unlabel(ctx, pipe, key, old.Labels)
			return nil
		})
		return err
	})
}

// Close closes the client when the engine opened it.
func (r *Engine) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

func (r *Engine) unlabel(ctx context.Context, pipe redis.Pipeliner, key string, labels storagemodels.LabelSet) {
	for label, expr := range labels {
		lns, lsk := keyexpr.Split(expr)
		pipe.ZRem(ctx, r.labelKey(label, lns), labelMember(lsk, key))
	}
}

func (r *Engine) transact(ctx context.Context, recKey string, fn func(tx *redis.Tx) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, fn, recKey)
		if !stderrors.Is(err, redis.TxFailedErr) {
			if err != nil {
				return fmt.Errorf("redis transaction on %s: %w", recKey, err)
			}
			return nil
		}
		r.logger.Debug("redis transaction retried", "key", recKey, "attempt", attempt+1)
	}
	return fmt.Errorf("redis transaction on %s: %w", recKey, redis.TxFailedErr)
}

func (r *Engine) load(ctx context.Context, get func(context.Context, string) *redis.StringCmd, key string) (*envelope, error) {
	data, err := get(ctx, r.recordKey(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decode(key, data)
}

func decode(key string, data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %q: %w", key, err)
	}
	if env.Value == nil {
		env.Value = storagemodels.Record{}
	}
	return &env, nil
}
