/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/badgerstore"
	"github.com/suparena/modelstore/datastore/boltstore"
	"github.com/suparena/modelstore/datastore/ddb"
	"github.com/suparena/modelstore/datastore/mock"
	"github.com/suparena/modelstore/datastore/redisstore"
	"github.com/suparena/modelstore/observability"
)

// EngineFactory opens an engine from configuration.
type EngineFactory func(ctx context.Context, cfg config.Config, logger observability.Logger) (datastore.CloseableEngine, error)

// engineRegistry is a thread-safe registry of engine factories by name.
type engineRegistry struct {
	mu        sync.RWMutex
	factories map[string]EngineFactory
}

var engines = &engineRegistry{factories: make(map[string]EngineFactory)}

func init() {
	for name, f := range map[string]EngineFactory{
		config.EngineMemory:   openMemory,
		config.EngineBadger:   openBadger,
		config.EngineBolt:     openBolt,
		config.EngineRedis:    openRedis,
		config.EngineDynamoDB: openDynamoDB,
	} {
		if err := RegisterEngine(name, f); err != nil {
			panic(err)
		}
	}
}

// RegisterEngine makes an engine available to Open under name.
func RegisterEngine(name string, f EngineFactory) error {
	engines.mu.Lock()
	defer engines.mu.Unlock()

	if _, exists := engines.factories[name]; exists {
		return fmt.Errorf("engine %q already registered", name)
	}
	engines.factories[name] = f
	return nil
}

// Engines lists the registered engine names.
func Engines() []string {
	engines.mu.RLock()
	defer engines.mu.RUnlock()

	names := make([]string, 0, len(engines.factories))
	for name := range engines.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenEngine opens the engine cfg.Engine names.
func OpenEngine(ctx context.Context, cfg config.Config, logger observability.Logger) (datastore.CloseableEngine, error) {
	engines.mu.RLock()
	f, exists := engines.factories[cfg.Engine]
	engines.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("engine %q not registered", cfg.Engine)
	}
	return f(ctx, cfg, observability.OrNoOp(logger))
}

func openMemory(context.Context, config.Config, observability.Logger) (datastore.CloseableEngine, error) {
	return mock.New(), nil
}

func openBadger(_ context.Context, cfg config.Config, logger observability.Logger) (datastore.CloseableEngine, error) {
	return badgerstore.Open(cfg.Badger.Path, cfg.Badger.InMemory, logger)
}

func openBolt(_ context.Context, cfg config.Config, logger observability.Logger) (datastore.CloseableEngine, error) {
	return boltstore.Open(cfg.Bolt.Path, boltstore.Options{
		Timeout: cfg.Bolt.Timeout,
		NoSync:  cfg.Bolt.NoSync,
		Logger:  logger,
	})
}

func openRedis(ctx context.Context, cfg config.Config, logger observability.Logger) (datastore.CloseableEngine, error) {
	opts := []redisstore.Option{redisstore.WithLogger(logger)}
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redisstore.WithPrefix(cfg.Redis.Prefix))
	}
	return redisstore.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
}

func openDynamoDB(ctx context.Context, cfg config.Config, logger observability.Logger) (datastore.CloseableEngine, error) {
	return ddb.NewFromCredentials(ctx,
		cfg.DynamoDB.AccessKey,
		cfg.DynamoDB.SecretKey,
		cfg.DynamoDB.Region,
		cfg.DynamoDB.Endpoint,
		cfg.DynamoDB.Table,
		ddb.WithLogger(logger),
	)
}
