/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/modelstore/errors"
)

// Engine names.
const (
	EngineMemory   = "memory"
	EngineBadger   = "badger"
	EngineRedis    = "redis"
	EngineDynamoDB = "dynamodb"
	EngineBolt     = "bolt"
)

// Defaults.
const (
	DefaultEngine        = EngineMemory
	DefaultLogLevel      = "info"
	DefaultMaxShadowKeys = 5
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = "modelstore"
	DefaultAWSRegion     = "us-east-1"
)

// Environment variables overriding file settings.
const (
	EnvEngine         = "MODELSTORE_ENGINE"
	EnvLogLevel       = "MODELSTORE_LOG_LEVEL"
	EnvAWSAccessKey   = "AWS_ACCESS_KEY"
	EnvAWSSecretKey   = "AWS_SECRET_KEY"
	EnvAWSRegion      = "AWS_REGION"
	EnvDynamoDBTable  = "AWS_DDB_TABLE"
	EnvDynamoEndpoint = "AWS_DDB_ENDPOINT"
	EnvRedisAddr      = "REDIS_ADDR"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvRedisDB        = "REDIS_DB"
	EnvBadgerPath     = "BADGER_PATH"
	EnvBoltPath       = "BOLT_PATH"
)

// Config selects and configures an engine and the ambient services around it.
type Config struct {
	// Engine is one of memory, badger, bolt, redis or dynamodb, or the name of an engine
	// registered by the application.
	Engine string `yaml:"engine"`
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`
	// Metrics enables Prometheus collectors.
	Metrics bool `yaml:"metrics"`

	// MaxShadowKeys bounds the shadow key-sets of bounded entities. Zero means
	// DefaultMaxShadowKeys.
	MaxShadowKeys int `yaml:"maxShadowKeys"`
	// ShadowConcurrency limits concurrent shadow writes; zero means unlimited.
	ShadowConcurrency int `yaml:"shadowConcurrency"`
	// CacheSize is the number of exact lookups kept in an LRU in front of the engine; zero
	// disables the cache.
	CacheSize int `yaml:"cacheSize"`

	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Redis    RedisConfig    `yaml:"redis"`
	Badger   BadgerConfig   `yaml:"badger"`
	Bolt     BoltConfig     `yaml:"bolt"`
}

type DynamoDBConfig struct {
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	// Endpoint points at DynamoDB Local or another compatible service.
	Endpoint string `yaml:"endpoint"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inMemory"`
}

type BoltConfig struct {
	Path string `yaml:"path"`
	// Timeout bounds the wait for the file lock, e.g. "5s".
	Timeout time.Duration `yaml:"timeout"`
	NoSync  bool          `yaml:"noSync"`
}

// Default returns a configuration for the in-memory engine.
func Default() Config {
	return Config{
		Engine:        DefaultEngine,
		LogLevel:      DefaultLogLevel,
		MaxShadowKeys: DefaultMaxShadowKeys,
		DynamoDB:      DynamoDBConfig{Region: DefaultAWSRegion},
		Redis:         RedisConfig{Addr: DefaultRedisAddr, Prefix: DefaultRedisPrefix},
	}
}

// Load reads the YAML file at path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML into cfg. Unknown fields are rejected; an empty document leaves cfg
// unchanged.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// LoadDotEnv loads environment files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings with the environment variables that are set.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		EnvEngine:         &c.Engine,
		EnvLogLevel:       &c.LogLevel,
		EnvAWSAccessKey:   &c.DynamoDB.AccessKey,
		EnvAWSSecretKey:   &c.DynamoDB.SecretKey,
		EnvAWSRegion:      &c.DynamoDB.Region,
		EnvDynamoDBTable:  &c.DynamoDB.Table,
		EnvDynamoEndpoint: &c.DynamoDB.Endpoint,
		EnvRedisAddr:      &c.Redis.Addr,
		EnvRedisPassword:  &c.Redis.Password,
		EnvBadgerPath:     &c.Badger.Path,
		EnvBoltPath:       &c.Bolt.Path,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}
	if v, ok := os.LookupEnv(EnvRedisDB); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvRedisDB, fmt.Sprintf("not a number: %q", v))
		}
		c.Redis.DB = db
	}
	return nil
}

// Validate checks the settings the selected engine needs.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValidationError("logLevel", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	if c.MaxShadowKeys < 0 {
		return errors.NewValidationError("maxShadowKeys", "must be non-negative")
	}
	if c.ShadowConcurrency < 0 {
		return errors.NewValidationError("shadowConcurrency", "must be non-negative")
	}
	if c.CacheSize < 0 {
		return errors.NewValidationError("cacheSize", "must be non-negative")
	}

	switch c.Engine {
	case EngineMemory:
	case EngineBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			return errors.NewValidationError("badger.path", "required unless badger.inMemory is set")
		}
	case EngineRedis:
		if c.Redis.Addr == "" {
			return errors.NewValidationError("redis.addr", "required for the redis engine")
		}
		if c.Redis.DB < 0 {
			return errors.NewValidationError("redis.db", "must be non-negative")
		}
	case EngineDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.NewValidationError("dynamodb.table", "required for the dynamodb engine")
		}
		if c.DynamoDB.Region == "" {
			return errors.NewValidationError("dynamodb.region", "required for the dynamodb engine")
		}
		if (c.DynamoDB.AccessKey == "") != (c.DynamoDB.SecretKey == "") {
			return errors.NewValidationError("dynamodb.secretKey", "access and secret key must be set together")
		}
	case EngineBolt:
		if c.Bolt.Path == "" {
			return errors.NewValidationError("bolt.path", "required for the bolt engine")
		}
		if c.Bolt.Timeout < 0 {
			return errors.NewValidationError("bolt.timeout", "must be non-negative")
		}
	case "":
		return errors.NewValidationError("engine", "required")
	}
	return nil
}
