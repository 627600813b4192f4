/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the store and mapper settings from YAML, a .env file
// and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	kverrors "github.com/suparena/kvobject/errors"
)

// Supported backends.
const (
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendBolt     = "bolt"
	BackendMemory   = "memory"
)

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	SocketPath   string        `yaml:"socketPath"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"poolSize"`
	FallbackAddr string        `yaml:"fallbackAddr"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
}

type DynamoDBConfig struct {
	Table            string `yaml:"table"`
	Region           string `yaml:"region"`
	Endpoint         string `yaml:"endpoint"`
	AccessKey        string `yaml:"accessKey"`
	SecretKey        string `yaml:"secretKey"`
	PartitionKeyName string `yaml:"partitionKey"`
	SortKeyName      string `yaml:"sortKey"`
}

type BoltConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the complete kvobject configuration.
type Config struct {
	Backend    string         `yaml:"backend"`
	Redis      RedisConfig    `yaml:"redis"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`
	Bolt       BoltConfig     `yaml:"bolt"`
	Codec      string         `yaml:"codec"`
	AtomicSave bool           `yaml:"atomicSave"`
	LogLevel   string         `yaml:"logLevel"`
}

// Default returns a Redis configuration against a local server.
func Default() Config {
	return Config{
		Backend: BackendRedis,
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			SocketPath:   "/tmp/redis.sock",
			PoolSize:     1,
			FallbackAddr: "localhost:6379",
			DialTimeout:  5 * time.Second,
		},
		DynamoDB: DynamoDBConfig{
			Region:           "us-east-1",
			PartitionKeyName: "PK",
			SortKeyName:      "SK",
		},
		Bolt: BoltConfig{
			Path:    "kvobject.db",
			Timeout: 10 * time.Second,
		},
		Codec:    "json",
		LogLevel: "info",
	}
}

// Parse decodes YAML over the defaults. Environment overrides are not applied.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	buf, err := io.ReadAll(r)
	if err != nil {
		return cfg, err
	}
	if len(bytes.TrimSpace(buf)) > 0 {
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Load reads path (optional, "" skips it), then .env when present, then
// applies KVOBJECT_* and AWS_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("config: .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("KVOBJECT_BACKEND", &c.Backend)
	str("KVOBJECT_CODEC", &c.Codec)
	str("KVOBJECT_LOG_LEVEL", &c.LogLevel)
	str("KVOBJECT_REDIS_ADDR", &c.Redis.Addr)
	str("KVOBJECT_REDIS_SOCKET", &c.Redis.SocketPath)
	str("KVOBJECT_REDIS_PASSWORD", &c.Redis.Password)
	str("KVOBJECT_BOLT_PATH", &c.Bolt.Path)
	str("KVOBJECT_DDB_ENDPOINT", &c.DynamoDB.Endpoint)
	str("AWS_DDB_TABLE", &c.DynamoDB.Table)
	str("AWS_REGION", &c.DynamoDB.Region)
	str("AWS_ACCESS_KEY", &c.DynamoDB.AccessKey)
	str("AWS_SECRET_KEY", &c.DynamoDB.SecretKey)

	if v, ok := lookup("KVOBJECT_REDIS_POOL_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return kverrors.NewValidationError("KVOBJECT_REDIS_POOL_SIZE", err.Error())
		}
		c.Redis.PoolSize = n
	}
	if v, ok := lookup("KVOBJECT_ATOMIC_SAVE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return kverrors.NewValidationError("KVOBJECT_ATOMIC_SAVE", err.Error())
		}
		c.AtomicSave = b
	}
	return nil
}

// Validate checks the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis:
		if c.Redis.PoolSize < 0 {
			return kverrors.NewValidationError("redis.poolSize", "must not be negative")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return kverrors.NewValidationError("dynamodb.table", "required for the dynamodb backend")
		}
	case BackendBolt:
		if c.Bolt.Path == "" {
			return kverrors.NewValidationError("bolt.path", "required for the bolt backend")
		}
	case BackendMemory:
	default:
		return kverrors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return kverrors.NewValidationError("logLevel", err.Error())
	}
	return nil
}

// Logger returns a logger writing JSON to w at the configured level.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("backend", c.Backend).Logger()
}
