/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/suparena/kvobject/codec"
	"github.com/suparena/kvobject/config"
	"github.com/suparena/kvobject/datastore"
	"github.com/suparena/kvobject/datastore/bolt"
	"github.com/suparena/kvobject/datastore/ddb"
	"github.com/suparena/kvobject/datastore/memory"
	"github.com/suparena/kvobject/datastore/redis"
)

// OpenStore builds the store selected by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (datastore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendRedis:
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Redis.Addr
		rc.SocketPath = cfg.Redis.SocketPath
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		rc.PoolSize = cfg.Redis.PoolSize
		rc.FallbackAddr = cfg.Redis.FallbackAddr
		rc.DialTimeout = cfg.Redis.DialTimeout
		return redis.New(rc, logger), nil

	case config.BackendDynamoDB:
		client, err := ddb.NewDynamoDBClient(ctx,
			cfg.DynamoDB.AccessKey,
			cfg.DynamoDB.SecretKey,
			cfg.DynamoDB.Region,
			cfg.DynamoDB.Endpoint,
			logger,
		)
		if err != nil {
			return nil, err
		}
		return ddb.NewDynamodbDataStore(client, ddb.TableConfig{
			TableName:        cfg.DynamoDB.Table,
			PartitionKeyName: cfg.DynamoDB.PartitionKeyName,
			SortKeyName:      cfg.DynamoDB.SortKeyName,
		}), nil

	case config.BackendBolt:
		return bolt.Open(cfg.Bolt.Path, bolt.Options{Timeout: cfg.Bolt.Timeout})

	case config.BackendMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}

// Open builds a Mapper from cfg, logging to logw.
func Open(ctx context.Context, cfg config.Config, logw io.Writer) (*Mapper, error) {
	logger := cfg.Logger(logw)

	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("codec", c.Name()).Bool("atomic", cfg.AtomicSave).Msg("mapper opened")

	return New(store,
		WithLogger(logger),
		WithCodec(c),
		WithAtomicSave(cfg.AtomicSave),
	), nil
}
