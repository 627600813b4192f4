/*
Package datastore defines the store protocol the kvobject mapping layer runs on.

The protocol is the small subset of a Redis-like command set the mapper needs:
hash fields for entity attributes, sets for class membership and collections,
sorted sets for indices and history, plus key existence and deletion:

	type Store interface {
	    HGet(ctx context.Context, key, field string) (string, bool, error)
	    HGetAll(ctx context.Context, key string) (map[string]string, error)
	    SMembers(ctx context.Context, key string) ([]string, error)
	    SIsMember(ctx context.Context, key, member string) (bool, error)
	    ZRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error)
	    Exists(ctx context.Context, key string) (bool, error)
	    HSet(ctx context.Context, key, field, value string) error
	    SAdd(ctx context.Context, key string, members ...string) error
	    SRem(ctx context.Context, key string, members ...string) error
	    ZAdd(ctx context.Context, key string, score float64, member string) error
	    ZRem(ctx context.Context, key string, members ...string) error
	    Del(ctx context.Context, keys ...string) error
	    Close() error
	}

Implementations:
  - redis: Redis via go-redis, behind a rotating connection pool with fallback
  - ddb: DynamoDB single-table layout
  - bolt: embedded bbolt file
  - memory: in-process maps, used for tests and ephemeral mappers

Stores that can apply several writes atomically also implement Batcher.
*/
package datastore
