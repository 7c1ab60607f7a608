package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
)

// cacheSchemaVersion is bumped whenever the shape of cached grade payloads changes, so
// entries written by an older build are treated as misses.
const cacheSchemaVersion = 1

const deleteBatchSize = 100

type cacheEntry struct {
	Version int             `json:"v"`
	Payload json.RawMessage `json:"p"`
}

// CacheRepository stores calculated grade payloads in Redis as versioned JSON.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository. A nil client turns every read into a miss.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get loads the entry stored under key into dest. Missing, stale or undecodable
// entries all report appErrors.ErrCacheMiss; the latter two are deleted.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return appErrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := decodeEntry(raw, dest); err != nil {
		r.logger.Warn("discarding cache entry", zap.String("key", key), zap.Error(err))
		if delErr := r.client.Unlink(ctx, key).Err(); delErr != nil {
			r.logger.Debug("cache entry unlink failed", zap.String("key", key), zap.Error(delErr))
		}
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores value under key for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	raw, err := encodeEntry(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern unlinks every key matching pattern in pipelined batches and returns
// how many keys were removed.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if r.client == nil {
		return 0, nil
	}

	var (
		deleted int
		batch   = make([]string, 0, deleteBatchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis unlink %d keys: %w", len(batch), err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, deleteBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == deleteBatchSize {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Ping reports whether Redis is reachable. A missing client is healthy.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func encodeEntry(value interface{}) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cacheEntry{Version: cacheSchemaVersion, Payload: payload})
}

func decodeEntry(raw []byte, dest interface{}) error {
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return err
	}
	if entry.Version != cacheSchemaVersion {
		return fmt.Errorf("schema version %d, want %d", entry.Version, cacheSchemaVersion)
	}
	return json.Unmarshal(entry.Payload, dest)
}
