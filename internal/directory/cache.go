package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "directory:capability:"

// CachedDirectory is a read-through Redis cache in front of another
// directory. Assignment bursts resolve the same pool repeatedly; a short TTL
// keeps them off the agents table. Cache failures degrade to the inner
// directory, never to an error.
type CachedDirectory struct {
	inner  StaffDirectory
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory wraps inner with a Redis pool cache.
func NewCachedDirectory(inner StaffDirectory, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedDirectory{inner: inner, client: client, ttl: ttl, logger: logger}
}

// ListByCapability serves from cache when possible.
func (d *CachedDirectory) ListByCapability(ctx context.Context, capability string) ([]string, error) {
	key := cacheKeyPrefix + capability

	if cached, err := d.client.Get(ctx, key).Result(); err == nil {
		var ids []string
		if err := json.Unmarshal([]byte(cached), &ids); err == nil {
			return ids, nil
		}
		d.logger.Warn("directory cache entry malformed", zap.String("key", key))
	}

	ids, err := d.inner.ListByCapability(ctx, capability)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(ids); err == nil {
		if err := d.client.Set(ctx, key, payload, d.ttl).Err(); err != nil {
			d.logger.Warn("directory cache write failed", zap.Error(err))
		}
	}
	return ids, nil
}
