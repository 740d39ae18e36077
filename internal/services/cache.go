package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kurdishgpt/Slaw/pkg/logger"
)

// cacheTTL keeps dashboard reads cheap without serving stale leaderboards
// for long.
const cacheTTL = 30 * time.Second

// CacheService is a small JSON cache over Redis for the hot dashboard reads.
// A nil client disables it: every Get is a miss and Set is a no-op.
type CacheService struct {
	client *redis.Client
}

// NewCacheService creates a new CacheService. client may be nil.
func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

// Get unmarshals the cached value for key into dest and reports whether it
// was present. Cache errors are logged and treated as misses.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.Warnf("cache get %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warnf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key with the standard TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warnf("cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		logger.Warnf("cache set %s: %v", key, err)
	}
}
