package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/custodia-labs/finkit/internal/core/ports/driven"
	"github.com/custodia-labs/finkit/internal/logger"
	"github.com/custodia-labs/finkit/internal/metrics"
)

// jsonCache stores JSON-encoded values in a CacheStore. A nil store
// disables caching. Cache failures are logged and never fail the caller.
type jsonCache struct {
	store driven.CacheStore
}

// get decodes a cached value into dst. Undecodable entries are dropped and
// reported as a miss.
func (c jsonCache) get(ctx context.Context, namespace, key string, dst any) bool {
	if c.store == nil {
		return false
	}
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache: get %s: %v", key, err)
		return false
	}
	if ok {
		if err := json.Unmarshal(data, dst); err != nil {
			logger.Debug("cache: dropping undecodable entry %s: %v", key, err)
			_ = c.store.Delete(ctx, key)
			ok = false
		}
	}
	metrics.ObserveCache(namespace, ok)
	return ok
}

func (c jsonCache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("cache: encoding %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache: set %s: %v", key, err)
	}
}
