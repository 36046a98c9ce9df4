package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// CacheStore is a key-value cache with per-entry TTL.
type CacheStore interface {
	// Get returns the value for key. The boolean is false on miss or expiry;
	// expired entries are deleted as a side effect.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero stores an entry that never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// PurgeExpired deletes all expired entries and returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)

	// Clear deletes every entry, or only those whose key has the prefix.
	Clear(ctx context.Context, prefix string) (int, error)

	// Stats summarises the cache contents.
	Stats(ctx context.Context) (domain.CacheStats, error)
}
