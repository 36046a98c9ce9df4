package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

// CacheStore is an in-memory implementation of driven.CacheStore.
// It backs --no-cache runs and tests.
type CacheStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	now     func() time.Time
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]domain.CacheEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *CacheStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns a live entry's value.
func (s *CacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.Expired(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.Value...), true, nil
}

// Set stores a value with an optional TTL.
func (s *CacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	entry := domain.CacheEntry{
		Key:       key,
		Value:     append([]byte(nil), value...),
		CreatedAt: now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

// Delete removes a key.
func (s *CacheStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// PurgeExpired deletes expired entries.
func (s *CacheStore) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Clear deletes entries matching prefix, or all entries.
func (s *CacheStore) Clear(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Stats summarises the cache.
func (s *CacheStore) Stats(_ context.Context) (domain.CacheStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var stats domain.CacheStats
	for _, e := range s.entries {
		stats.Entries++
		stats.Bytes += int64(len(e.Value))
		if e.Expired(now) {
			stats.Expired++
		}
	}
	return stats, nil
}
