package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driven"
)

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ driven.CacheStore = (*cacheStore)(nil)

// Get returns a live entry's value. Expired entries are deleted and reported as a miss.
func (s *cacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM cache_entries WHERE key = ?
	`, key)

	var value []byte
	var expiresAt int64
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scanning cache entry: %w", err)
	}

	if expiresAt != 0 && s.now().UnixNano() >= expiresAt {
		// Match expires_at so a concurrent Set of a fresh value survives.
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, expiresAt); err != nil {
			return nil, false, fmt.Errorf("deleting expired entry: %w", err)
		}
		return nil, false, nil
	}

	return value, true, nil
}

// Set stores or replaces a value.
func (s *cacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, key, value, now.UnixNano(), expiresAt)
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *cacheStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// PurgeExpired deletes every expired entry.
func (s *cacheStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?
	`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging expired entries: %w", err)
	}
	return rowsAffected(res)
}

// Clear deletes all entries whose key starts with prefix, or everything when prefix is empty.
func (s *cacheStore) Clear(ctx context.Context, prefix string) (int, error) {
	var res sql.Result
	var err error
	if prefix == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	}
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return rowsAffected(res)
}

// Stats counts entries, expired entries and stored bytes.
func (s *cacheStore) Stats(ctx context.Context) (domain.CacheStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at != 0 AND expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(LENGTH(value)), 0)
		FROM cache_entries
	`, s.now().UnixNano())

	var stats domain.CacheStats
	if err := row.Scan(&stats.Entries, &stats.Expired, &stats.Bytes); err != nil {
		return domain.CacheStats{}, fmt.Errorf("scanning cache stats: %w", err)
	}
	return stats, nil
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(n), nil
}

// escapeLike escapes LIKE wildcards so prefixes match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
