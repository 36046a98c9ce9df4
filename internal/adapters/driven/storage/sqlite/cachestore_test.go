package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

func TestCacheStore_SetAndGet(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "fred:GDP:-:-", []byte(`{"id":"GDP"}`), time.Hour))

	val, ok, err := cs.Get(ctx, "fred:GDP:-:-")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"GDP"}`, string(val))
}

func TestCacheStore_Get_Miss(t *testing.T) {
	now := time.Now()
	cs := setupCacheStore(t, &now)

	val, ok, err := cs.Get(t.Context(), "missing")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCacheStore_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(59 * time.Second)
	_, ok, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "entry should be live before TTL")

	now = now.Add(time.Second)
	_, ok, err = cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire exactly at TTL")

	stats, err := cs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries, "expired entry is deleted on read")
}

func TestCacheStore_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * 365 * time.Hour)

	_, ok, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheStore_SetOverwrites(t *testing.T) {
	now := time.Now()
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "k", []byte("old"), time.Hour))
	require.NoError(t, cs.Set(ctx, "k", []byte("new"), time.Hour))

	val, _, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(val))
}

func TestCacheStore_Set_EmptyKey(t *testing.T) {
	now := time.Now()
	cs := setupCacheStore(t, &now)

	err := cs.Set(t.Context(), "", []byte("v"), 0)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCacheStore_PurgeExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, cs.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, cs.Set(ctx, "forever", []byte("3"), 0))

	now = now.Add(10 * time.Minute)

	stats, err := cs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, int64(3), stats.Bytes)

	n, err := cs.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err = cs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 0, stats.Expired)
}

func TestCacheStore_ClearPrefix(t *testing.T) {
	now := time.Now()
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "fred:GDP:-:-", []byte("a"), 0))
	require.NoError(t, cs.Set(ctx, "fred:CPI:-:-", []byte("b"), 0))
	require.NoError(t, cs.Set(ctx, "yahoo:AAPL:-:-", []byte("c"), 0))
	require.NoError(t, cs.Set(ctx, "fred_x", []byte("d"), 0))

	n, err := cs.Clear(ctx, "fred:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := cs.Get(ctx, "fred_x")
	require.NoError(t, err)
	assert.True(t, ok, "underscore must not act as a wildcard")

	n, err = cs.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCacheStore_Delete(t *testing.T) {
	now := time.Now()
	cs := setupCacheStore(t, &now)
	ctx := t.Context()

	require.NoError(t, cs.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, cs.Delete(ctx, "k"))
	require.NoError(t, cs.Delete(ctx, "never-existed"))

	_, ok, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStore_DatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cs := &cacheStore{db: db, now: time.Now}
	ctx := t.Context()
	dbErr := errors.New("disk I/O error")

	t.Run("get wraps scan error", func(t *testing.T) {
		mock.ExpectQuery("SELECT value, expires_at FROM cache_entries").
			WithArgs("k").
			WillReturnError(dbErr)

		_, ok, err := cs.Get(ctx, "k")

		assert.False(t, ok)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "scanning cache entry")
	})

	t.Run("expired delete is guarded by expiry", func(t *testing.T) {
		expired := time.Now().Add(-time.Minute).UnixNano()
		mock.ExpectQuery("SELECT value, expires_at FROM cache_entries").
			WithArgs("k").
			WillReturnRows(sqlmock.NewRows([]string{"value", "expires_at"}).AddRow([]byte("old"), expired))
		mock.ExpectExec(`DELETE FROM cache_entries WHERE key = \? AND expires_at = \?`).
			WithArgs("k", expired).
			WillReturnResult(sqlmock.NewResult(0, 0))

		v, ok, err := cs.Get(ctx, "k")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set wraps exec error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO cache_entries").WillReturnError(dbErr)

		err := cs.Set(ctx, "k", []byte("v"), time.Hour)

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("purge reports rows affected", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM cache_entries WHERE expires_at").
			WillReturnResult(sqlmock.NewResult(0, 7))

		n, err := cs.PurgeExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 7, n)
	})

	t.Run("rows affected error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM cache_entries").
			WillReturnResult(sqlmock.NewErrorResult(dbErr))

		_, err := cs.Clear(ctx, "")

		assert.ErrorIs(t, err, dbErr)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `fred\_x\%`, escapeLike("fred_x%"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}
