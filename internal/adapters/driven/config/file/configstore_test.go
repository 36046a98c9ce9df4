package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

func newStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore(t *testing.T) {
	t.Run("explicit directory", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
		assert.Empty(t, store.Keys())
	})

	t.Run("home env", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "home")
		t.Setenv(HomeEnv, dir)

		store, err := NewConfigStore("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	})

	t.Run("corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("edgar = [[["), 0600))

		store, err := NewConfigStore(dir)
		assert.ErrorIs(t, err, domain.ErrParse)
		assert.Nil(t, store)
	})

	t.Run("unusable directory", func(t *testing.T) {
		_, err := NewConfigStore("/dev/null/finkit")
		assert.Error(t, err)
	})
}

func TestBaseDir(t *testing.T) {
	t.Setenv(HomeEnv, "/tmp/finkit-test")
	dir, err := BaseDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/finkit-test", dir)
}

func TestConfigStore_SetPersistsNestedTables(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("edgar.user_agent", "Jane Doe jane@example.com"))
	require.NoError(t, store.Set("edgar.workers", 6))
	require.NoError(t, store.Set("feeds.timeout", "30s"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[edgar]")
	assert.Contains(t, string(data), "[feeds]")

	reopened, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	ua, ok := reopened.Get("edgar.user_agent")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe jane@example.com", ua)
	workers, _ := reopened.Get("edgar.workers")
	assert.Equal(t, int64(6), workers)
	assert.Equal(t, []string{"edgar.user_agent", "edgar.workers", "feeds.timeout"}, reopened.Keys())
}

func TestConfigStore_FileIsPrivate(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("market.fred_api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Delete(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("cache.ttl", "1h"))

	require.NoError(t, store.Delete("cache.ttl"))
	require.NoError(t, store.Delete("cache.ttl"), "missing key")

	require.NoError(t, store.Reload())
	_, ok := store.Get("cache.ttl")
	assert.False(t, ok)
}

func TestConfigStore_ReloadPicksUpExternalEdits(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("feeds.workers", 4))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[cache]\nttl = \"2h\"\n"), 0600))
	require.NoError(t, store.Reload())

	assert.Equal(t, []string{"cache.ttl"}, store.Keys())
}

func TestConfigStore_ConcurrentSet(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("feeds.workers", n)
			_, _ = store.Get("feeds.workers")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("feeds.workers")
	assert.True(t, ok)
}

func TestNestFlattenRoundTrip(t *testing.T) {
	flat := map[string]any{
		"a.b":   int64(1),
		"a.c.d": "x",
		"e":     true,
	}

	assert.Equal(t, flat, flatten(nest(flat), ""))
}
