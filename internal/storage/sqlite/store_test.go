package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"restoran-pos/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Gateway = (*Store)(nil)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreMissingKey(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	v, ok, err := store.Get(context.Background(), storage.KeyStockItems)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store := openStore(t, path)
	require.NoError(t, store.Set(ctx, storage.KeyTables, `[{"id":1,"name":"Table 1"}]`))
	require.NoError(t, store.Set(ctx, storage.KeyTables, `[{"id":1,"name":"Table 1","status":"occupied"}]`))
	require.NoError(t, store.Close())

	reloaded := openStore(t, path)
	v, ok, err := reloaded.Get(ctx, storage.KeyTables)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1,"name":"Table 1","status":"occupied"}]`, v)
	assert.Equal(t, path, reloaded.Path())

	var count int
	require.NoError(t, reloaded.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count))
	assert.Equal(t, 1, count)
}
