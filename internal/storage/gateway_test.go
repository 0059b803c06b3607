package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetMissingKey(t *testing.T) {
	m := NewMemory()
	v, ok, err := m.Get(context.Background(), KeyProducts)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestMemorySetOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, KeyTables, `[]`))
	require.NoError(t, m.Set(ctx, KeyTables, `[{"id":1}]`))

	v, ok, err := m.Get(ctx, KeyTables)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)
	assert.Equal(t, 1, m.Len())
}

func TestKeysAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
	assert.Len(t, Keys, 7)
}
