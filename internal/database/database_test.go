package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateEntryTableName(t *testing.T) {
	assert.Equal(t, "pos_state", StateEntry{}.TableName())
}

// Runs against a live server only when POS_TEST_DATABASE_DSN is set.
func TestGatewayRoundTrip(t *testing.T) {
	dsn := os.Getenv("POS_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("POS_TEST_DATABASE_DSN not set")
	}
	g, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	ctx := context.Background()
	key := "test-" + uuid.NewString()
	_, ok, err := g.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Set(ctx, key, `[1]`))
	require.NoError(t, g.Set(ctx, key, `[1,2]`))
	v, ok, err := g.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, v)

	require.NoError(t, g.db.Where("bucket = ?", key).Delete(&StateEntry{}).Error)
}
