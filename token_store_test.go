package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/go-auth"
)

func TestMemoryTokenStoreSetAndClear(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryTokenStore()

	// absence sentinel before anything is stored
	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)

	require.NoError(t, store.Set(ctx, "a-token", "r-token"))

	access, err = store.AccessToken(ctx)
	require.NoError(t, err)
	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	issuedAt, err := store.IssuedAt(ctx)
	require.NoError(t, err)

	assert.Equal(t, "a-token", access)
	assert.Equal(t, "r-token", refresh)
	assert.False(t, issuedAt.IsZero())

	require.NoError(t, store.Clear(ctx))

	access, err = store.AccessToken(ctx)
	require.NoError(t, err)
	refresh, err = store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	// clear is idempotent
	require.NoError(t, store.Clear(ctx))
}

func TestMemoryTokenStoreSetOverwritesPair(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryTokenStore()

	require.NoError(t, store.Set(ctx, "a1", "r1"))
	require.NoError(t, store.Set(ctx, "a2", "r2"))

	access, err := store.AccessToken(ctx)
	require.NoError(t, err)
	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)

	// both values move as one unit
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r2", refresh)
}
