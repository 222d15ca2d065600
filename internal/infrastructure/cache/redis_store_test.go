package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)

	return mr, store
}

func TestRedisStore_SetAndGetJSON(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	type payload struct{ Name string }

	require.NoError(t, store.SetJSON(ctx, "models", "gpt-4", payload{Name: "gpt-4"}, time.Minute))

	var got payload
	ok, err := store.GetJSON(ctx, "models", "gpt-4", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "gpt-4", got.Name)
}

func TestRedisStore_BumpNamespaceInvalidatesKeys(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SetJSON(ctx, "bindings", "1", "stale", time.Minute))

	require.NoError(t, store.BumpNamespace(ctx, "bindings"))

	var got string
	ok, err := store.GetJSON(ctx, "bindings", "1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Increment(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	v, err := store.Increment(ctx, "counter:auth:1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = store.Increment(ctx, "counter:auth:1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestRedisStore_CompareAndSwap(t *testing.T) {
	mr, store := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	key := "lock:provider:1:ip:1.2.3.4"

	ok, err := store.CompareAndSwap(ctx, key, "", "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first CAS against an absent key should succeed")

	ok, err = store.CompareAndSwap(ctx, key, "", "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second CAS against a held lock should fail")

	require.NoError(t, store.Delete(ctx, key))

	ok, err = store.CompareAndSwap(ctx, key, "", "owner-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "CAS after delete should succeed again")
}
