package cache

import (
	"context"
	"testing"
	"time"

	"magicwords/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), &config.Config{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRevocations(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	store := NewRedisRevocations(client)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(revokedKeyPrefix+"jti-1"))

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationsSkipsExpiredTokens(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisRevocations(client)

	require.NoError(t, store.Revoke(context.Background(), "old", 0))
	assert.False(t, mr.Exists(revokedKeyPrefix+"old"))
}

func TestRedisRevocationsReportsOutage(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisRevocations(client)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

func TestMemoryRevocations(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryRevocations()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revoke(ctx, "a", time.Minute))
	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCheck(t *testing.T) {
	mr, client := newMiniredis(t)
	require.NoError(t, Check(context.Background(), client))
	assert.False(t, mr.Exists("magicwords:healthcheck"))
}

func TestConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), &config.Config{RedisAddr: addr})
	assert.Error(t, err)
}
