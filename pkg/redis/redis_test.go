package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T) *miniredis.Miniredis {
	mr := miniredis.RunT(t)
	SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = Close()
	})
	return mr
}

func TestBlacklistToken(t *testing.T) {
	mr := setupRedisTest(t)
	ctx := context.Background()

	revoked, err := IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, BlacklistToken(ctx, "jti-1", time.Minute))

	revoked, err = IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistToken_WithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	assert.NoError(t, BlacklistToken(ctx, "jti-2", time.Minute))
	revoked, err := IsTokenBlacklisted(ctx, "jti-2")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestIsTokenBlacklisted_ServerDown(t *testing.T) {
	mr := setupRedisTest(t)
	mr.Close()

	_, err := IsTokenBlacklisted(context.Background(), "jti-3")
	assert.Error(t, err)
}
