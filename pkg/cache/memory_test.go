package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_, err := mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "payload:SPY", []byte(`[1]`), time.Minute))
	got, err := mc.Get(ctx, "payload:SPY")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), got)

	got[0] = 'x'
	again, _ := mc.Get(ctx, "payload:SPY")
	assert.Equal(t, []byte(`[1]`), again)

	ok, _ := mc.Exists(ctx, "payload:SPY")
	assert.True(t, ok)
	require.NoError(t, mc.Delete(ctx, "payload:SPY"))
	ok, _ = mc.Exists(ctx, "payload:SPY")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))
	now = now.Add(2 * time.Minute)
	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), 0))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), 0))
	now = now.Add(time.Second)
	_, _ = mc.Get(ctx, "a")
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, mc.Len())
	_, err := mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestLayeredCacheReadsThrough(t *testing.T) {
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, l2.Set(ctx, "k", []byte("from-l2"), time.Hour))
	got, err := lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-l2", string(got))

	ok, _ := lc.memCache.Exists(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, lc.Delete(ctx, "k"))
	_, err = lc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "payload:SPY", Key("payload", "SPY"))
	assert.Equal(t, "a", Key("a"))
}

func TestRedisKeyPrefix(t *testing.T) {
	assert.Equal(t, "coeff:payload:SPY", NewRedisCacheFromClient(nil, "coeff").wrapKey("payload:SPY"))
	assert.Equal(t, "payload:SPY", NewRedisCacheFromClient(nil, "").wrapKey("payload:SPY"))
	assert.Equal(t, []string{"p:a", "p:b"}, NewRedisCacheFromClient(nil, "p").wrapKeys("a", "b"))
}
