package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueryCache(client, zerolog.Nop()), server
}

func TestKeyIsStableAndNamespaced(t *testing.T) {
	first := Key("experience", "search", "?page=0")
	require.Equal(t, first, Key("experience", "search", "?page=0"))
	require.NotEqual(t, first, Key("experience", "search", "?page=1"))
	require.Regexp(t, `^promata:experience:[0-9a-f]{24}$`, first)
}

func TestSetThenGet(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()
	key := Key("highlight", "grouped")

	var out map[string]int
	require.False(t, cache.Get(ctx, "highlight", key, &out))

	require.True(t, cache.Set(ctx, "highlight", key, map[string]int{"TRAIL": 2}, time.Minute, 0))
	require.True(t, cache.Get(ctx, "highlight", key, &out))
	require.Equal(t, 2, out["TRAIL"])

	server.FastForward(2 * time.Minute)
	require.False(t, cache.Get(ctx, "highlight", key, &out))
}

func TestGetDropsCorruptEntries(t *testing.T) {
	cache, server := newTestCache(t)
	key := Key("user", "list")
	require.NoError(t, server.Set(key, "{not json"))

	var out map[string]any
	require.False(t, cache.Get(context.Background(), "user", key, &out))
	require.False(t, server.Exists(key))
}

func TestInvalidateRemovesOnlyResource(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, cache.Set(ctx, "experience", Key("experience", "page", string(rune('a'+i))), i, time.Minute, 0))
	}
	highlightKey := Key("highlight", "grouped")
	require.True(t, cache.Set(ctx, "highlight", highlightKey, 1, time.Minute, 0))

	removed, err := cache.Invalidate(ctx, "experience")
	require.NoError(t, err)
	require.Equal(t, 5, removed)
	require.True(t, server.Exists(highlightKey))
}

func TestSetSkipsEntriesLoadedBeforeInvalidate(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()
	key := Key("experience", "search", "?page=0")

	gen, ok := cache.Generation(ctx, "experience")
	require.True(t, ok)
	require.Zero(t, gen)

	_, err := cache.Invalidate(ctx, "experience")
	require.NoError(t, err)
	require.False(t, cache.Set(ctx, "experience", key, "stale", time.Minute, gen))
	require.False(t, server.Exists(key))

	gen, ok = cache.Generation(ctx, "experience")
	require.True(t, ok)
	require.Equal(t, int64(1), gen)
	require.True(t, cache.Set(ctx, "experience", key, "fresh", time.Minute, gen))
	require.Equal(t, time.Minute, server.TTL(key))

	other, ok := cache.Generation(ctx, "highlight")
	require.True(t, ok)
	require.Zero(t, other)
}

func TestNilClientDisablesCache(t *testing.T) {
	cache := NewQueryCache(nil, zerolog.Nop())
	ctx := context.Background()

	require.False(t, cache.Enabled())
	require.False(t, cache.Set(ctx, "experience", "k", 1, time.Minute, 0))
	_, ok := cache.Generation(ctx, "experience")
	require.False(t, ok)

	var out int
	require.False(t, cache.Get(ctx, "experience", "k", &out))
	removed, err := cache.Invalidate(ctx, "experience")
	require.NoError(t, err)
	require.Zero(t, removed)
}
