package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/folio/internal/model"
	"git.home.luguber.info/inful/folio/internal/storage"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b := NewRedisBackendFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestRedisBackendMissOnEmpty(t *testing.T) {
	ctx := context.Background()
	b, _ := newRedisBackend(t)

	_, ok, err := b.GetHeaders(ctx, "live/hello")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = b.GetContent(ctx, "live/hello")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, _ := newRedisBackend(t)
	h := Headers{ContentType: model.ContentTypeHTML, ETag: `"abc"`}

	require.NoError(t, b.SetHeaders(ctx, "live/hello", h, time.Minute))
	require.NoError(t, b.SetContent(ctx, "live/hello", []byte("<p>hi</p>"), time.Minute))

	got, ok, err := b.GetHeaders(ctx, "live/hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, h, got)

	body, ok, err := b.GetContent(ctx, "live/hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("<p>hi</p>"), body)
}

func TestRedisBackendSetsTTLOnBothTiers(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)

	require.NoError(t, b.SetHeaders(ctx, "draft/wip", Headers{ContentType: "text/plain", ETag: `"1"`}, 10*time.Second))
	require.NoError(t, b.SetContent(ctx, "draft/wip", []byte("wip"), 10*time.Second))

	assert.Equal(t, 10*time.Second, mr.TTL(redisHeaderPrefix+"draft/wip"))
	assert.Equal(t, 10*time.Second, mr.TTL(redisContentPrefix+"draft/wip"))
}

func TestRedisBackendEntriesExpire(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)

	require.NoError(t, b.SetHeaders(ctx, "draft/wip", Headers{ContentType: "text/plain", ETag: `"1"`}, 10*time.Second))
	require.NoError(t, b.SetContent(ctx, "draft/wip", []byte("wip"), 10*time.Second))

	mr.FastForward(9 * time.Second)
	_, ok, err := b.GetHeaders(ctx, "draft/wip")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = b.GetHeaders(ctx, "draft/wip")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = b.GetContent(ctx, "draft/wip")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendHashWithoutETagIsMiss(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)
	mr.HSet(redisHeaderPrefix+"live/hello", fieldContentType, model.ContentTypeHTML)

	_, ok, err := b.GetHeaders(ctx, "live/hello")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendDeleteDropsBothTiers(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)
	require.NoError(t, b.SetHeaders(ctx, "live/hello", Headers{ETag: `"1"`}, time.Minute))
	require.NoError(t, b.SetContent(ctx, "live/hello", []byte("hi"), time.Minute))

	require.NoError(t, b.Delete(ctx, "live/hello"))

	assert.False(t, mr.Exists(redisHeaderPrefix+"live/hello"))
	assert.False(t, mr.Exists(redisContentPrefix+"live/hello"))
	require.NoError(t, b.Delete(ctx, "live/missing"))
}

func TestArtifactCacheOverRedis(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "live/hello", []byte("<p>hi</p>"), model.ContentTypeHTML))
	c := New(b, store, WithTTL("live", 30*time.Second))

	first, err := c.Get(ctx, "live", "hello", "")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 30*time.Second, mr.TTL(redisHeaderPrefix+"live/hello"))

	second, err := c.Get(ctx, "live", "hello", "")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, []byte("<p>hi</p>"), second.Body)

	revalidated, err := c.Get(ctx, "live", "hello", first.ETag)
	require.NoError(t, err)
	assert.Equal(t, StatusNotModified, revalidated.Status)
	assert.True(t, revalidated.FromCache)
	assert.Nil(t, revalidated.Body)
}

func TestRedisOutageFallsBackToStorage(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "live/hello", []byte("hi"), "text/plain"))
	c := New(b, store)

	mr.Close()

	resp, err := c.Get(ctx, "live", "hello", "")
	require.NoError(t, err)
	assert.False(t, resp.FromCache)
	assert.Equal(t, []byte("hi"), resp.Body)
}

func TestNewRedisBackendPings(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	b, err := NewRedisBackend(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	mr.Close()
	_, err = NewRedisBackend(ctx, RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "failed to connect to redis")
}
