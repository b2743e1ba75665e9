package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	got[0] = 'x'
	again, _ := s.Get(ctx, "a")
	assert.Equal(t, []byte("1"), again, "returned slices are copies")

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 60))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
	assert.Zero(t, s.Len(), "expired entries are removed on read")
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	_, _ = s.Get(ctx, "a")
	require.NoError(t, s.Set(ctx, "c", []byte("3")))

	_, err := s.Get(ctx, "b")
	assert.True(t, core.IsStoreNotFound(err))
	_, err = s.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestNew(t *testing.T) {
	s, err := New(Config{Backend: "memory", Size: 4})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())

	s, err = New(Config{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = New(Config{Backend: "memcached"})
	assert.True(t, core.IsInvalidInput(err))
}

// TestRedisStore 需要真实的 Redis：MOODKIT_TEST_REDIS_ADDR=localhost:6379 go test ./store/
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("MOODKIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MOODKIT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: addr}), "moodkit-test:")
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 5))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
}
