package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/go-sessionguard/session"
)

func runStoreContract(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown session is inactive and empty", func(t *testing.T) {
		active, err := store.IsActive(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, active)

		v, ok, err := store.Get(ctx, "missing", session.KeyRequestToken)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set requires an active session", func(t *testing.T) {
		err := store.Set(ctx, "not-activated", session.KeyRequestToken, "x")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("activate then set and get", func(t *testing.T) {
		require.NoError(t, store.Activate(ctx, "s1"))

		active, err := store.IsActive(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, active)

		_, ok, err := store.Get(ctx, "s1", session.KeyRequestToken)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Set(ctx, "s1", session.KeyRequestToken, "tok"))
		v, ok, err := store.Get(ctx, "s1", session.KeyRequestToken)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok", v)
	})

	t.Run("activate keeps existing entries", func(t *testing.T) {
		require.NoError(t, store.Activate(ctx, "s2"))
		require.NoError(t, store.Set(ctx, "s2", session.KeyRequestToken, "keep"))
		require.NoError(t, store.Activate(ctx, "s2"))

		v, ok, err := store.Get(ctx, "s2", session.KeyRequestToken)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "keep", v)
	})

	t.Run("destroy clears the session", func(t *testing.T) {
		require.NoError(t, store.Activate(ctx, "s3"))
		require.NoError(t, store.Set(ctx, "s3", session.KeyRequestToken, "gone"))
		require.NoError(t, store.Destroy(ctx, "s3"))

		active, err := store.IsActive(ctx, "s3")
		require.NoError(t, err)
		assert.False(t, active)

		_, ok, err := store.Get(ctx, "s3", session.KeyRequestToken)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, store.Destroy(ctx, "s3"), "destroying twice is fine")
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	store := session.NewMemoryStore(time.Hour)
	runStoreContract(t, store)
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore(20 * time.Millisecond)

	require.NoError(t, store.Activate(ctx, "short"))
	assert.Equal(t, 1, store.Len())

	time.Sleep(50 * time.Millisecond)

	active, err := store.IsActive(ctx, "short")
	require.NoError(t, err)
	assert.False(t, active)
}

func newRedisStore(t *testing.T, ttl time.Duration) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisStore(client, "test", ttl), mr
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	store, _ := newRedisStore(t, time.Hour)
	runStoreContract(t, store)
}

func TestRedisStoreLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	require.NoError(t, store.Activate(ctx, "abc"))
	require.NoError(t, store.Set(ctx, "abc", session.KeyRequestToken, "value"))

	assert.True(t, mr.Exists("test:session:abc"))
	assert.Equal(t, "value", mr.HGet("test:session:abc", session.KeyRequestToken))
	assert.Equal(t, time.Minute, mr.TTL("test:session:abc"))

	mr.FastForward(2 * time.Minute)

	active, err := store.IsActive(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRedisStoreUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)
	mr.Close()

	_, err := store.IsActive(ctx, "abc")
	assert.Error(t, err)

	_, _, err = store.Get(ctx, "abc", session.KeyRequestToken)
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore(time.Hour)

	t.Run("empty id", func(t *testing.T) {
		h := session.NewHandle(store, "")
		_, _, err := h.Get(ctx, session.KeyRequestToken)
		assert.ErrorIs(t, err, session.ErrEmptyID)
		assert.ErrorIs(t, h.Set(ctx, session.KeyRequestToken, "x"), session.ErrEmptyID)

		active, err := h.Active(ctx)
		require.NoError(t, err)
		assert.False(t, active)
		assert.NoError(t, h.Destroy(ctx))
	})

	t.Run("bound id", func(t *testing.T) {
		id := session.NewID()
		require.True(t, session.ValidID(id))

		h := session.NewHandle(store, id)
		assert.Equal(t, id, h.ID())
		require.NoError(t, h.Activate(ctx))
		require.NoError(t, h.Set(ctx, session.KeyRequestToken, "t"))

		v, ok, err := h.Get(ctx, session.KeyRequestToken)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "t", v)
	})
}

func TestValidID(t *testing.T) {
	t.Parallel()
	assert.True(t, session.ValidID(session.NewID()))
	assert.False(t, session.ValidID(""))
	assert.False(t, session.ValidID("attacker-chosen"))
	assert.False(t, session.ValidID("{"+session.NewID()+"}"))
}
