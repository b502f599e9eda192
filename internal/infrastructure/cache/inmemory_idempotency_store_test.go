package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStoreWithClock(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore()
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	store, clock := newStoreWithClock(t)

	claimed, err := store.MarkProcessed(ctx, "key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkProcessed(ctx, "key-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, claimed, "replay within ttl")

	clock.Advance(time.Hour)
	claimed, err = store.MarkProcessed(ctx, "key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed, "ttl elapsed")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	ctx := context.Background()
	store, clock := newStoreWithClock(t)

	seen, err := store.IsProcessed(ctx, "key-2")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.MarkProcessed(ctx, "key-2", time.Minute)
	require.NoError(t, err)
	seen, _ = store.IsProcessed(ctx, "key-2")
	assert.True(t, seen)

	clock.Advance(2 * time.Minute)
	seen, _ = store.IsProcessed(ctx, "key-2")
	assert.False(t, seen)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newStoreWithClock(t)

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	clock.Advance(time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	seen, _ := store.IsProcessed(ctx, "long")
	assert.True(t, seen)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	store, _ := newStoreWithClock(t)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(ctx, "same", time.Hour); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{}, config.IdempotencyConfig{Backend: BackendMemory})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{}, config.IdempotencyConfig{Backend: "memcached"})
		_, err := f.CreateStore()
		assert.EqualError(t, err, fmt.Sprintf("unknown idempotency backend %q", "memcached"))
	})

}
