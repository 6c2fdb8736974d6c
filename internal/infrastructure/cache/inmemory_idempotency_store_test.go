package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store whose clock is advanced by the returned func
func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, func(time.Duration)) {
	t.Helper()
	store := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}
	return store, advance
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		store, _ := newTestStore(t)
		claimed, err := store.MarkProcessed(ctx, "tenant:key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("second claim of the same key fails", func(t *testing.T) {
		store, _ := newTestStore(t)
		_, err := store.MarkProcessed(ctx, "tenant:key-2", time.Hour)
		require.NoError(t, err)

		claimed, err := store.MarkProcessed(ctx, "tenant:key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("expired key can be claimed again", func(t *testing.T) {
		store, advance := newTestStore(t)
		_, err := store.MarkProcessed(ctx, "tenant:key-3", time.Minute)
		require.NoError(t, err)

		advance(time.Minute)

		claimed, err := store.MarkProcessed(ctx, "tenant:key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	ctx := context.Background()
	store, advance := newTestStore(t)

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Minute)
	require.NoError(t, err)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	advance(2 * time.Minute)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.MarkProcessed(ctx, "failed-request", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "failed-request"))

	claimed, err := store.MarkProcessed(ctx, "failed-request", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed, "released key should be claimable by the retry")

	assert.NoError(t, store.Release(ctx, "never-claimed"))
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	store, advance := newTestStore(t)

	_, _ = store.MarkProcessed(ctx, "short-1", time.Second)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	advance(time.Minute)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const workers = 100

	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.MarkProcessed(ctx, "same-key", time.Hour)
			results <- err == nil && claimed
		}()
	}
	wg.Wait()
	close(results)

	claims := 0
	for claimed := range results {
		if claimed {
			claims++
		}
	}
	assert.Equal(t, 1, claims, "exactly one request should claim the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
