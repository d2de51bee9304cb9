package counter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hawiya/pkg/domain"
)

// =============================================================================
// Window Tests
// =============================================================================

func TestWindowStart(t *testing.T) {
	at := time.Date(2026, 8, 29, 10, 37, 42, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 8, 29, 10, 37, 0, 0, time.UTC), WindowMinute.Start(at))
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), WindowDay.Start(at))
}

func TestWindowRetryAfter(t *testing.T) {
	at := time.Date(2026, 8, 29, 10, 37, 42, 0, time.UTC)

	assert.Equal(t, 18*time.Second, WindowMinute.RetryAfter(at))
	assert.Equal(t, 13*time.Hour+22*time.Minute+18*time.Second, WindowDay.RetryAfter(at))
}

func TestKey(t *testing.T) {
	accountID := id.NewAPIKeyID()
	at := time.Date(2026, 8, 29, 10, 37, 42, 0, time.UTC)

	minuteKey := Key(accountID, WindowMinute, at)
	assert.Contains(t, minuteKey, "quota:"+accountID.String()+":minute:")

	t.Run("same window same key", func(t *testing.T) {
		later := at.Add(10 * time.Second)
		assert.Equal(t, minuteKey, Key(accountID, WindowMinute, later))
	})

	t.Run("next window new key", func(t *testing.T) {
		next := at.Add(time.Minute)
		assert.NotEqual(t, minuteKey, Key(accountID, WindowMinute, next))
	})
}

// =============================================================================
// Memory Counter Tests
// =============================================================================

func TestMemoryCounterIncrements(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrementWithTTL(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryCounterExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	got, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "expired counters restart at one")
}

func TestMemoryCounterConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.IncrementWithTTL(ctx, "k", time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(workers+1), got)
}

// =============================================================================
// Redis Counter Tests (miniredis)
// =============================================================================

func TestRedisCounterIncrements(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedis(client)

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrementWithTTL(ctx, "quota:a:minute:0", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("ttl armed on first increment only", func(t *testing.T) {
		ttl := mr.TTL("quota:a:minute:0")
		assert.Equal(t, time.Minute, ttl)
	})

	t.Run("key expires with the window", func(t *testing.T) {
		mr.FastForward(61 * time.Second)

		got, err := c.IncrementWithTTL(ctx, "quota:a:minute:0", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}

func TestRedisCounterUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	c := NewRedis(client)
	_, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	assert.Error(t, err)
}
