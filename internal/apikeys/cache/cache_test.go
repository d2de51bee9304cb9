package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawiya/internal/apikeys/models"
	id "hawiya/pkg/domain"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, 5*time.Minute, time.Minute), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	account := models.Account{
		ID:             id.NewAPIKeyID(),
		Name:           "round-trip",
		KeyHash:        "deadbeef",
		KeyPrefix:      "eg_abcde",
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
		QuotaPerMinute: 60,
		QuotaPerDay:    1000,
	}

	_, found, err := c.GetCandidates(ctx, "eg_abcde")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetCandidates(ctx, "eg_abcde", []models.Account{account}))

	candidates, found, err := c.GetCandidates(ctx, "eg_abcde")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, candidates, 1)
	assert.Equal(t, account.ID, candidates[0].ID)
	assert.Equal(t, account.KeyHash, candidates[0].KeyHash)
}

func TestRedisCache_NegativeEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCandidates(ctx, "eg_nobody", nil))

	candidates, found, err := c.GetCandidates(ctx, "eg_nobody")
	require.NoError(t, err)
	assert.True(t, found, "negative entries count as cache hits")
	assert.Empty(t, candidates)

	// Negative entries expire on the shorter TTL.
	mr.FastForward(2 * time.Minute)
	_, found, err = c.GetCandidates(ctx, "eg_nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCandidates(ctx, "eg_gone", []models.Account{{Name: "gone"}}))
	require.NoError(t, c.Invalidate(ctx, "eg_gone"))

	_, found, err := c.GetCandidates(ctx, "eg_gone")
	require.NoError(t, err)
	assert.False(t, found)
}
