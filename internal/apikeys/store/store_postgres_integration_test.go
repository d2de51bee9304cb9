//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawiya/internal/apikeys/models"
	id "hawiya/pkg/domain"
	"hawiya/pkg/platform/sentinel"
	"hawiya/pkg/testutil/containers"
)

const apiKeysSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
    id               UUID PRIMARY KEY,
    name             TEXT NOT NULL,
    key_hash         TEXT NOT NULL,
    key_prefix       TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    revoked          BOOLEAN NOT NULL DEFAULT FALSE,
    quota_per_minute INTEGER NOT NULL,
    quota_per_day    INTEGER NOT NULL,
    metadata         JSONB NOT NULL DEFAULT '{}',
    last_used_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS api_keys_prefix_idx ON api_keys (key_prefix);
`

func TestPostgresStoreIntegration(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, apiKeysSchema)

	store := NewPostgres(pg.DB)
	ctx := context.Background()

	account := models.Account{
		ID:             id.NewAPIKeyID(),
		Name:           "integration",
		KeyHash:        "deadbeef",
		KeyPrefix:      "eg_abcde",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		QuotaPerMinute: 60,
		QuotaPerDay:    1000,
		Metadata:       map[string]string{"env": "test"},
	}

	t.Run("insert and find by id", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, account))

		found, err := store.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
		assert.Equal(t, account.KeyHash, found.KeyHash)
		assert.Equal(t, "test", found.Metadata["env"])
		assert.WithinDuration(t, account.CreatedAt, found.CreatedAt, time.Millisecond)
	})

	t.Run("find by prefix includes revoked", func(t *testing.T) {
		require.NoError(t, store.SetRevoked(ctx, account.ID, true))

		found, err := store.FindByPrefix(ctx, account.KeyPrefix)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, found[0].Revoked)
	})

	t.Run("touch stamps last_used_at", func(t *testing.T) {
		usedAt := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, store.Touch(ctx, account.ID, usedAt))

		found, err := store.FindByID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, found.LastUsedAt)
		assert.WithinDuration(t, usedAt, *found.LastUsedAt, time.Millisecond)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, id.NewAPIKeyID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		assert.ErrorIs(t, store.SetRevoked(ctx, id.NewAPIKeyID(), true), sentinel.ErrNotFound)
	})
}
