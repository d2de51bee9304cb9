package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"hawiya/internal/apikeys/cache"
	"hawiya/internal/apikeys/models"
	"hawiya/internal/apikeys/secrets"
	"hawiya/internal/apikeys/store"
	"hawiya/internal/platform/config"
	id "hawiya/pkg/domain"
	dErrors "hawiya/pkg/domain-errors"
	"hawiya/pkg/platform/sentinel"
)

// =============================================================================
// Registry Service Test Suite
// =============================================================================
// Justification for unit tests: key resolution combines prefix narrowing,
// hash verification, and cache fallback paths that are awkward to exercise
// through HTTP-level tests requiring full provisioning flows.

type RegistryServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

func (s *RegistryServiceSuite) SetupTest() {
	s.store = store.NewInMemory()

	var err error
	s.service, err = New(s.store, testKeysConfig())
	s.Require().NoError(err)
}

func testKeysConfig() config.KeysConfig {
	return config.KeysConfig{
		DefaultQuotaPerMinute: 60,
		DefaultQuotaPerDay:    1000,
		CacheTTL:              5 * time.Minute,
		NegativeCacheTTL:      time.Minute,
	}
}

func intPtr(n int) *int { return &n }

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *RegistryServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, testKeysConfig())
		s.Error(err)
		s.Contains(err.Error(), "account store is required")
	})
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *RegistryServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("applies default quotas", func() {
		account, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "defaults"})
		s.Require().NoError(err)

		s.Equal(60, account.QuotaPerMinute)
		s.Equal(1000, account.QuotaPerDay)
		s.NotEmpty(rawKey)
	})

	s.Run("stored hash matches raw secret hash", func() {
		account, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "hash-check"})
		s.Require().NoError(err)

		s.Equal(secrets.Hash(rawKey), account.KeyHash)
		s.Equal(rawKey[:secrets.PrefixLength], account.KeyPrefix)
		s.NotEqual(rawKey, account.KeyHash, "raw secret must never be stored")

		// The persisted record carries no trace of the secret either.
		stored, err := s.store.FindByID(ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(secrets.Hash(rawKey), stored.KeyHash)
	})

	s.Run("explicit quotas are honoured", func() {
		account, _, err := s.service.Create(ctx, models.CreateParams{
			Name:           "custom",
			QuotaPerMinute: intPtr(5),
			QuotaPerDay:    intPtr(50),
			Metadata:       map[string]string{"team": "fraud"},
		})
		s.Require().NoError(err)

		s.Equal(5, account.QuotaPerMinute)
		s.Equal(50, account.QuotaPerDay)
		s.Equal("fraud", account.Metadata["team"])
	})

	s.Run("non-positive quota is rejected", func() {
		_, _, err := s.service.Create(ctx, models.CreateParams{
			Name:           "bad-quota",
			QuotaPerMinute: intPtr(0),
		})
		s.ErrorIs(err, ErrInvalidQuota)

		_, _, err = s.service.Create(ctx, models.CreateParams{
			Name:        "bad-quota",
			QuotaPerDay: intPtr(-1),
		})
		s.ErrorIs(err, ErrInvalidQuota)
	})

	s.Run("name is required", func() {
		_, _, err := s.service.Create(ctx, models.CreateParams{Name: "  "})
		s.Error(err)
		s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
	})
}

// =============================================================================
// Resolve Tests
// =============================================================================

func (s *RegistryServiceSuite) TestResolve() {
	ctx := context.Background()

	s.Run("resolves a created key", func() {
		account, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "resolvable"})
		s.Require().NoError(err)

		resolved, err := s.service.Resolve(ctx, rawKey)
		s.Require().NoError(err)
		s.Equal(account.ID, resolved.ID)

		// Resolution stamps usage on the stored record.
		stored, err := s.store.FindByID(ctx, account.ID)
		s.Require().NoError(err)
		s.NotNil(stored.LastUsedAt)
	})

	s.Run("unknown key returns not found", func() {
		_, err := s.service.Resolve(ctx, "eg_completely-unknown-key-material")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("short key returns not found", func() {
		_, err := s.service.Resolve(ctx, "eg_x")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("prefix match with wrong secret returns not found", func() {
		_, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "prefix-collision"})
		s.Require().NoError(err)

		forged := rawKey[:secrets.PrefixLength] + "0000000000000000000000000000"
		_, err = s.service.Resolve(ctx, forged)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("revoked account still resolves structurally", func() {
		account, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "revoked-resolves"})
		s.Require().NoError(err)
		s.Require().NoError(s.service.Revoke(ctx, account.ID))

		resolved, err := s.service.Resolve(ctx, rawKey)
		s.Require().NoError(err)
		s.True(resolved.Revoked, "revocation is enforced by the gate, not resolution")
	})
}

// =============================================================================
// Revoke Tests
// =============================================================================

func (s *RegistryServiceSuite) TestRevoke() {
	ctx := context.Background()

	s.Run("unknown account returns not found", func() {
		err := s.service.Revoke(ctx, id.NewAPIKeyID())
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("nil id is rejected", func() {
		err := s.service.Revoke(ctx, id.APIKeyID{})
		s.Error(err)
		s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
	})
}

// =============================================================================
// Cache Integration (miniredis)
// =============================================================================

type RegistryCacheSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	mr      *miniredis.Miniredis
	cache   *cache.RedisCache
	service *Service
}

func TestRegistryCacheSuite(t *testing.T) {
	suite.Run(t, new(RegistryCacheSuite))
}

func (s *RegistryCacheSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.mr = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })

	cfg := testKeysConfig()
	s.cache = cache.NewRedis(client, cfg.CacheTTL, cfg.NegativeCacheTTL)

	var err error
	s.service, err = New(s.store, cfg, WithCache(s.cache))
	s.Require().NoError(err)
}

func (s *RegistryCacheSuite) TestResolvePopulatesCache() {
	ctx := context.Background()

	account, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "cached"})
	s.Require().NoError(err)

	_, err = s.service.Resolve(ctx, rawKey)
	s.Require().NoError(err)

	candidates, found, err := s.cache.GetCandidates(ctx, account.KeyPrefix)
	s.Require().NoError(err)
	s.True(found)
	s.Len(candidates, 1)
}

func (s *RegistryCacheSuite) TestRevocationInvalidatesCache() {
	ctx := context.Background()

	account, rawKey, err := s.service.Create(ctx, models.CreateParams{Name: "revoke-cache"})
	s.Require().NoError(err)

	// Warm the cache with the pre-revocation record.
	_, err = s.service.Resolve(ctx, rawKey)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Revoke(ctx, account.ID))

	// The very next resolution re-reads the store and sees the flag.
	resolved, err := s.service.Resolve(ctx, rawKey)
	s.Require().NoError(err)
	s.True(resolved.Revoked)
}

func (s *RegistryCacheSuite) TestNegativeCachingOfUnknownPrefix() {
	ctx := context.Background()

	_, err := s.service.Resolve(ctx, "eg_missing-key-material-here")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, found, err := s.cache.GetCandidates(ctx, "eg_missi")
	s.Require().NoError(err)
	s.True(found, "unknown prefixes are negatively cached")
}
