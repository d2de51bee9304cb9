// Package service implements the API key registry: key creation, resolution
// of presented keys to accounts, and revocation.
//
// Resolution follows the cache-then-store pattern: candidates are narrowed by
// the non-secret key prefix (Redis cache first, relational store on miss) and
// the presented secret is then hash-verified among the candidates. The secret
// itself never lands in any index structure.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hawiya/internal/apikeys/models"
	"hawiya/internal/apikeys/secrets"
	"hawiya/internal/platform/config"
	id "hawiya/pkg/domain"
	dErrors "hawiya/pkg/domain-errors"
	"hawiya/pkg/platform/sentinel"
)

// ErrInvalidQuota rejects key creation with non-positive explicit quotas.
var ErrInvalidQuota = dErrors.New(dErrors.CodeInvalidInput, "quota must be a positive integer")

// Store persists API key accounts.
type Store interface {
	Insert(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, accountID id.APIKeyID) (models.Account, error)
	FindByPrefix(ctx context.Context, prefix string) ([]models.Account, error)
	SetRevoked(ctx context.Context, accountID id.APIKeyID, revoked bool) error
	Touch(ctx context.Context, accountID id.APIKeyID, usedAt time.Time) error
}

// CandidateCache caches prefix candidate lists. Optional; resolution falls
// back to the store when absent or failing.
type CandidateCache interface {
	GetCandidates(ctx context.Context, prefix string) ([]models.Account, bool, error)
	SetCandidates(ctx context.Context, prefix string, candidates []models.Account) error
	Invalidate(ctx context.Context, prefix string) error
}

type Service struct {
	store  Store
	cache  CandidateCache
	cfg    config.KeysConfig
	logger *slog.Logger
}

type Option func(*Service)

func WithCache(cache CandidateCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, cfg config.KeysConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}

	svc := &Service{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create provisions a new API key account. The raw secret is returned exactly
// once; only its hash and prefix are stored.
func (s *Service) Create(ctx context.Context, params models.CreateParams) (models.Account, string, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return models.Account{}, "", dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}

	quotaPerMinute, err := resolveQuota(params.QuotaPerMinute, s.cfg.DefaultQuotaPerMinute)
	if err != nil {
		return models.Account{}, "", err
	}
	quotaPerDay, err := resolveQuota(params.QuotaPerDay, s.cfg.DefaultQuotaPerDay)
	if err != nil {
		return models.Account{}, "", err
	}

	secret, err := secrets.Generate()
	if err != nil {
		return models.Account{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate key")
	}
	prefix, _ := secrets.Prefix(secret)

	account := models.Account{
		ID:             id.NewAPIKeyID(),
		Name:           name,
		KeyHash:        secrets.Hash(secret),
		KeyPrefix:      prefix,
		CreatedAt:      time.Now().UTC(),
		QuotaPerMinute: quotaPerMinute,
		QuotaPerDay:    quotaPerDay,
		Metadata:       params.Metadata,
	}

	if err := s.store.Insert(ctx, account); err != nil {
		return models.Account{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store api key")
	}

	// Drop any negative cache entry so the new key resolves immediately.
	s.invalidatePrefix(ctx, prefix)

	s.logger.InfoContext(ctx, "api key created",
		"api_key_id", account.ID,
		"name", account.Name,
		"quota_per_minute", account.QuotaPerMinute,
		"quota_per_day", account.QuotaPerDay,
	)

	return account, secret, nil
}

// Resolve maps a presented key to its account. Returns sentinel.ErrNotFound
// for unknown or mismatching keys; any other error is an infrastructure
// failure the caller must treat as such. Revoked accounts resolve normally;
// enforcing revocation is the request gate's job.
func (s *Service) Resolve(ctx context.Context, presentedKey string) (models.Account, error) {
	presentedKey = strings.TrimSpace(presentedKey)
	prefix, ok := secrets.Prefix(presentedKey)
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}

	candidates, err := s.candidatesByPrefix(ctx, prefix)
	if err != nil {
		return models.Account{}, err
	}

	account, ok := verifyAmongCandidates(presentedKey, candidates)
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}

	// Best-effort usage stamp; a failed write never fails resolution.
	if err := s.store.Touch(ctx, account.ID, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "failed to update key last_used_at",
			"api_key_id", account.ID, "error", err)
	}

	return account, nil
}

// Revoke soft-deletes a key: the record stays, the gate rejects it. The
// prefix cache entry is invalidated so the change takes effect without
// waiting out the TTL.
func (s *Service) Revoke(ctx context.Context, accountID id.APIKeyID) error {
	if accountID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "api_key_id is required")
	}

	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "api key not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load api key")
	}

	if err := s.store.SetRevoked(ctx, accountID, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke api key")
	}

	s.invalidatePrefix(ctx, account.KeyPrefix)

	s.logger.InfoContext(ctx, "api key revoked", "api_key_id", accountID)
	return nil
}

// candidatesByPrefix is the fast, non-secret half of resolution. Cache
// failures degrade to store lookups; store failures propagate.
func (s *Service) candidatesByPrefix(ctx context.Context, prefix string) ([]models.Account, error) {
	if s.cache != nil {
		candidates, found, err := s.cache.GetCandidates(ctx, prefix)
		if err != nil {
			s.logger.WarnContext(ctx, "candidate cache read failed", "error", err)
		} else if found {
			return candidates, nil
		}
	}

	candidates, err := s.store.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("find candidates by prefix: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCandidates(ctx, prefix, candidates); err != nil {
			s.logger.WarnContext(ctx, "candidate cache write failed", "error", err)
		}
	}

	return candidates, nil
}

// verifyAmongCandidates is the secret half of resolution: exactly one hash
// verification pass over the narrowed candidates.
func verifyAmongCandidates(presentedKey string, candidates []models.Account) (models.Account, bool) {
	for _, candidate := range candidates {
		if secrets.Verify(presentedKey, candidate.KeyHash) {
			return candidate, true
		}
	}
	return models.Account{}, false
}

func (s *Service) invalidatePrefix(ctx context.Context, prefix string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, prefix); err != nil {
		s.logger.WarnContext(ctx, "candidate cache invalidation failed",
			"prefix", prefix, "error", err)
	}
}

func resolveQuota(requested *int, fallback int) (int, error) {
	if requested == nil {
		return fallback, nil
	}
	if *requested <= 0 {
		return 0, ErrInvalidQuota
	}
	return *requested, nil
}
