package store

import (
	"context"
	"sync"
	"time"

	"hawiya/internal/apikeys/models"
	id "hawiya/pkg/domain"
	"hawiya/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in a map. Used by unit tests and single-node
// development runs; production deployments use PostgresStore.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.APIKeyID]models.Account
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.APIKeyID]models.Account),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrConflict
	}
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.APIKeyID) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountID]
	if !exists {
		return models.Account{}, sentinel.ErrNotFound
	}
	return cloneAccount(account), nil
}

// FindByPrefix returns every account sharing a key prefix, revoked ones
// included; revocation handling belongs to the caller.
func (s *InMemoryStore) FindByPrefix(_ context.Context, prefix string) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Account
	for _, account := range s.accounts {
		if account.KeyPrefix == prefix {
			out = append(out, cloneAccount(account))
		}
	}
	return out, nil
}

func (s *InMemoryStore) SetRevoked(_ context.Context, accountID id.APIKeyID, revoked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[accountID]
	if !exists {
		return sentinel.ErrNotFound
	}
	account.Revoked = revoked
	s.accounts[accountID] = account
	return nil
}

func (s *InMemoryStore) Touch(_ context.Context, accountID id.APIKeyID, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[accountID]
	if !exists {
		return sentinel.ErrNotFound
	}
	account.LastUsedAt = &usedAt
	s.accounts[accountID] = account
	return nil
}

// cloneAccount copies map-valued fields so callers cannot mutate store state.
func cloneAccount(a models.Account) models.Account {
	if a.Metadata != nil {
		meta := make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			meta[k] = v
		}
		a.Metadata = meta
	}
	if a.LastUsedAt != nil {
		t := *a.LastUsedAt
		a.LastUsedAt = &t
	}
	return a
}
