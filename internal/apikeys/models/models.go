package models

import (
	"time"

	id "hawiya/pkg/domain"
)

// Account is a persisted API key record. The secret itself is never stored;
// only its one-way hash plus a short non-secret prefix used to narrow lookups.
// Accounts are soft-revoked, never physically deleted.
type Account struct {
	ID             id.APIKeyID       `json:"id"`
	Name           string            `json:"name"`
	KeyHash        string            `json:"key_hash"`
	KeyPrefix      string            `json:"key_prefix"`
	CreatedAt      time.Time         `json:"created_at"`
	Revoked        bool              `json:"revoked"`
	QuotaPerMinute int               `json:"quota_per_minute"`
	QuotaPerDay    int               `json:"quota_per_day"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	LastUsedAt     *time.Time        `json:"last_used_at,omitempty"`
}

// CreateParams carries key creation input. Nil quotas fall back to configured
// defaults; explicit quotas must be positive.
type CreateParams struct {
	Name           string
	QuotaPerMinute *int
	QuotaPerDay    *int
	Metadata       map[string]string
}
