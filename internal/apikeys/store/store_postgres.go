package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hawiya/internal/apikeys/models"
	id "hawiya/pkg/domain"
	"hawiya/pkg/platform/sentinel"
)

// PostgresStore persists API key accounts. Pure I/O; quota defaults and
// revocation rules live in the service layer.
//
// Schema:
//
//	CREATE TABLE api_keys (
//	    id               UUID PRIMARY KEY,
//	    name             TEXT NOT NULL,
//	    key_hash         TEXT NOT NULL,
//	    key_prefix       TEXT NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    revoked          BOOLEAN NOT NULL DEFAULT FALSE,
//	    quota_per_minute INTEGER NOT NULL,
//	    quota_per_day    INTEGER NOT NULL,
//	    metadata         JSONB NOT NULL DEFAULT '{}',
//	    last_used_at     TIMESTAMPTZ
//	);
//	CREATE INDEX api_keys_prefix_idx ON api_keys (key_prefix);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, account models.Account) error {
	metadata, err := json.Marshal(metadataOrEmpty(account.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at, revoked, quota_per_minute, quota_per_day, metadata, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(account.ID),
		account.Name,
		account.KeyHash,
		account.KeyPrefix,
		account.CreatedAt,
		account.Revoked,
		account.QuotaPerMinute,
		account.QuotaPerDay,
		metadata,
		account.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.APIKeyID) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE id = $1`, uuid.UUID(accountID))
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, sentinel.ErrNotFound
		}
		return models.Account{}, fmt.Errorf("find api key by id: %w", err)
	}
	return account, nil
}

// FindByPrefix narrows candidates by the non-secret prefix; hash verification
// happens in the service.
func (s *PostgresStore) FindByPrefix(ctx context.Context, prefix string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, selectAccount+` WHERE key_prefix = $1`, prefix)
	if err != nil {
		return nil, fmt.Errorf("find api keys by prefix: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		out = append(out, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SetRevoked(ctx context.Context, accountID id.APIKeyID, revoked bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET revoked = $2 WHERE id = $1`,
		uuid.UUID(accountID), revoked,
	)
	if err != nil {
		return fmt.Errorf("set api key revoked: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set api key revoked: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Touch(ctx context.Context, accountID id.APIKeyID, usedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $2 WHERE id = $1`,
		uuid.UUID(accountID), usedAt,
	)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectAccount = `
	SELECT id, name, key_hash, key_prefix, created_at, revoked, quota_per_minute, quota_per_day, metadata, last_used_at
	FROM api_keys`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		account    models.Account
		accountID  uuid.UUID
		metadata   []byte
		lastUsedAt sql.NullTime
	)
	err := row.Scan(
		&accountID,
		&account.Name,
		&account.KeyHash,
		&account.KeyPrefix,
		&account.CreatedAt,
		&account.Revoked,
		&account.QuotaPerMinute,
		&account.QuotaPerDay,
		&metadata,
		&lastUsedAt,
	)
	if err != nil {
		return models.Account{}, err
	}
	account.ID = id.APIKeyID(accountID)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &account.Metadata); err != nil {
			return models.Account{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if lastUsedAt.Valid {
		account.LastUsedAt = &lastUsedAt.Time
	}
	return account, nil
}

func metadataOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
