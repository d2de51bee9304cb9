package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists audit entries to the validation log table.
//
// Schema:
//
//	CREATE TABLE id_validation_log (
//	    id                 UUID PRIMARY KEY,
//	    created_at         TIMESTAMPTZ NOT NULL,
//	    api_key_id         TEXT NOT NULL,
//	    national_id_masked TEXT NOT NULL,
//	    valid              BOOLEAN NOT NULL,
//	    reasons            JSONB NOT NULL DEFAULT '[]',
//	    strict             BOOLEAN NOT NULL,
//	    duration_ms        DOUBLE PRECISION NOT NULL,
//	    ip_address         TEXT,
//	    user_agent         TEXT
//	);
//	CREATE INDEX id_validation_log_key_idx ON id_validation_log (api_key_id, created_at);
//	CREATE INDEX id_validation_log_created_idx ON id_validation_log (created_at);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	reasons, err := json.Marshal(reasonsOrEmpty(entry.Reasons))
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO id_validation_log (id, created_at, api_key_id, national_id_masked, valid, reasons, strict, duration_ms, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.New(),
		entry.Timestamp,
		entry.APIKeyID,
		entry.MaskedNationalID,
		entry.Valid,
		reasons,
		entry.Strict,
		float64(entry.Duration.Microseconds())/1000.0,
		nullIfEmpty(entry.ClientIP),
		nullIfEmpty(entry.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("insert validation log entry: %w", err)
	}
	return nil
}

func reasonsOrEmpty(reasons []string) []string {
	if reasons == nil {
		return []string{}
	}
	return reasons
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
