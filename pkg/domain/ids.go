// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "hawiya/pkg/domain-errors"
)

// APIKeyID identifies an API key account.
type APIKeyID uuid.UUID

// NewAPIKeyID generates a fresh random account identifier.
func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.New())
}

// ParseAPIKeyID validates an identifier at trust boundaries (handlers, API inputs).
func ParseAPIKeyID(s string) (APIKeyID, error) {
	if s == "" {
		return APIKeyID{}, dErrors.New(dErrors.CodeInvalidInput, "API key ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return APIKeyID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid API key ID format")
	}
	return APIKeyID(id), nil
}

func (id APIKeyID) String() string { return uuid.UUID(id).String() }

func (id APIKeyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID as its canonical UUID string in JSON and logs.
func (id APIKeyID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *APIKeyID) UnmarshalText(data []byte) error {
	parsed, err := ParseAPIKeyID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
