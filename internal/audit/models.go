package audit

import (
	"strings"
	"time"
)

// AnonymousKeyID labels entries for requests that never authenticated.
const AnonymousKeyID = "anonymous"

// Entry is one validation request as recorded for audit. The national ID
// is masked before the entry is constructed; raw IDs never reach a sink.
type Entry struct {
	Timestamp        time.Time     `json:"timestamp"`
	APIKeyID         string        `json:"api_key_id"`
	MaskedNationalID string        `json:"national_id_masked"`
	Valid            bool          `json:"valid"`
	Reasons          []string      `json:"reasons,omitempty"`
	Strict           bool          `json:"strict"`
	Duration         time.Duration `json:"duration"`
	ClientIP         string        `json:"ip_address,omitempty"`
	UserAgent        string        `json:"user_agent,omitempty"`
}

const maskKeepPrefix = 8

// MaskNationalID keeps the first eight characters and blanks the rest.
// Inputs shorter than the kept prefix are blanked entirely.
func MaskNationalID(raw string) string {
	if len(raw) <= maskKeepPrefix {
		return strings.Repeat("*", len(raw))
	}
	return raw[:maskKeepPrefix] + strings.Repeat("*", len(raw)-maskKeepPrefix)
}
