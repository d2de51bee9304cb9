package nationalid

import "time"

// Reason identifies a single validation failure. Values are stable API
// strings returned to clients.
type Reason string

const (
	ReasonInvalidFormat      Reason = "invalid_format"
	ReasonInvalidCentury     Reason = "invalid_century"
	ReasonInvalidBirthDate   Reason = "invalid_birth_date"
	ReasonFutureBirthDate    Reason = "future_birth_date"
	ReasonUnknownGovernorate Reason = "unknown_governorate"
	ReasonChecksumMismatch   Reason = "checksum_mismatch"
)

// Gender is derived from the parity of the serial's last digit.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Parsed holds the fields extracted from a structurally valid ID. It is
// populated even when the checksum fails, so callers running in lenient mode
// still see every component.
type Parsed struct {
	Raw             string `json:"raw"`
	CenturyDigit    string `json:"century_digit"`
	BirthDate       string `json:"birth_date"`
	Age             int    `json:"age"`
	GovernorateCode string `json:"governorate_code"`
	GovernorateName string `json:"governorate_name"`
	Serial          string `json:"serial"`
	Gender          Gender `json:"gender"`
	ChecksumOK      bool   `json:"checksum_ok"`
}

// Result is the outcome of validating one raw input. Reasons are ordered by
// the validation step that produced them, and all reasons for a failing input
// are reported together.
type Result struct {
	Valid   bool     `json:"valid"`
	Reasons []Reason `json:"errors"`
	Parsed  *Parsed  `json:"parsed,omitempty"`
}

// birthDate is the parsed calendar date; kept internal so Parsed stays a flat
// JSON-friendly struct.
func formatBirthDate(t time.Time) string {
	return t.Format("2006-01-02")
}
