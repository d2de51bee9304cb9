// Package nationalid implements parsing and validation of Egyptian national
// ID numbers.
//
// An ID is 14 digits: century digit, YYMMDD birth date, two-digit governorate
// code, four-digit serial whose parity encodes gender, and a check digit.
//
// Domain purity: this package performs no I/O and takes the clock as an
// argument, so results are reproducible.
package nationalid

import (
	"strings"
	"time"
	"unicode"
)

// centuries maps the leading digit to the birth century base year.
var centuries = map[byte]int{
	'2': 1900,
	'3': 2000,
}

// checksumWeights are the positional weights applied to the first 13 digits.
// The weighted sum is taken mod 11 and the check digit is (11 - rem) mod 10.
var checksumWeights = [13]int{2, 7, 6, 5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// Validate parses and validates a raw national ID. It never fails with an
// error; every failure mode becomes a Reason. All reasons for a single input
// are collected rather than stopping at the first, except a format failure,
// which makes field extraction meaningless.
//
// With strict=false a checksum mismatch is reported only through
// Parsed.ChecksumOK; with strict=true it also invalidates the result.
func Validate(raw string, strict bool, now time.Time) Result {
	id, ok := normalize(raw)
	if !ok {
		return Result{Valid: false, Reasons: []Reason{ReasonInvalidFormat}}
	}

	var reasons []Reason
	fatal := false

	centuryBase, centuryOK := centuries[id[0]]
	if !centuryOK {
		reasons = append(reasons, ReasonInvalidCentury)
		fatal = true
	}

	var birthDate time.Time
	if centuryOK {
		year := centuryBase + digits(id[1:3])
		month := digits(id[3:5])
		day := digits(id[5:7])

		var dateOK bool
		birthDate, dateOK = calendarDate(year, month, day)
		if !dateOK {
			reasons = append(reasons, ReasonInvalidBirthDate)
			fatal = true
		} else if birthDate.After(dateOnly(now)) {
			reasons = append(reasons, ReasonFutureBirthDate)
			fatal = true
		}
	}

	govCode := id[7:9]
	govName, govKnown := GovernorateName(govCode)
	if !govKnown {
		reasons = append(reasons, ReasonUnknownGovernorate)
	}

	serial := id[9:13]
	gender := GenderFemale
	if int(id[12]-'0')%2 == 1 {
		gender = GenderMale
	}

	checksumOK := Checksum(id) == int(id[13]-'0')
	if strict && !checksumOK {
		reasons = append(reasons, ReasonChecksumMismatch)
	}

	result := Result{
		Valid:   !fatal && (checksumOK || !strict),
		Reasons: reasons,
	}

	if !fatal {
		result.Parsed = &Parsed{
			Raw:             id,
			CenturyDigit:    id[:1],
			BirthDate:       formatBirthDate(birthDate),
			Age:             age(birthDate, now),
			GovernorateCode: govCode,
			GovernorateName: govName,
			Serial:          serial,
			Gender:          gender,
			ChecksumOK:      checksumOK,
		}
	}

	return result
}

// Checksum computes the expected check digit source value for the first 13
// digits of a normalized ID. Exported so tests and tooling can derive valid
// check digits.
func Checksum(id string) int {
	total := 0
	for i, w := range checksumWeights {
		total += int(id[i]-'0') * w
	}
	return (11 - total%11) % 10
}

// normalize maps Arabic-Indic digits to ASCII and drops whitespace. Returns
// false when the cleaned string is not exactly 14 ASCII digits.
func normalize(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			continue
		case r >= '٠' && r <= '٩': // Arabic-Indic digits U+0660..U+0669
			b.WriteByte(byte('0' + (r - '٠')))
		case r >= '0' && r <= '9':
			b.WriteByte(byte(r))
		default:
			return "", false
		}
	}
	id := b.String()
	if len(id) != 14 {
		return "", false
	}
	return id, true
}

// digits parses a short all-digit substring. Inputs are pre-validated by
// normalize, so no error path is needed.
func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// calendarDate verifies year/month/day form a real date. time.Date normalizes
// overflow (Feb 30 becomes Mar 2), so the components are checked round-trip.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// dateOnly truncates a timestamp to midnight UTC so future-date comparison
// works on calendar days, not instants.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// age computes whole years between birth date and now, decrementing when the
// birthday has not yet occurred this year.
func age(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() ||
		(now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		years--
	}
	return years
}
