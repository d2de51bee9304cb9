// Package counter implements fixed-window usage counters for quota
// enforcement. A counter key identifies one account in one time window;
// incrementing past the window boundary starts a fresh count because the
// floored window start is part of the key.
package counter

import (
	"context"
	"fmt"
	"strings"
	"time"

	id "hawiya/pkg/domain"
)

// Counter atomically increments a window key, arming the key's expiry on
// first increment so abandoned windows clean themselves up.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Window is a quota accounting period.
type Window string

const (
	WindowMinute Window = "minute"
	WindowDay    Window = "day"
)

// Duration returns the window length, which doubles as the counter TTL.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowDay:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Start floors t to the window boundary in UTC.
func (w Window) Start(t time.Time) time.Time {
	return t.UTC().Truncate(w.Duration())
}

// RetryAfter returns the time until the current window rolls over.
func (w Window) RetryAfter(t time.Time) time.Duration {
	return w.Start(t).Add(w.Duration()).Sub(t.UTC())
}

// Key builds the counter key for an account's window containing t.
//
// Account IDs are UUIDs and cannot contain the ':' delimiter, but the
// segment is sanitized anyway so the key scheme stays collision-free if
// the identifier type ever changes.
func Key(accountID id.APIKeyID, w Window, t time.Time) string {
	return fmt.Sprintf("quota:%s:%s:%d",
		sanitizeSegment(accountID.String()), w, w.Start(t).Unix())
}

func sanitizeSegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
