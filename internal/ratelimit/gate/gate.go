// Package gate composes key resolution and quota accounting into a single
// authorization decision for the request path.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hawiya/internal/apikeys/models"
	"hawiya/internal/ratelimit/counter"
	"hawiya/internal/ratelimit/metrics"
	"hawiya/pkg/platform/sentinel"
	"hawiya/pkg/requestcontext"
)

// Outcome tags a Decision. Transport maps outcomes to status codes; the
// gate itself never speaks HTTP.
type Outcome string

const (
	OutcomeAllowed             Outcome = "allowed"
	OutcomeMissingKey          Outcome = "missing_key"
	OutcomeInvalidKey          Outcome = "invalid_key"
	OutcomeRevoked             Outcome = "revoked"
	OutcomeMinuteQuotaExceeded Outcome = "minute_quota_exceeded"
	OutcomeDayQuotaExceeded    Outcome = "day_quota_exceeded"
	OutcomeStoreUnavailable    Outcome = "store_unavailable"
)

// Decision is the gate's verdict on one request. It is a value, not an
// error: every rejection mode is an expected, countable outcome.
type Decision struct {
	Allowed bool
	Outcome Outcome

	// Account is populated for every outcome past authentication,
	// including quota rejections.
	Account models.Account

	MinuteUsed      int64
	DayUsed         int64
	MinuteRemaining int64
	DayRemaining    int64

	// RetryAfter is non-zero only for quota rejections: the time until
	// the exhausted window rolls over.
	RetryAfter time.Duration
}

// Resolver authenticates a presented key against the registry.
type Resolver interface {
	Resolve(ctx context.Context, presentedKey string) (models.Account, error)
}

type Gate struct {
	resolver     Resolver
	counter      counter.Counter
	metrics      *metrics.Metrics
	logger       *slog.Logger
	storeTimeout time.Duration
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithStoreTimeout(timeout time.Duration) Option {
	return func(g *Gate) {
		g.storeTimeout = timeout
	}
}

func New(resolver Resolver, ctr counter.Counter, opts ...Option) (*Gate, error) {
	if resolver == nil {
		return nil, fmt.Errorf("key resolver is required")
	}
	if ctr == nil {
		return nil, fmt.Errorf("quota counter is required")
	}

	g := &Gate{
		resolver:     resolver,
		counter:      ctr,
		logger:       slog.Default(),
		storeTimeout: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Authorize decides whether the request carrying presentedKey may proceed.
//
// Both window counters are incremented before either limit is checked, so
// the request that trips a limit is still recorded in both windows. Auth
// failures never touch the counters. Any store failure fails closed.
func (g *Gate) Authorize(ctx context.Context, presentedKey string) Decision {
	if strings.TrimSpace(presentedKey) == "" {
		return g.reject(ctx, Decision{Outcome: OutcomeMissingKey})
	}

	account, err := g.resolve(ctx, presentedKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return g.reject(ctx, Decision{Outcome: OutcomeInvalidKey})
		}
		g.logger.ErrorContext(ctx, "key resolution failed", "error", err)
		return g.reject(ctx, Decision{Outcome: OutcomeStoreUnavailable})
	}

	if account.Revoked {
		return g.reject(ctx, Decision{Outcome: OutcomeRevoked, Account: account})
	}

	now := requestcontext.Now(ctx)

	minuteUsed, err := g.increment(ctx, account, counter.WindowMinute, now)
	if err != nil {
		return g.storeFailure(ctx, account, err)
	}
	dayUsed, err := g.increment(ctx, account, counter.WindowDay, now)
	if err != nil {
		return g.storeFailure(ctx, account, err)
	}

	decision := Decision{
		Account:         account,
		MinuteUsed:      minuteUsed,
		DayUsed:         dayUsed,
		MinuteRemaining: remaining(account.QuotaPerMinute, minuteUsed),
		DayRemaining:    remaining(account.QuotaPerDay, dayUsed),
	}

	switch {
	case minuteUsed > int64(account.QuotaPerMinute):
		decision.Outcome = OutcomeMinuteQuotaExceeded
		decision.RetryAfter = counter.WindowMinute.RetryAfter(now)
		return g.reject(ctx, decision)
	case dayUsed > int64(account.QuotaPerDay):
		decision.Outcome = OutcomeDayQuotaExceeded
		decision.RetryAfter = counter.WindowDay.RetryAfter(now)
		return g.reject(ctx, decision)
	}

	decision.Allowed = true
	decision.Outcome = OutcomeAllowed
	g.record(decision.Outcome)
	return decision
}

func (g *Gate) resolve(ctx context.Context, presentedKey string) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()
	return g.resolver.Resolve(ctx, presentedKey)
}

func (g *Gate) increment(ctx context.Context, account models.Account, w counter.Window, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.storeTimeout)
	defer cancel()
	return g.counter.IncrementWithTTL(ctx, counter.Key(account.ID, w, now), w.Duration())
}

func (g *Gate) storeFailure(ctx context.Context, account models.Account, err error) Decision {
	g.logger.ErrorContext(ctx, "quota counter increment failed",
		"api_key_id", account.ID, "error", err)
	if g.metrics != nil {
		g.metrics.RecordCounterStoreFailure()
	}
	return g.reject(ctx, Decision{Outcome: OutcomeStoreUnavailable, Account: account})
}

func (g *Gate) reject(ctx context.Context, decision Decision) Decision {
	decision.Allowed = false
	g.record(decision.Outcome)

	if decision.Outcome == OutcomeMinuteQuotaExceeded || decision.Outcome == OutcomeDayQuotaExceeded {
		g.logger.InfoContext(ctx, "quota exceeded",
			"api_key_id", decision.Account.ID,
			"outcome", decision.Outcome,
			"minute_used", decision.MinuteUsed,
			"day_used", decision.DayUsed,
		)
	}
	return decision
}

func (g *Gate) record(outcome Outcome) {
	if g.metrics != nil {
		g.metrics.RecordDecision(string(outcome))
	}
}

func remaining(quota int, used int64) int64 {
	if left := int64(quota) - used; left > 0 {
		return left
	}
	return 0
}
