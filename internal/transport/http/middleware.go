package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hawiya/internal/ratelimit/gate"
	dErrors "hawiya/pkg/domain-errors"
	"hawiya/pkg/platform/httputil"
	"hawiya/pkg/requestcontext"
)

// RequestID assigns each request an ID, honoring one supplied by an
// upstream proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(
			requestcontext.WithRequestID(r.Context(), requestID)))
	})
}

// ClientMetadata extracts the client IP and User-Agent into the context
// for audit entries. Applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(),
			clientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIPFromRequest resolves the real client IP behind proxies and load
// balancers.
func clientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry in X-Forwarded-For is the original client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	// RemoteAddr carries a port: "127.0.0.1:1234" or "[::1]:1234".
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}
	return ""
}

// Logger emits one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"request_id", requestcontext.RequestID(r.Context()),
			)
		})
	}
}

// Recovery converts panics into 500 responses so one bad request cannot
// take the process down.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"panic", rec, "path", r.URL.Path)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Authorizer decides whether a request carrying an API key may proceed.
type Authorizer interface {
	Authorize(ctx context.Context, presentedKey string) gate.Decision
}

// APIKeyAuth authenticates via the X-API-Key header and enforces quotas.
// The account ID lands on the request context for handlers and audit.
func APIKeyAuth(authorizer Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := authorizer.Authorize(r.Context(), r.Header.Get("X-API-Key"))

			if !decision.Account.ID.IsNil() {
				addQuotaHeaders(w, decision)
			}

			if !decision.Allowed {
				writeDecision(w, decision)
				return
			}

			ctx := requestcontext.WithAPIKeyID(r.Context(), decision.Account.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func addQuotaHeaders(w http.ResponseWriter, decision gate.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Account.QuotaPerMinute))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.MinuteRemaining, 10))
	w.Header().Set("X-RateLimit-Limit-Day", strconv.Itoa(decision.Account.QuotaPerDay))
	w.Header().Set("X-RateLimit-Remaining-Day", strconv.FormatInt(decision.DayRemaining, 10))
}

func writeDecision(w http.ResponseWriter, decision gate.Decision) {
	switch decision.Outcome {
	case gate.OutcomeMissingKey:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing API key"))
	case gate.OutcomeInvalidKey:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid API key"))
	case gate.OutcomeRevoked:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "API key revoked"))
	case gate.OutcomeMinuteQuotaExceeded:
		setRetryAfter(w, decision.RetryAfter)
		httputil.WriteError(w, dErrors.New(dErrors.CodeQuotaExceeded, "per-minute quota exceeded"))
	case gate.OutcomeDayQuotaExceeded:
		setRetryAfter(w, decision.RetryAfter)
		httputil.WriteError(w, dErrors.New(dErrors.CodeQuotaExceeded, "daily quota exceeded"))
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "service temporarily unavailable"))
	}
}

func setRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter / time.Second)
	if retryAfter%time.Second != 0 {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}
