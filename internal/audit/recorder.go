// Package audit records validation requests off the hot path. Recording is
// fire-and-forget: the request path hands an entry to a buffered channel
// and moves on; a worker drains the channel into a store.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store persists drained audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}

// Recorder is the producer half of the sink. Record never blocks: when the
// buffer is full the entry is dropped and counted, keeping audit pressure
// away from request latency.
type Recorder struct {
	inbox   chan Entry
	dropped prometheus.Counter
	logger  *slog.Logger
}

type RecorderOption func(*Recorder)

func WithDroppedCounter(counter prometheus.Counter) RecorderOption {
	return func(r *Recorder) {
		r.dropped = counter
	}
}

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func NewRecorder(bufferSize int, opts ...RecorderOption) *Recorder {
	if bufferSize < 1 {
		bufferSize = 1
	}

	r := &Recorder{
		inbox:  make(chan Entry, bufferSize),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Recorder) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	select {
	case r.inbox <- entry:
	default:
		if r.dropped != nil {
			r.dropped.Inc()
		}
		r.logger.Warn("audit entry dropped, buffer full", "api_key_id", entry.APIKeyID)
	}
}

// Inbox exposes the consumer side of the channel for the worker.
func (r *Recorder) Inbox() <-chan Entry {
	return r.inbox
}
