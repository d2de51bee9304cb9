package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit entries from a recorder's inbox and persists them.
// A store failure loses that one entry, never the worker: audit is
// best-effort by contract.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Entry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry); err != nil {
				w.logger.WarnContext(ctx, "failed to persist audit entry",
					"api_key_id", entry.APIKeyID, "error", err)
			}
		}
	}
}
