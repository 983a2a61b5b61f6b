package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AuditPurger is the slice of the audit service the retention job needs.
type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// NewAuditRetentionHandler builds the handler that deletes audit events
// older than the retention window.
func NewAuditRetentionHandler(purger AuditPurger, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		deleted, err := purger.PurgeOlderThan(ctx, retention)
		if err != nil {
			return err
		}
		if deleted > 0 {
			logger.Info("audit retention purge",
				slog.Int64("deleted", deleted),
				slog.Duration("retention", retention))
		}
		return nil
	}
}
