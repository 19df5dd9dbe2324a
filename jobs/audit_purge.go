package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AuditPurger deletes login audit rows with tokens expired before a cutoff.
type AuditPurger interface {
	PurgeExpiredLoginAudit(ctx context.Context, before time.Time) (int64, error)
}

const defaultAuditRetention = 30 * 24 * time.Hour

// NewAuditPurgeHandler returns the Asynq handler for TaskTypeAuditPurge.
// The audit log is append-only history, not a revocation list; purging it
// never invalidates a live token.
func NewAuditPurgeHandler(purger AuditPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		retention := payload.Retention
		if retention <= 0 {
			retention = defaultAuditRetention
		}
		cutoff := time.Now().Add(-retention)
		removed, err := purger.PurgeExpiredLoginAudit(ctx, cutoff)
		if err != nil {
			logger.Error("audit purge failed", slog.Any("error", err))
			return err
		}
		logger.Info("audit purge complete",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff))
		return nil
	}
}
