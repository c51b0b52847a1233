package workers

import (
	"context"
	"log/slog"
	"time"

	application "votary/contexts/ledger-core/vote-pipeline/application"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

// IdempotencyJanitor sweeps expired replay records so stale keys do not pin
// storage forever.
type IdempotencyJanitor struct {
	Idempotency ports.IdempotencyStore
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (j IdempotencyJanitor) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	removed, err := j.Idempotency.DeleteExpired(ctx, now)
	if err != nil {
		logger.Error("idempotency sweep failed",
			"event", "idempotency_sweep_failed",
			"module", "ledger-core/vote-pipeline",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if removed > 0 {
		logger.Info("idempotency records expired",
			"event", "idempotency_sweep_removed",
			"module", "ledger-core/vote-pipeline",
			"layer", "worker",
			"removed", removed,
		)
	}
	return nil
}
