package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "votary/contexts/ledger-core/vote-pipeline/application"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

// BroadcastRelay drains the accepted-transaction outbox and publishes each
// envelope to the node's message bus, marking rows published on success.
type BroadcastRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.BroadcastPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r BroadcastRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("broadcast outbox list failed",
			"event", "broadcast_outbox_list_failed",
			"module", "ledger-core/vote-pipeline",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			return err
		}
		if err := r.Publisher.Publish(ctx, r.Topic, envelope); err != nil {
			logger.Error("broadcast publish failed",
				"event", "broadcast_publish_failed",
				"module", "ledger-core/vote-pipeline",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}
	return nil
}
