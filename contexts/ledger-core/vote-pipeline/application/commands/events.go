package commands

import (
	"encoding/json"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

func newBroadcastEnvelope(eventID string, eventType string, tx entities.VoteTransaction) ports.EventEnvelope {
	// Accepted-transaction events are partitioned by sender so broadcast
	// consumers observe per-account ordering.
	data, _ := json.Marshal(map[string]any{
		"transaction_id":       tx.ID,
		"sender_address":       tx.SenderAddress,
		"sender_public_key":    tx.SenderPublicKey,
		"requester_public_key": tx.RequesterPublicKey,
		"vote_count":           len(tx.Votes),
		"accepted_at":          tx.Timestamp.Format(time.RFC3339),
	})
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    tx.Timestamp.UTC(),
		SourceService: "vote-pipeline",
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  tx.SenderAddress,
		Data:          data,
	}
}
