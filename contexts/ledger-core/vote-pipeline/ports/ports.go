package ports

import (
	"context"
	"encoding/json"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
)

// AccountStore is the external ledger store, read-only from this module's
// point of view. Lookups for unknown addresses return ErrAccountNotFound.
type AccountStore interface {
	GetByAddress(ctx context.Context, address string) (entities.Account, error)
}

// TransactionPool receives fully built and signed transactions. A rejection
// surfaces as an error wrapping ErrPoolRejected with the pool's reason.
type TransactionPool interface {
	Submit(ctx context.Context, tx entities.VoteTransaction) error
}

// TransactionJournal records accepted transactions for read-side queries.
type TransactionJournal interface {
	SaveTransaction(ctx context.Context, tx entities.VoteTransaction) error
	GetTransaction(ctx context.Context, id string) (entities.VoteTransaction, error)
}

type IdempotencyRecord struct {
	Key           string
	RequestHash   string
	TransactionID string
	ExpiresAt     time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	TraceID       string          `json:"trace_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// BroadcastPublisher hands accepted-transaction events to the node's message
// bus for peer broadcast.
type BroadcastPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
