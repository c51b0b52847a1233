package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	"votary/contexts/ledger-core/vote-pipeline/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and local wiring. It stands in
// for the external ledger store and transaction pool at the same port
// boundaries the production adapters use.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]entities.Account
	transactions map[string]entities.VoteTransaction
	idempotency  map[string]ports.IdempotencyRecord
	outbox       map[string]outboxRecord

	submitted  []entities.VoteTransaction
	poolReason string
}

func NewStore(seed []entities.Account) *Store {
	accounts := make(map[string]entities.Account, len(seed))
	for _, account := range seed {
		accounts[account.Address] = account
	}
	return &Store{
		accounts:     accounts,
		transactions: make(map[string]entities.VoteTransaction),
		idempotency:  make(map[string]ports.IdempotencyRecord),
		outbox:       make(map[string]outboxRecord),
	}
}

func (s *Store) SetAccount(account entities.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.TrimSpace(account.Address)] = account
}

// RejectSubmissions makes the pool refuse every subsequent submission with
// the given reason. An empty reason restores acceptance.
func (s *Store) RejectSubmissions(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poolReason = reason
}

// Submitted returns the transactions handed to the pool, in dispatch order.
func (s *Store) Submitted() []entities.VoteTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.VoteTransaction(nil), s.submitted...)
}

func (s *Store) GetByAddress(_ context.Context, address string) (entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[strings.TrimSpace(address)]
	if !ok {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) Submit(_ context.Context, tx entities.VoteTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poolReason != "" {
		return fmt.Errorf("%w: %s", domainerrors.ErrPoolRejected, s.poolReason)
	}
	s.submitted = append(s.submitted, tx)
	return nil
}

func (s *Store) SaveTransaction(_ context.Context, tx entities.VoteTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (entities.VoteTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[strings.TrimSpace(id)]
	if !ok {
		return entities.VoteTransaction{}, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	existing, exists := s.idempotency[key]
	if exists {
		if existing.RequestHash != record.RequestHash || existing.TransactionID != record.TransactionID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:           key,
		RequestHash:   strings.TrimSpace(record.RequestHash),
		TransactionID: strings.TrimSpace(record.TransactionID),
		ExpiresAt:     record.ExpiresAt.UTC(),
	}
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, record := range s.idempotency {
		if !record.ExpiresAt.After(now.UTC()) {
			delete(s.idempotency, key)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return fmt.Errorf("unknown outbox row %s", strings.TrimSpace(outboxID))
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.AccountStore = (*Store)(nil)
var _ ports.TransactionPool = (*Store)(nil)
var _ ports.TransactionJournal = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
