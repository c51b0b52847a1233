package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	"votary/contexts/ledger-core/vote-pipeline/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the gorm-backed adapter over the node's relational state:
// the accounts read model, the accepted-transaction journal, idempotency
// keys, and the broadcast outbox.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetByAddress(ctx context.Context, address string) (entities.Account, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("address = ?", strings.TrimSpace(address)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, r.logError("pipeline_repo_get_account_failed", err,
			"address", strings.TrimSpace(address),
		)
	}
	return row.toEntity()
}

func (r *Repository) SaveTransaction(ctx context.Context, tx entities.VoteTransaction) error {
	row, err := transactionModelFromEntity(tx)
	if err != nil {
		return r.logError("pipeline_repo_encode_transaction_failed", err, "transaction_id", tx.ID)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return nil
		}
		return r.logError("pipeline_repo_save_transaction_failed", create.Error,
			"transaction_id", tx.ID,
			"sender_address", tx.SenderAddress,
		)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (entities.VoteTransaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(id)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoteTransaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.VoteTransaction{}, r.logError("pipeline_repo_get_transaction_failed", err,
			"transaction_id", strings.TrimSpace(id),
		)
	}
	return row.toEntity()
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("pipeline_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("pipeline_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:           row.Key,
		RequestHash:   row.RequestHash,
		TransactionID: row.TransactionID,
		ExpiresAt:     row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:           strings.TrimSpace(record.Key),
		RequestHash:   strings.TrimSpace(record.RequestHash),
		TransactionID: strings.TrimSpace(record.TransactionID),
		ExpiresAt:     record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("pipeline_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("pipeline_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.TransactionID != row.TransactionID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&idempotencyModel{})
	if result.Error != nil {
		return 0, r.logError("pipeline_repo_idempotency_sweep_failed", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("pipeline_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("pipeline_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("pipeline_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("pipeline_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("pipeline_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "ledger-core/vote-pipeline",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote pipeline repository operation failed", fields...)
	return err
}

type accountModel struct {
	Address            string `gorm:"column:address;primaryKey"`
	PublicKey          string `gorm:"column:public_key"`
	Balance            uint64 `gorm:"column:balance"`
	UnconfirmedBalance uint64 `gorm:"column:unconfirmed_balance"`
	SecondSignature    bool   `gorm:"column:second_signature"`
	SecondPublicKey    string `gorm:"column:second_public_key"`
	Multisignatures    []byte `gorm:"column:multisignatures"`
}

func (accountModel) TableName() string {
	return "accounts"
}

func (m accountModel) toEntity() (entities.Account, error) {
	account := entities.Account{
		Address:            m.Address,
		PublicKey:          m.PublicKey,
		Balance:            m.Balance,
		UnconfirmedBalance: m.UnconfirmedBalance,
		SecondSignature:    m.SecondSignature,
		SecondPublicKey:    m.SecondPublicKey,
	}
	if len(m.Multisignatures) > 0 {
		if err := json.Unmarshal(m.Multisignatures, &account.Multisignatures); err != nil {
			return entities.Account{}, err
		}
	}
	return account, nil
}

type transactionModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	Type               uint8     `gorm:"column:type"`
	SenderAddress      string    `gorm:"column:sender_address"`
	SenderPublicKey    string    `gorm:"column:sender_public_key"`
	RequesterPublicKey *string   `gorm:"column:requester_public_key"`
	Votes              []byte    `gorm:"column:votes"`
	Signature          string    `gorm:"column:signature"`
	SecondSignature    string    `gorm:"column:second_signature"`
	Timestamp          time.Time `gorm:"column:timestamp"`
}

func (transactionModel) TableName() string {
	return "vote_transactions"
}

func transactionModelFromEntity(tx entities.VoteTransaction) (transactionModel, error) {
	votes, err := json.Marshal(tx.Votes)
	if err != nil {
		return transactionModel{}, err
	}
	row := transactionModel{
		ID:              strings.TrimSpace(tx.ID),
		Type:            uint8(tx.Type),
		SenderAddress:   strings.TrimSpace(tx.SenderAddress),
		SenderPublicKey: strings.TrimSpace(tx.SenderPublicKey),
		Votes:           votes,
		Signature:       tx.Signature,
		SecondSignature: tx.SecondSignature,
		Timestamp:       tx.Timestamp.UTC(),
	}
	if strings.TrimSpace(tx.RequesterPublicKey) != "" {
		requester := strings.TrimSpace(tx.RequesterPublicKey)
		row.RequesterPublicKey = &requester
	}
	return row, nil
}

func (m transactionModel) toEntity() (entities.VoteTransaction, error) {
	var votes []string
	if len(m.Votes) > 0 {
		if err := json.Unmarshal(m.Votes, &votes); err != nil {
			return entities.VoteTransaction{}, err
		}
	}
	requester := ""
	if m.RequesterPublicKey != nil {
		requester = strings.TrimSpace(*m.RequesterPublicKey)
	}
	return entities.VoteTransaction{
		ID:                 m.ID,
		Type:               entities.TransactionType(m.Type),
		SenderAddress:      m.SenderAddress,
		SenderPublicKey:    m.SenderPublicKey,
		RequesterPublicKey: requester,
		Votes:              votes,
		Signature:          m.Signature,
		SecondSignature:    m.SecondSignature,
		Timestamp:          m.Timestamp.UTC(),
	}, nil
}

type idempotencyModel struct {
	Key           string    `gorm:"column:key;primaryKey"`
	RequestHash   string    `gorm:"column:request_hash"`
	TransactionID string    `gorm:"column:transaction_id"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "vote_pipeline_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "vote_pipeline_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.AccountStore = (*Repository)(nil)
var _ ports.TransactionJournal = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
