package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "votary/contexts/ledger-core/vote-pipeline/application"
	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	"votary/contexts/ledger-core/vote-pipeline/domain/services"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

// SubmitVoteCommand is the write-model input for a vote submission. Secrets
// are held only for the lifetime of the request.
type SubmitVoteCommand struct {
	Secret                   string
	SecondSecret             string
	PublicKey                string
	MultisigAccountPublicKey string
	Votes                    []string
	IdempotencyKey           string
}

// SubmitVoteResult returns the built transaction and a replay marker the
// transport layer maps to API semantics.
type SubmitVoteResult struct {
	Transaction entities.VoteTransaction
	Replayed    bool
}

// VoteUseCase orchestrates the submission pipeline from credential derivation
// through pool dispatch. The critical section runs through the sequencer so a
// transaction is handed to the pool exactly once per request.
type VoteUseCase struct {
	Accounts       ports.AccountStore
	Pool           ports.TransactionPool
	Journal        ports.TransactionJournal
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Sequencer      *application.Sequencer
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Policy         services.PolicyEngine
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// SubmitVote runs the full pipeline for one request. Credential checks happen
// before any account resolution; authorization happens strictly before any
// transaction object exists.
func (uc VoteUseCase) SubmitVote(ctx context.Context, cmd SubmitVoteCommand) (SubmitVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("vote submission started",
		"event", "vote_submit_started",
		"module", "ledger-core/vote-pipeline",
		"layer", "application",
		"delegated_target", strings.TrimSpace(cmd.MultisigAccountPublicKey),
		"vote_count", len(cmd.Votes),
	)

	if strings.TrimSpace(cmd.Secret) == "" || len(cmd.Votes) == 0 {
		logger.Warn("vote submission validation failed",
			"event", "vote_submit_validation_failed",
			"module", "ledger-core/vote-pipeline",
			"layer", "application",
			"vote_count", len(cmd.Votes),
		)
		return SubmitVoteResult{}, domainerrors.ErrInvalidRequest
	}

	keypair := services.DeriveKeypair(cmd.Secret)
	if expected := strings.TrimSpace(cmd.PublicKey); expected != "" && expected != keypair.PublicHex() {
		logger.Warn("vote submission credential mismatch",
			"event", "vote_submit_credential_mismatch",
			"module", "ledger-core/vote-pipeline",
			"layer", "application",
			"expected_public_key", expected,
		)
		return SubmitVoteResult{}, domainerrors.ErrInvalidCredential
	}

	var secondKeypair *entities.Keypair
	if strings.TrimSpace(cmd.SecondSecret) != "" {
		derived := services.DeriveKeypair(cmd.SecondSecret)
		secondKeypair = &derived
	}

	now := uc.now()
	requestHash := hashSubmitVoteCommand(cmd, keypair.PublicHex())
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" && uc.Idempotency != nil {
		record, found, err := uc.Idempotency.Get(ctx, key, now)
		if err != nil {
			return SubmitVoteResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return SubmitVoteResult{}, domainerrors.ErrIdempotencyConflict
			}
			tx, err := uc.Journal.GetTransaction(ctx, record.TransactionID)
			if err != nil {
				return SubmitVoteResult{}, err
			}
			logger.Info("vote submission replayed",
				"event", "vote_submit_replayed",
				"module", "ledger-core/vote-pipeline",
				"layer", "application",
				"transaction_id", tx.ID,
			)
			return SubmitVoteResult{Transaction: tx, Replayed: true}, nil
		}
	}

	var built entities.VoteTransaction
	err := uc.Sequencer.Do(ctx, func(ctx context.Context) error {
		tx, err := uc.runPipeline(ctx, cmd, keypair, secondKeypair)
		if err != nil {
			return err
		}
		built = tx
		return nil
	})
	if err != nil {
		logger.Warn("vote submission rejected",
			"event", "vote_submit_rejected",
			"module", "ledger-core/vote-pipeline",
			"layer", "application",
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}

	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" && uc.Idempotency != nil {
		if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:           key,
			RequestHash:   requestHash,
			TransactionID: built.ID,
			ExpiresAt:     now.Add(uc.resolveIdempotencyTTL()),
		}); err != nil {
			return SubmitVoteResult{}, err
		}
	}

	logger.Info("vote transaction accepted",
		"event", "vote_submit_accepted",
		"module", "ledger-core/vote-pipeline",
		"layer", "application",
		"transaction_id", built.ID,
		"sender_address", built.SenderAddress,
		"delegated", built.RequesterPublicKey != "",
		"vote_count", len(built.Votes),
	)
	return SubmitVoteResult{Transaction: built}, nil
}

// runPipeline is the sequenced critical section: account reads, policy
// evaluation, build, and pool dispatch happen with no interleaving from other
// submissions in the same domain.
func (uc VoteUseCase) runPipeline(
	ctx context.Context,
	cmd SubmitVoteCommand,
	keypair entities.Keypair,
	secondKeypair *entities.Keypair,
) (entities.VoteTransaction, error) {
	input := services.AuthorizationInput{
		SignerKeypair:   keypair,
		SecondKeypair:   secondKeypair,
		TargetPublicKey: strings.TrimSpace(cmd.MultisigAccountPublicKey),
	}

	signerAddress := services.DeriveAddress(keypair.Public)
	if uc.Policy.Delegated(input) {
		targetAddress, err := services.DeriveAddressFromHex(input.TargetPublicKey)
		if err != nil {
			return entities.VoteTransaction{}, fmt.Errorf("%w: %s", domainerrors.ErrInvalidRequest, err.Error())
		}
		target, err := uc.resolveAccount(ctx, targetAddress)
		if err != nil {
			return entities.VoteTransaction{}, err
		}
		if target != nil && target.PublicKey == "" {
			// The store omits the public key until the account has signed;
			// the lookup key itself is authoritative here.
			target.PublicKey = input.TargetPublicKey
		}
		requester, err := uc.resolveAccount(ctx, signerAddress)
		if err != nil {
			return entities.VoteTransaction{}, err
		}
		input.TargetAccount = target
		input.RequesterAccount = requester
	} else {
		sender, err := uc.resolveAccount(ctx, signerAddress)
		if err != nil {
			return entities.VoteTransaction{}, err
		}
		input.SenderAccount = sender
	}

	plan, err := uc.Policy.Authorize(input)
	if err != nil {
		return entities.VoteTransaction{}, err
	}

	tx, err := services.BuildVoteTransaction(plan, cmd.Votes, uc.now())
	if err != nil {
		return entities.VoteTransaction{}, err
	}

	if err := uc.Pool.Submit(ctx, tx); err != nil {
		return entities.VoteTransaction{}, err
	}

	if uc.Journal != nil {
		if err := uc.Journal.SaveTransaction(ctx, tx); err != nil {
			return entities.VoteTransaction{}, err
		}
	}
	if err := uc.appendAcceptedEvent(ctx, tx); err != nil {
		return entities.VoteTransaction{}, err
	}
	return tx, nil
}

// resolveAccount maps a store miss to a nil account so the policy engine can
// report the path-specific not-found error.
func (uc VoteUseCase) resolveAccount(ctx context.Context, address string) (*entities.Account, error) {
	account, err := uc.Accounts.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (uc VoteUseCase) appendAcceptedEvent(ctx context.Context, tx entities.VoteTransaction) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, newBroadcastEnvelope(eventID, "transaction.vote.accepted", tx))
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc VoteUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

// hashSubmitVoteCommand fingerprints the request for idempotent replay
// detection. The derived public key stands in for the raw secret so secret
// material never outlives the request.
func hashSubmitVoteCommand(cmd SubmitVoteCommand, signerPublicKey string) string {
	payload := map[string]any{
		"signer_public_key": signerPublicKey,
		"second_factor":     strings.TrimSpace(cmd.SecondSecret) != "",
		"multisig_target":   strings.TrimSpace(cmd.MultisigAccountPublicKey),
		"votes":             cmd.Votes,
		"op":                "submit_vote",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
