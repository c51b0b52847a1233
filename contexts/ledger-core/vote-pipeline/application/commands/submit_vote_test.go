package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/adapters/memory"
	"votary/contexts/ledger-core/vote-pipeline/application"
	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	"votary/contexts/ledger-core/vote-pipeline/domain/services"
)

func voteFor(delegate string) string {
	digest := sha256.Sum256([]byte(delegate))
	return "+" + hex.EncodeToString(digest[:])
}

func newVoteUseCase(t *testing.T, store *memory.Store) VoteUseCase {
	t.Helper()
	sequencer := application.NewSequencer(8)
	t.Cleanup(sequencer.Close)
	return VoteUseCase{
		Accounts:       store,
		Pool:           store,
		Journal:        store,
		Idempotency:    store,
		Outbox:         store,
		Sequencer:      sequencer,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: time.Hour,
	}
}

func seedDirectAccount(store *memory.Store, secret string) entities.Keypair {
	keypair := services.DeriveKeypair(secret)
	store.SetAccount(entities.Account{
		Address:   services.DeriveAddress(keypair.Public),
		PublicKey: keypair.PublicHex(),
		Balance:   500,
	})
	return keypair
}

func TestSubmitVoteDirect(t *testing.T) {
	store := memory.NewStore(nil)
	keypair := seedDirectAccount(store, "direct submitter")
	uc := newVoteUseCase(t, store)

	result, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "direct submitter",
		Votes:  []string{voteFor("delegate-a")},
	})
	if err != nil {
		t.Fatalf("SubmitVote: %v", err)
	}
	if result.Replayed {
		t.Fatal("first submission marked as replay")
	}
	tx := result.Transaction
	if tx.SenderPublicKey != keypair.PublicHex() {
		t.Fatalf("sender public key = %s, want the signer key", tx.SenderPublicKey)
	}

	submitted := store.Submitted()
	if len(submitted) != 1 || submitted[0].ID != tx.ID {
		t.Fatalf("pool received %d transactions, want exactly the built one", len(submitted))
	}

	journaled, err := store.GetTransaction(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("journal lookup: %v", err)
	}
	if journaled.ID != tx.ID {
		t.Fatalf("journal holds %s, want %s", journaled.ID, tx.ID)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("outbox holds %d rows, want 1", len(pending))
	}
	if pending[0].EventType != "transaction.vote.accepted" {
		t.Fatalf("outbox event type = %s", pending[0].EventType)
	}
}

func TestSubmitVoteRejectsEmptyInput(t *testing.T) {
	uc := newVoteUseCase(t, memory.NewStore(nil))

	if _, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Votes: []string{voteFor("delegate-a")},
	}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("empty secret: err = %v, want ErrInvalidRequest", err)
	}

	if _, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "a passphrase",
	}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("empty votes: err = %v, want ErrInvalidRequest", err)
	}
}

func TestSubmitVoteCredentialCheckPrecedesResolution(t *testing.T) {
	// The store has no accounts at all: a not-found would be the next failure,
	// so getting ErrInvalidCredential proves the credential check ran first.
	store := memory.NewStore(nil)
	uc := newVoteUseCase(t, store)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret:    "some passphrase",
		PublicKey: services.DeriveKeypair("another passphrase").PublicHex(),
		Votes:     []string{voteFor("delegate-a")},
	})
	if !errors.Is(err, domainerrors.ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
	if len(store.Submitted()) != 0 {
		t.Fatal("pool received a transaction for rejected credentials")
	}
}

func TestSubmitVoteExpectedPublicKeyMatch(t *testing.T) {
	store := memory.NewStore(nil)
	keypair := seedDirectAccount(store, "checked submitter")
	uc := newVoteUseCase(t, store)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret:    "checked submitter",
		PublicKey: keypair.PublicHex(),
		Votes:     []string{voteFor("delegate-a")},
	})
	if err != nil {
		t.Fatalf("SubmitVote with matching expected key: %v", err)
	}
}

func TestSubmitVoteUnknownSender(t *testing.T) {
	uc := newVoteUseCase(t, memory.NewStore(nil))

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "nobody home",
		Votes:  []string{voteFor("delegate-a")},
	})
	if !errors.Is(err, domainerrors.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestSubmitVoteSecondFactor(t *testing.T) {
	store := memory.NewStore(nil)
	keypair := services.DeriveKeypair("guarded submitter")
	store.SetAccount(entities.Account{
		Address:         services.DeriveAddress(keypair.Public),
		PublicKey:       keypair.PublicHex(),
		SecondSignature: true,
	})
	uc := newVoteUseCase(t, store)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "guarded submitter",
		Votes:  []string{voteFor("delegate-a")},
	})
	if !errors.Is(err, domainerrors.ErrMissingSecondFactor) {
		t.Fatalf("err = %v, want ErrMissingSecondFactor", err)
	}

	result, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret:       "guarded submitter",
		SecondSecret: "second passphrase",
		Votes:        []string{voteFor("delegate-a")},
	})
	if err != nil {
		t.Fatalf("SubmitVote with second secret: %v", err)
	}
	if result.Transaction.SecondSignature == "" {
		t.Fatal("accepted transaction missing second signature")
	}
}

func TestSubmitVoteDelegated(t *testing.T) {
	store := memory.NewStore(nil)
	member := seedDirectAccount(store, "group member")
	group := services.DeriveKeypair("the group")

	// The group record carries no public key yet; the pipeline must backfill
	// it from the lookup key so the transaction names the group as sender.
	groupAddress, err := services.DeriveAddressFromHex(group.PublicHex())
	if err != nil {
		t.Fatalf("DeriveAddressFromHex: %v", err)
	}
	store.SetAccount(entities.Account{
		Address:         groupAddress,
		Multisignatures: []string{member.PublicHex()},
	})
	uc := newVoteUseCase(t, store)

	result, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret:                   "group member",
		MultisigAccountPublicKey: group.PublicHex(),
		Votes:                    []string{voteFor("delegate-a")},
	})
	if err != nil {
		t.Fatalf("SubmitVote: %v", err)
	}

	tx := result.Transaction
	if tx.SenderAddress != groupAddress {
		t.Fatalf("sender address = %s, want the group address", tx.SenderAddress)
	}
	if tx.SenderPublicKey != group.PublicHex() {
		t.Fatalf("sender public key = %s, want the group key", tx.SenderPublicKey)
	}
	if tx.RequesterPublicKey != member.PublicHex() {
		t.Fatalf("requester key = %s, want the member key", tx.RequesterPublicKey)
	}

	ok, err := services.VerifyTransactionSignature(tx)
	if err != nil {
		t.Fatalf("VerifyTransactionSignature: %v", err)
	}
	if !ok {
		t.Fatal("member signature does not verify")
	}
}

func TestSubmitVoteDelegatedViolations(t *testing.T) {
	store := memory.NewStore(nil)
	seedDirectAccount(store, "group member")
	group := services.DeriveKeypair("the group")
	groupAddress, err := services.DeriveAddressFromHex(group.PublicHex())
	if err != nil {
		t.Fatalf("DeriveAddressFromHex: %v", err)
	}
	uc := newVoteUseCase(t, store)

	t.Run("malformed target key", func(t *testing.T) {
		_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
			Secret:                   "group member",
			MultisigAccountPublicKey: "zz-not-a-key",
			Votes:                    []string{voteFor("delegate-a")},
		})
		if !errors.Is(err, domainerrors.ErrInvalidRequest) {
			t.Fatalf("err = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("target unknown", func(t *testing.T) {
		_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
			Secret:                   "group member",
			MultisigAccountPublicKey: group.PublicHex(),
			Votes:                    []string{voteFor("delegate-a")},
		})
		if !errors.Is(err, domainerrors.ErrTargetNotFound) {
			t.Fatalf("err = %v, want ErrTargetNotFound", err)
		}
	})

	t.Run("target not multisig", func(t *testing.T) {
		store.SetAccount(entities.Account{Address: groupAddress, PublicKey: group.PublicHex()})
		_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
			Secret:                   "group member",
			MultisigAccountPublicKey: group.PublicHex(),
			Votes:                    []string{voteFor("delegate-a")},
		})
		if !errors.Is(err, domainerrors.ErrNotMultisigAccount) {
			t.Fatalf("err = %v, want ErrNotMultisigAccount", err)
		}
	})

	t.Run("signer outside the group", func(t *testing.T) {
		store.SetAccount(entities.Account{
			Address:         groupAddress,
			PublicKey:       group.PublicHex(),
			Multisignatures: []string{services.DeriveKeypair("someone else").PublicHex()},
		})
		_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
			Secret:                   "group member",
			MultisigAccountPublicKey: group.PublicHex(),
			Votes:                    []string{voteFor("delegate-a")},
		})
		if !errors.Is(err, domainerrors.ErrUnauthorizedSigner) {
			t.Fatalf("err = %v, want ErrUnauthorizedSigner", err)
		}
	})

	t.Run("requester unknown", func(t *testing.T) {
		store.SetAccount(entities.Account{
			Address:         groupAddress,
			PublicKey:       group.PublicHex(),
			Multisignatures: []string{services.DeriveKeypair("stranger").PublicHex()},
		})
		_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
			Secret:                   "stranger",
			MultisigAccountPublicKey: group.PublicHex(),
			Votes:                    []string{voteFor("delegate-a")},
		})
		if !errors.Is(err, domainerrors.ErrRequesterNotFound) {
			t.Fatalf("err = %v, want ErrRequesterNotFound", err)
		}
	})
}

func TestSubmitVotePoolRejection(t *testing.T) {
	store := memory.NewStore(nil)
	seedDirectAccount(store, "rejected submitter")
	store.RejectSubmissions("pool is full")
	uc := newVoteUseCase(t, store)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "rejected submitter",
		Votes:  []string{voteFor("delegate-a")},
	})
	if !errors.Is(err, domainerrors.ErrPoolRejected) {
		t.Fatalf("err = %v, want ErrPoolRejected", err)
	}
	if !strings.Contains(err.Error(), "pool is full") {
		t.Fatalf("pool reason lost: %v", err)
	}

	// A rejected transaction never reaches the journal.
	if _, journalErr := store.GetTransaction(context.Background(), "anything"); !errors.Is(journalErr, domainerrors.ErrTransactionNotFound) {
		t.Fatalf("journal lookup: %v", journalErr)
	}
}

func TestSubmitVoteBuildFailurePropagates(t *testing.T) {
	store := memory.NewStore(nil)
	seedDirectAccount(store, "malformed submitter")
	uc := newVoteUseCase(t, store)

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "malformed submitter",
		Votes:  []string{"not a vote entry"},
	})
	if !errors.Is(err, domainerrors.ErrBuildFailed) {
		t.Fatalf("err = %v, want ErrBuildFailed", err)
	}
	if len(store.Submitted()) != 0 {
		t.Fatal("pool received a transaction that failed to build")
	}
}

func TestSubmitVoteIdempotentReplay(t *testing.T) {
	store := memory.NewStore(nil)
	seedDirectAccount(store, "replaying submitter")
	uc := newVoteUseCase(t, store)

	cmd := SubmitVoteCommand{
		Secret:         "replaying submitter",
		Votes:          []string{voteFor("delegate-a")},
		IdempotencyKey: "req-1",
	}

	first, err := uc.SubmitVote(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first SubmitVote: %v", err)
	}
	second, err := uc.SubmitVote(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second SubmitVote: %v", err)
	}
	if !second.Replayed {
		t.Fatal("second submission not marked as replay")
	}
	if second.Transaction.ID != first.Transaction.ID {
		t.Fatalf("replay returned %s, want %s", second.Transaction.ID, first.Transaction.ID)
	}
	if len(store.Submitted()) != 1 {
		t.Fatalf("pool received %d transactions, want 1", len(store.Submitted()))
	}

	// Reusing the key for a different request is a conflict, not a replay.
	_, err = uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret:         "replaying submitter",
		Votes:          []string{voteFor("delegate-b")},
		IdempotencyKey: "req-1",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("err = %v, want ErrIdempotencyConflict", err)
	}
}

func TestSubmitVoteSequencerClosed(t *testing.T) {
	store := memory.NewStore(nil)
	seedDirectAccount(store, "stalled submitter")
	uc := newVoteUseCase(t, store)
	uc.Sequencer.Close()

	_, err := uc.SubmitVote(context.Background(), SubmitVoteCommand{
		Secret: "stalled submitter",
		Votes:  []string{voteFor("delegate-a")},
	})
	if !errors.Is(err, domainerrors.ErrSubmissionQueueStall) {
		t.Fatalf("err = %v, want ErrSubmissionQueueStall", err)
	}
}
