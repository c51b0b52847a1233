package services

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
)

// maxVotesPerTransaction caps the votes asset of a single transaction.
const maxVotesPerTransaction = 33

var votePattern = regexp.MustCompile(`^[+-][0-9a-f]{64}$`)

// BuildVoteTransaction assembles and signs a vote transaction from an
// authorized plan. The vote list is validated here so no malformed asset is
// ever signed; every failure wraps ErrBuildFailed with the underlying
// message preserved.
func BuildVoteTransaction(
	plan entities.SigningPlan,
	votes []string,
	timestamp time.Time,
) (entities.VoteTransaction, error) {
	if err := validateVotes(votes); err != nil {
		return entities.VoteTransaction{}, fmt.Errorf("%w: %s", domainerrors.ErrBuildFailed, err.Error())
	}

	senderPublicKey := plan.SignerKeypair.PublicHex()
	if plan.Delegated() {
		senderPublicKey = plan.SenderAccount.PublicKey
	}

	tx := entities.VoteTransaction{
		Type:               entities.TransactionTypeVote,
		SenderAddress:      plan.SenderAccount.Address,
		SenderPublicKey:    senderPublicKey,
		RequesterPublicKey: plan.RequesterPublicKey,
		Votes:              append([]string(nil), votes...),
		Timestamp:          timestamp.UTC(),
	}

	unsigned, err := transactionBytes(tx, "", "")
	if err != nil {
		return entities.VoteTransaction{}, fmt.Errorf("%w: %s", domainerrors.ErrBuildFailed, err.Error())
	}
	tx.Signature = signDigest(plan.SignerKeypair, unsigned)

	if plan.SecondKeypair != nil {
		once, err := transactionBytes(tx, tx.Signature, "")
		if err != nil {
			return entities.VoteTransaction{}, fmt.Errorf("%w: %s", domainerrors.ErrBuildFailed, err.Error())
		}
		tx.SecondSignature = signDigest(*plan.SecondKeypair, once)
	}

	full, err := transactionBytes(tx, tx.Signature, tx.SecondSignature)
	if err != nil {
		return entities.VoteTransaction{}, fmt.Errorf("%w: %s", domainerrors.ErrBuildFailed, err.Error())
	}
	digest := sha256.Sum256(full)
	tx.ID = hex.EncodeToString(digest[:])
	return tx, nil
}

// VerifyTransactionSignature checks the primary signature against the sender
// or requester public key. Used by the pool adapter and tests.
func VerifyTransactionSignature(tx entities.VoteTransaction) (bool, error) {
	signerKey := tx.SenderPublicKey
	if tx.RequesterPublicKey != "" {
		signerKey = tx.RequesterPublicKey
	}
	public, err := hex.DecodeString(signerKey)
	if err != nil || len(public) != ed25519.PublicKeySize {
		return false, fmt.Errorf("malformed signer public key %q", signerKey)
	}
	signature, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return false, fmt.Errorf("malformed signature: %w", err)
	}
	unsigned, err := transactionBytes(tx, "", "")
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(unsigned)
	return ed25519.Verify(ed25519.PublicKey(public), digest[:], signature), nil
}

func validateVotes(votes []string) error {
	if len(votes) == 0 {
		return fmt.Errorf("vote list is empty")
	}
	if len(votes) > maxVotesPerTransaction {
		return fmt.Errorf("vote list exceeds %d entries", maxVotesPerTransaction)
	}
	seen := make(map[string]struct{}, len(votes))
	for _, vote := range votes {
		if !votePattern.MatchString(vote) {
			return fmt.Errorf("malformed vote entry %q", vote)
		}
		delegate := strings.TrimLeft(vote, "+-")
		if _, dup := seen[delegate]; dup {
			return fmt.Errorf("duplicate vote for delegate %s", delegate)
		}
		seen[delegate] = struct{}{}
	}
	return nil
}

// transactionBytes is the deterministic wire layout that signatures and the
// transaction ID are computed over.
func transactionBytes(tx entities.VoteTransaction, signature string, secondSignature string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(tx.Type))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(tx.Timestamp.Unix()))
	buf.Write(ts[:])

	sender, err := hex.DecodeString(tx.SenderPublicKey)
	if err != nil || len(sender) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("malformed sender public key %q", tx.SenderPublicKey)
	}
	buf.Write(sender)

	if tx.RequesterPublicKey != "" {
		requester, err := hex.DecodeString(tx.RequesterPublicKey)
		if err != nil || len(requester) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("malformed requester public key %q", tx.RequesterPublicKey)
		}
		buf.Write(requester)
	}

	buf.WriteString(strings.Join(tx.Votes, ""))

	for _, sig := range []string{signature, secondSignature} {
		if sig == "" {
			continue
		}
		raw, err := hex.DecodeString(sig)
		if err != nil {
			return nil, fmt.Errorf("malformed signature: %w", err)
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

func signDigest(keypair entities.Keypair, message []byte) string {
	digest := sha256.Sum256(message)
	return hex.EncodeToString(ed25519.Sign(keypair.Private, digest[:]))
}
