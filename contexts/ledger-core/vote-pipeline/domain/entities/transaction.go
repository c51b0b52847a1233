package entities

import "time"

type TransactionType uint8

const (
	TransactionTypeVote TransactionType = 3
)

// VoteTransaction is immutable once built and signed. Ownership passes to the
// transaction pool on submission.
type VoteTransaction struct {
	ID                 string
	Type               TransactionType
	SenderAddress      string
	SenderPublicKey    string
	RequesterPublicKey string
	Votes              []string
	Signature          string
	SecondSignature    string
	Timestamp          time.Time
}

// SigningPlan is the authorization policy engine's output: which account is
// the transaction's logical sender, which keypairs must sign, and whether the
// delegated-path requester key is attached.
type SigningPlan struct {
	SenderAccount Account
	SignerKeypair Keypair
	SecondKeypair *Keypair
	// RequesterPublicKey is set only on the delegated path and names the
	// multisignature member actually signing.
	RequesterPublicKey string
}

// Delegated reports whether the plan carries a requester distinct from the
// sender account.
func (p SigningPlan) Delegated() bool {
	return p.RequesterPublicKey != ""
}
