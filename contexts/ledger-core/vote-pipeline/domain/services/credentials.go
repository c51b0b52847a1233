package services

import (
	"crypto/ed25519"
	"crypto/sha256"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
)

// DeriveKeypair turns a passphrase into a deterministic ed25519 keypair. The
// seed is the SHA-256 digest of the UTF-8 passphrase bytes, so the same
// passphrase always yields the same keypair. Pure; no side effects.
func DeriveKeypair(secret string) entities.Keypair {
	seed := sha256.Sum256([]byte(secret))
	private := ed25519.NewKeyFromSeed(seed[:])
	return entities.Keypair{
		Public:  private.Public().(ed25519.PublicKey),
		Private: private,
	}
}
