package entities

import (
	"crypto/ed25519"
	"encoding/hex"
)

// Keypair is a passphrase-derived signing pair. It lives for the duration of
// a single submission and is never persisted.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// PublicHex returns the canonical lowercase hex encoding of the public key.
func (k Keypair) PublicHex() string {
	return hex.EncodeToString(k.Public)
}
