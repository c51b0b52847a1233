package services

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// addressPrefix marks votary ledger addresses.
const addressPrefix = "V"

// DeriveAddress maps a public key to its canonical address: the base58
// encoding of the first 20 bytes of the key's SHA-256 digest, prefixed.
// Deterministic and total.
func DeriveAddress(publicKey ed25519.PublicKey) string {
	digest := sha256.Sum256(publicKey)
	return addressPrefix + base58.Encode(digest[:20])
}

// DeriveAddressFromHex decodes a hex-encoded public key and derives its
// address. It fails on malformed or wrongly sized keys.
func DeriveAddressFromHex(publicKeyHex string) (string, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return "", fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return DeriveAddress(ed25519.PublicKey(raw)), nil
}
