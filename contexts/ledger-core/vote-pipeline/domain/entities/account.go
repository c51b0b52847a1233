package entities

// Account is the read model of a ledger identity as seen by the vote
// pipeline. The account store owns persistence; this type is never written
// back.
type Account struct {
	Address            string
	PublicKey          string
	Balance            uint64
	UnconfirmedBalance uint64
	SecondSignature    bool
	SecondPublicKey    string
	Multisignatures    []string
}

// IsMultisig reports whether the account is controlled by a signer group.
func (a Account) IsMultisig() bool {
	return len(a.Multisignatures) > 0
}

// HasSigner reports whether publicKey is a member of the account's
// multisignature set.
func (a Account) HasSigner(publicKey string) bool {
	for _, member := range a.Multisignatures {
		if member == publicKey {
			return true
		}
	}
	return false
}
