package services

import (
	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
)

// AuthorizationInput carries the derived credentials and the account records
// the use case resolved for the requested path. Accounts are nil when the
// store reported no record for the derived address.
type AuthorizationInput struct {
	SignerKeypair entities.Keypair
	SecondKeypair *entities.Keypair
	// TargetPublicKey names the multisignature account the vote is cast for.
	// Empty, or equal to the signer's own public key, selects the direct path.
	TargetPublicKey  string
	SenderAccount    *entities.Account
	TargetAccount    *entities.Account
	RequesterAccount *entities.Account
}

// PolicyEngine decides whether the signer may cast the requested vote and
// which keypairs must sign. It is pure: all account state arrives resolved,
// and no transaction is observable before a plan is produced.
type PolicyEngine struct {
	// VerifySecondPublicKey cross-checks a freshly derived second keypair
	// against the account's registered second public key. Off by default:
	// the derived key is trusted as-is, which permits first-time
	// second-factor registration.
	VerifySecondPublicKey bool
}

// Delegated reports whether the request selects the delegated path for the
// given signer keypair.
func (p PolicyEngine) Delegated(in AuthorizationInput) bool {
	return in.TargetPublicKey != "" && in.TargetPublicKey != in.SignerKeypair.PublicHex()
}

// Authorize evaluates the request against the resolved accounts and returns a
// signing plan, or the first policy violation encountered.
func (p PolicyEngine) Authorize(in AuthorizationInput) (entities.SigningPlan, error) {
	if p.Delegated(in) {
		return p.authorizeDelegated(in)
	}
	return p.authorizeDirect(in)
}

func (p PolicyEngine) authorizeDirect(in AuthorizationInput) (entities.SigningPlan, error) {
	if in.SenderAccount == nil {
		return entities.SigningPlan{}, domainerrors.ErrAccountNotFound
	}
	account := *in.SenderAccount

	var second *entities.Keypair
	if account.SecondSignature {
		if in.SecondKeypair == nil {
			return entities.SigningPlan{}, domainerrors.ErrMissingSecondFactor
		}
		if err := p.checkSecondKey(account, *in.SecondKeypair); err != nil {
			return entities.SigningPlan{}, err
		}
		second = in.SecondKeypair
	}

	return entities.SigningPlan{
		SenderAccount: account,
		SignerKeypair: in.SignerKeypair,
		SecondKeypair: second,
	}, nil
}

func (p PolicyEngine) authorizeDelegated(in AuthorizationInput) (entities.SigningPlan, error) {
	if in.TargetAccount == nil {
		return entities.SigningPlan{}, domainerrors.ErrTargetNotFound
	}
	target := *in.TargetAccount
	if !target.IsMultisig() {
		return entities.SigningPlan{}, domainerrors.ErrNotMultisigAccount
	}

	if in.RequesterAccount == nil {
		return entities.SigningPlan{}, domainerrors.ErrRequesterNotFound
	}
	requester := *in.RequesterAccount

	requesterKey := in.SignerKeypair.PublicHex()
	if !target.HasSigner(requesterKey) {
		return entities.SigningPlan{}, domainerrors.ErrUnauthorizedSigner
	}
	// The requester must be a distinct authorized member, never the
	// group-controlled account itself.
	if requesterKey == target.PublicKey {
		return entities.SigningPlan{}, domainerrors.ErrInvalidRequester
	}

	var second *entities.Keypair
	if requester.SecondSignature {
		if in.SecondKeypair == nil {
			return entities.SigningPlan{}, domainerrors.ErrMissingSecondFactor
		}
		if err := p.checkSecondKey(requester, *in.SecondKeypair); err != nil {
			return entities.SigningPlan{}, err
		}
		second = in.SecondKeypair
	}

	return entities.SigningPlan{
		SenderAccount:      target,
		SignerKeypair:      in.SignerKeypair,
		SecondKeypair:      second,
		RequesterPublicKey: requesterKey,
	}, nil
}

func (p PolicyEngine) checkSecondKey(account entities.Account, second entities.Keypair) error {
	if !p.VerifySecondPublicKey || account.SecondPublicKey == "" {
		return nil
	}
	if second.PublicHex() != account.SecondPublicKey {
		return domainerrors.ErrInvalidSecondFactor
	}
	return nil
}
