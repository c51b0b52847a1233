package queries

import (
	"context"
	"fmt"
	"strings"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	"votary/contexts/ledger-core/vote-pipeline/domain/services"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

// AccountQuery serves read-only account lookups against the ledger store.
type AccountQuery struct {
	Accounts ports.AccountStore
}

func (q AccountQuery) ByAddress(ctx context.Context, address string) (entities.Account, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return entities.Account{}, domainerrors.ErrInvalidRequest
	}
	return q.Accounts.GetByAddress(ctx, address)
}

// ByPublicKey converts the public key through the deterministic address
// codec, then looks the account up by address.
func (q AccountQuery) ByPublicKey(ctx context.Context, publicKeyHex string) (entities.Account, error) {
	address, err := services.DeriveAddressFromHex(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return entities.Account{}, fmt.Errorf("%w: %s", domainerrors.ErrInvalidRequest, err.Error())
	}
	account, err := q.Accounts.GetByAddress(ctx, address)
	if err != nil {
		return entities.Account{}, err
	}
	if account.PublicKey == "" {
		account.PublicKey = strings.ToLower(strings.TrimSpace(publicKeyHex))
	}
	return account, nil
}
