package queries

import (
	"context"
	"strings"

	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

// TransactionQuery reads accepted transactions back from the journal.
type TransactionQuery struct {
	Journal ports.TransactionJournal
}

func (q TransactionQuery) ByID(ctx context.Context, id string) (entities.VoteTransaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.VoteTransaction{}, domainerrors.ErrInvalidRequest
	}
	return q.Journal.GetTransaction(ctx, id)
}
