package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"votary/contexts/ledger-core/vote-pipeline/application/commands"
	"votary/contexts/ledger-core/vote-pipeline/application/queries"
	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	httptransport "votary/contexts/ledger-core/vote-pipeline/transport/http"
)

// Handler maps transport DTOs onto the pipeline's use cases.
type Handler struct {
	Votes        commands.VoteUseCase
	Accounts     queries.AccountQuery
	Transactions queries.TransactionQuery
	Logger       *slog.Logger
}

func (h Handler) SubmitVoteHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.SubmitVoteRequest,
) (httptransport.TransactionResponse, error) {
	result, err := h.Votes.SubmitVote(ctx, commands.SubmitVoteCommand{
		Secret:                   req.Secret,
		SecondSecret:             req.SecondSecret,
		PublicKey:                req.PublicKey,
		MultisigAccountPublicKey: req.MultisigAccountPublicKey,
		Votes:                    req.Votes,
		IdempotencyKey:           idempotencyKey,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	resp := mapTransaction(result.Transaction)
	resp.Replayed = result.Replayed
	return resp, nil
}

func (h Handler) GetAccountHandler(ctx context.Context, address string) (httptransport.AccountResponse, error) {
	account, err := h.Accounts.ByAddress(ctx, address)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return mapAccount(account), nil
}

func (h Handler) GetAccountByKeyHandler(ctx context.Context, publicKey string) (httptransport.AccountResponse, error) {
	account, err := h.Accounts.ByPublicKey(ctx, publicKey)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return mapAccount(account), nil
}

func (h Handler) GetTransactionHandler(ctx context.Context, id string) (httptransport.TransactionResponse, error) {
	tx, err := h.Transactions.ByID(ctx, id)
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return mapTransaction(tx), nil
}

func mapTransaction(tx entities.VoteTransaction) httptransport.TransactionResponse {
	return httptransport.TransactionResponse{
		TransactionID:      tx.ID,
		Type:               uint8(tx.Type),
		SenderAddress:      tx.SenderAddress,
		SenderPublicKey:    tx.SenderPublicKey,
		RequesterPublicKey: tx.RequesterPublicKey,
		Votes:              append([]string(nil), tx.Votes...),
		Signature:          tx.Signature,
		SecondSignature:    tx.SecondSignature,
		Timestamp:          tx.Timestamp.UTC().Format(time.RFC3339),
	}
}

func mapAccount(account entities.Account) httptransport.AccountResponse {
	return httptransport.AccountResponse{
		Address:            account.Address,
		PublicKey:          account.PublicKey,
		Balance:            account.Balance,
		UnconfirmedBalance: account.UnconfirmedBalance,
		SecondSignature:    account.SecondSignature,
		Multisignatures:    append([]string(nil), account.Multisignatures...),
	}
}
