package errors

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid vote submission request")
	ErrInvalidCredential    = errors.New("supplied public key does not match derived keypair")
	ErrMissingSecondFactor  = errors.New("second passphrase is required for this account")
	ErrInvalidSecondFactor  = errors.New("derived second public key does not match the registered one")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTargetNotFound       = errors.New("multisignature account not found")
	ErrRequesterNotFound    = errors.New("requester account not found")
	ErrNotMultisigAccount   = errors.New("account is not a multisignature account")
	ErrUnauthorizedSigner   = errors.New("requester is not a member of the multisignature group")
	ErrInvalidRequester     = errors.New("requester must be distinct from the multisignature account")
	ErrBuildFailed          = errors.New("vote transaction build failed")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrPoolRejected         = errors.New("transaction pool rejected the transaction")
	ErrIdempotencyConflict  = errors.New("idempotency key conflict")
	ErrSubmissionQueueStall = errors.New("submission sequencer is not accepting work")
)
