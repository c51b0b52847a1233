package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitVoteRequest struct {
	Secret                   string   `json:"secret"`
	SecondSecret             string   `json:"second_secret,omitempty"`
	PublicKey                string   `json:"public_key,omitempty"`
	MultisigAccountPublicKey string   `json:"multisig_account_public_key,omitempty"`
	Votes                    []string `json:"votes"`
}

type TransactionResponse struct {
	TransactionID      string   `json:"transaction_id"`
	Type               uint8    `json:"type"`
	SenderAddress      string   `json:"sender_address"`
	SenderPublicKey    string   `json:"sender_public_key"`
	RequesterPublicKey string   `json:"requester_public_key,omitempty"`
	Votes              []string `json:"votes"`
	Signature          string   `json:"signature"`
	SecondSignature    string   `json:"second_signature,omitempty"`
	Timestamp          string   `json:"timestamp"`
	Replayed           bool     `json:"replayed,omitempty"`
}

type AccountResponse struct {
	Address            string   `json:"address"`
	PublicKey          string   `json:"public_key,omitempty"`
	Balance            uint64   `json:"balance"`
	UnconfirmedBalance uint64   `json:"unconfirmed_balance"`
	SecondSignature    bool     `json:"second_signature"`
	Multisignatures    []string `json:"multisignatures,omitempty"`
}
