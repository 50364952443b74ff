package types

import "github.com/ethereum/go-ethereum/common"

// RequestSignaturesPayload is the signed body of POST /signatures.
// IssuedAt is Unix seconds; the relay rejects payloads outside its replay window.
type RequestSignaturesPayload struct {
	Requests   []SignRequest `json:"requests"`
	PrepaidGas uint64        `json:"prepaid_gas"`
	Nonce      string        `json:"nonce"`
	IssuedAt   int64         `json:"issued_at"`
}

// RequestSignaturesResponse is returned once the batch has been reconciled
type RequestSignaturesResponse struct {
	RequestID  string      `json:"request_id"`
	Results    ResultBatch `json:"results"`
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
}

// UpdateIdentityPayload is the signed body of the admin endpoints
type UpdateIdentityPayload struct {
	NewIdentity common.Address `json:"new_identity"`
	Nonce       string         `json:"nonce"`
	IssuedAt    int64          `json:"issued_at"`
}

// ConfigResponse is returned by GET /config
type ConfigResponse struct {
	RelayAccount     common.Address `json:"relay_account"`
	SignerAccount    common.Address `json:"signer_account"`
	Owner            common.Address `json:"owner"`
	AuthorizedCaller common.Address `json:"authorized_caller"`
}

// ErrorResponse is the JSON body of non-2xx responses
type ErrorResponse struct {
	Error string `json:"error"`
}
