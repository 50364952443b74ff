package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
)

// SignatureScheme selects the key family the signing service signs with
type SignatureScheme string

const (
	SchemeECDSA SignatureScheme = "ecdsa" // secp256k1
	SchemeEdDSA SignatureScheme = "eddsa" // ed25519
)

// Payload bounds enforced by the signing service's request convention
const (
	ECDSAPayloadLength    = 32
	MinEdDSAPayloadLength = 32
	MaxPayloadLength      = 1232
)

// AttachedDeposit is the token amount every sub-call must carry (1 yocto unit)
const AttachedDeposit uint64 = 1

// SignRequest describes a single signing operation. Immutable once submitted.
type SignRequest struct {
	Path     string          `json:"path"`
	Payload  hexutil.Bytes   `json:"payload"`
	Scheme   SignatureScheme `json:"scheme"`
	DomainID uint64          `json:"domain_id"`
}

// ValidatePayloadLength enforces the payload size rules for the request's scheme
func (r *SignRequest) ValidatePayloadLength() error {
	n := len(r.Payload)
	switch r.Scheme {
	case SchemeECDSA:
		if n != ECDSAPayloadLength {
			return fmt.Errorf("ecdsa payload must be %d bytes, got %d", ECDSAPayloadLength, n)
		}
	case SchemeEdDSA:
		if n < MinEdDSAPayloadLength || n > MaxPayloadLength {
			return fmt.Errorf("eddsa payload must be between %d and %d bytes, got %d", MinEdDSAPayloadLength, MaxPayloadLength, n)
		}
	default:
		return fmt.Errorf("unsupported signature scheme: %q", r.Scheme)
	}
	return nil
}

// SignatureResponse is the decoded payload returned by the signing service.
// Secp256k1 signatures carry BigR/S/RecoveryID, ed25519 signatures carry Signature.
type SignatureResponse struct {
	Scheme     SignatureScheme `json:"scheme"`
	BigR       hexutil.Bytes   `json:"big_r,omitempty"`
	S          hexutil.Bytes   `json:"s,omitempty"`
	RecoveryID *uint8          `json:"recovery_id,omitempty"`
	Signature  hexutil.Bytes   `json:"signature,omitempty"`
}

// DecodeSignatureResponse strictly decodes a raw signing-service payload
func DecodeSignatureResponse(data []byte) (*SignatureResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty signature response")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var resp SignatureResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode signature response: %w", err)
	}

	switch resp.Scheme {
	case SchemeECDSA:
		if len(resp.BigR) != 32 || len(resp.S) != 32 {
			return nil, fmt.Errorf("secp256k1 signature requires 32-byte big_r and s")
		}
		if resp.RecoveryID == nil || *resp.RecoveryID > 3 {
			return nil, fmt.Errorf("secp256k1 signature requires recovery_id in [0,3]")
		}
	case SchemeEdDSA:
		if len(resp.Signature) != 64 {
			return nil, fmt.Errorf("ed25519 signature must be 64 bytes, got %d", len(resp.Signature))
		}
	default:
		return nil, fmt.Errorf("unknown signature scheme: %q", resp.Scheme)
	}

	return &resp, nil
}

// SignatureResult is the outcome of one sub-call. A failure carries no reason.
type SignatureResult struct {
	Success  bool               `json:"success"`
	Response *SignatureResponse `json:"response,omitempty"`
}

func Success(resp *SignatureResponse) SignatureResult {
	return SignatureResult{Success: true, Response: resp}
}

func Failure() SignatureResult {
	return SignatureResult{}
}

// ResultPair binds a submitted request to its outcome
type ResultPair struct {
	Request SignRequest     `json:"request"`
	Result  SignatureResult `json:"result"`
}

// ResultBatch is positionally aligned with the submitted batch
type ResultBatch []ResultPair

// Counts returns the number of successful and failed entries
func (b ResultBatch) Counts() (successful, failed int) {
	for _, p := range b {
		if p.Result.Success {
			successful++
		}
	}
	return successful, len(b) - successful
}

// SignCall is one dispatched sub-call to the signing service
type SignCall struct {
	Index     int
	Target    common.Address
	StaticGas budget.Gas
	Deposit   uint64
	Request   SignRequest
}

// IdentityState is the relay's persisted configuration
type IdentityState struct {
	SignerAccount    common.Address `json:"signer_account"`
	Owner            common.Address `json:"owner"`
	AuthorizedCaller common.Address `json:"authorized_caller"`
}
