package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRequest_ValidatePayloadLength(t *testing.T) {
	tests := []struct {
		name    string
		req     SignRequest
		wantErr string
	}{
		{"ecdsa 32 bytes", SignRequest{Scheme: SchemeECDSA, Payload: make([]byte, 32)}, ""},
		{"ecdsa short", SignRequest{Scheme: SchemeECDSA, Payload: make([]byte, 31)}, "ecdsa payload must be 32 bytes"},
		{"ecdsa long", SignRequest{Scheme: SchemeECDSA, Payload: make([]byte, 33)}, "ecdsa payload must be 32 bytes"},
		{"eddsa minimum", SignRequest{Scheme: SchemeEdDSA, Payload: make([]byte, 32)}, ""},
		{"eddsa maximum", SignRequest{Scheme: SchemeEdDSA, Payload: make([]byte, MaxPayloadLength)}, ""},
		{"eddsa oversized", SignRequest{Scheme: SchemeEdDSA, Payload: make([]byte, MaxPayloadLength+1)}, "eddsa payload must be between"},
		{"eddsa undersized", SignRequest{Scheme: SchemeEdDSA, Payload: make([]byte, 8)}, "eddsa payload must be between"},
		{"unknown scheme", SignRequest{Scheme: "rsa", Payload: make([]byte, 32)}, "unsupported signature scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.ValidatePayloadLength()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeSignatureResponse(t *testing.T) {
	r32 := "0x" + string(bytes.Repeat([]byte("ab"), 32))
	sig64 := "0x" + string(bytes.Repeat([]byte("cd"), 64))

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"secp256k1", `{"scheme":"ecdsa","big_r":"` + r32 + `","s":"` + r32 + `","recovery_id":1}`, false},
		{"ed25519", `{"scheme":"eddsa","signature":"` + sig64 + `"}`, false},
		{"empty", ``, true},
		{"not json", `signature`, true},
		{"unknown field", `{"scheme":"eddsa","signature":"` + sig64 + `","extra":1}`, true},
		{"missing recovery id", `{"scheme":"ecdsa","big_r":"` + r32 + `","s":"` + r32 + `"}`, true},
		{"short ed25519", `{"scheme":"eddsa","signature":"0x00"}`, true},
		{"unknown scheme", `{"scheme":"bls"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeSignatureResponse([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, resp)
		})
	}
}

func TestResultBatch_Counts(t *testing.T) {
	batch := ResultBatch{
		{Result: Success(&SignatureResponse{Scheme: SchemeEdDSA})},
		{Result: Failure()},
		{Result: Success(&SignatureResponse{Scheme: SchemeEdDSA})},
	}

	successful, failed := batch.Counts()
	assert.Equal(t, 2, successful)
	assert.Equal(t, 1, failed)

	successful, failed = ResultBatch{}.Counts()
	assert.Zero(t, successful)
	assert.Zero(t, failed)
}
