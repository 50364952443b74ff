package mpcSigner

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

func TestStubSigningService_ECDSA(t *testing.T) {
	stub, err := NewStubSigningService()
	require.NoError(t, err)

	call := testCall(0)
	call.Request.Payload = crypto.Keccak256([]byte("hello"))

	data, err := stub.Sign(context.Background(), call)
	require.NoError(t, err)

	resp, err := types.DecodeSignatureResponse(data)
	require.NoError(t, err)
	require.NotNil(t, resp.RecoveryID)

	sig := make([]byte, 0, 65)
	sig = append(sig, resp.BigR...)
	sig = append(sig, resp.S...)
	sig = append(sig, *resp.RecoveryID)

	pub, err := crypto.SigToPub(call.Request.Payload, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(*stub.ECDSAPublicKey()), crypto.PubkeyToAddress(*pub))
}

func TestStubSigningService_EdDSA(t *testing.T) {
	stub, err := NewStubSigningService()
	require.NoError(t, err)

	call := testCall(0)
	call.Request.Scheme = types.SchemeEdDSA
	call.Request.Payload = make([]byte, 100)

	data, err := stub.Sign(context.Background(), call)
	require.NoError(t, err)

	resp, err := types.DecodeSignatureResponse(data)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(stub.EdDSAPublicKey(), call.Request.Payload, resp.Signature))
}

func TestStubSigningService_ConfiguredFailures(t *testing.T) {
	stub, err := NewStubSigningService()
	require.NoError(t, err)
	stub.FailIndex(1).FailPath("bad/path")

	_, err = stub.Sign(context.Background(), testCall(0))
	require.NoError(t, err)

	_, err = stub.Sign(context.Background(), testCall(1))
	require.Error(t, err)

	call := testCall(2)
	call.Request.Path = "bad/path"
	_, err = stub.Sign(context.Background(), call)
	require.Error(t, err)

	assert.Len(t, stub.Calls(), 3)
}

func TestStubSigningService_DelayHonoursContext(t *testing.T) {
	stub, err := NewStubSigningService()
	require.NoError(t, err)
	stub.DelayIndex(0, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = stub.Sign(ctx, testCall(0))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDeterministicStubSigningService(t *testing.T) {
	seed := []byte("0123456789abcdef-relay-dev-seed")

	a, err := NewDeterministicStubSigningService(seed)
	require.NoError(t, err)
	b, err := NewDeterministicStubSigningService(seed)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(*a.ECDSAPublicKey()), crypto.PubkeyToAddress(*b.ECDSAPublicKey()))
	assert.Equal(t, a.EdDSAPublicKey(), b.EdDSAPublicKey())

	c, err := NewDeterministicStubSigningService([]byte("another-seed-of-enough-length"))
	require.NoError(t, err)
	assert.NotEqual(t, a.EdDSAPublicKey(), c.EdDSAPublicKey())

	_, err = NewDeterministicStubSigningService([]byte("short"))
	require.Error(t, err)
}
