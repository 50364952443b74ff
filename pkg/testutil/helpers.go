package testutil

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// CreateTestSigner creates a transport signer with a fresh secp256k1 key
func CreateTestSigner(t *testing.T, logger *zap.Logger) *inMemoryTransportSigner.InMemoryTransportSigner {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	return inMemoryTransportSigner.NewInMemoryTransportSigner(key, logger)
}

// CreateTestRequests creates n valid requests alternating ecdsa and eddsa
func CreateTestRequests(n int) []types.SignRequest {
	reqs := make([]types.SignRequest, n)
	for i := range reqs {
		if i%2 == 0 {
			reqs[i] = types.SignRequest{
				Path:    fmt.Sprintf("ecdsa/%d", i),
				Payload: crypto.Keccak256([]byte(fmt.Sprintf("payload-%d", i))),
				Scheme:  types.SchemeECDSA,
			}
			continue
		}
		reqs[i] = types.SignRequest{
			Path:     fmt.Sprintf("eddsa/%d", i),
			Payload:  []byte(fmt.Sprintf("%-64s", fmt.Sprintf("eddsa payload %d", i))),
			Scheme:   types.SchemeEdDSA,
			DomainID: 1,
		}
	}
	return reqs
}
