package mpcSigner

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// StubSigningService signs locally. Used by tests and by the server's dev mode.
type StubSigningService struct {
	ecdsaKey   *ecdsa.PrivateKey
	eddsaKey   ed25519.PrivateKey
	mu         sync.RWMutex
	failIndex  map[int]bool
	failPath   map[string]bool
	delayIndex map[int]time.Duration
	delayPath  map[string]time.Duration
	calls      []types.SignCall
}

// NewStubSigningService creates a stub with freshly generated keys
func NewStubSigningService() (*StubSigningService, error) {
	ecdsaKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	_, eddsaKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return newStub(ecdsaKey, eddsaKey), nil
}

// NewDeterministicStubSigningService derives both keys from seed with HKDF so
// the stub's verification keys survive restarts.
func NewDeterministicStubSigningService(seed []byte) (*StubSigningService, error) {
	if len(seed) < 16 {
		return nil, fmt.Errorf("stub seed must be at least 16 bytes, got %d", len(seed))
	}

	ecdsaSeed, err := deriveKeyMaterial(seed, "sigrelay-stub-secp256k1")
	if err != nil {
		return nil, err
	}
	ecdsaKey, err := crypto.ToECDSA(ecdsaSeed)
	if err != nil {
		return nil, fmt.Errorf("derived secp256k1 key is invalid: %w", err)
	}

	eddsaSeed, err := deriveKeyMaterial(seed, "sigrelay-stub-ed25519")
	if err != nil {
		return nil, err
	}

	return newStub(ecdsaKey, ed25519.NewKeyFromSeed(eddsaSeed)), nil
}

func deriveKeyMaterial(seed []byte, info string) ([]byte, error) {
	out := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(info)), out); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return out, nil
}

func newStub(ecdsaKey *ecdsa.PrivateKey, eddsaKey ed25519.PrivateKey) *StubSigningService {
	return &StubSigningService{
		ecdsaKey:   ecdsaKey,
		eddsaKey:   eddsaKey,
		failIndex:  make(map[int]bool),
		failPath:   make(map[string]bool),
		delayIndex: make(map[int]time.Duration),
		delayPath:  make(map[string]time.Duration),
	}
}

// FailIndex makes the call at dispatch index i fail
func (s *StubSigningService) FailIndex(i int) *StubSigningService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failIndex[i] = true
	return s
}

// FailPath makes every call for the given derivation path fail
func (s *StubSigningService) FailPath(path string) *StubSigningService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPath[path] = true
	return s
}

// DelayIndex holds the call at index i for d before answering
func (s *StubSigningService) DelayIndex(i int, d time.Duration) *StubSigningService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delayIndex[i] = d
	return s
}

// DelayPath holds every call for the given derivation path for d
func (s *StubSigningService) DelayPath(path string, d time.Duration) *StubSigningService {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delayPath[path] = d
	return s
}

// ECDSAPublicKey returns the secp256k1 verification key
func (s *StubSigningService) ECDSAPublicKey() *ecdsa.PublicKey {
	return &s.ecdsaKey.PublicKey
}

// EdDSAPublicKey returns the ed25519 verification key
func (s *StubSigningService) EdDSAPublicKey() ed25519.PublicKey {
	return s.eddsaKey.Public().(ed25519.PublicKey)
}

// Calls returns a copy of every call received so far, in arrival order
func (s *StubSigningService) Calls() []types.SignCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SignCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *StubSigningService) Sign(ctx context.Context, call *types.SignCall) ([]byte, error) {
	if call == nil {
		return nil, fmt.Errorf("sign call cannot be nil")
	}

	s.mu.Lock()
	s.calls = append(s.calls, *call)
	fail := s.failIndex[call.Index] || s.failPath[call.Request.Path]
	delay := s.delayIndex[call.Index]
	if d, ok := s.delayPath[call.Request.Path]; ok {
		delay = d
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fail {
		return nil, errors.Errorf("stub configured to fail call %d (path %q)", call.Index, call.Request.Path)
	}

	var resp *types.SignatureResponse
	switch call.Request.Scheme {
	case types.SchemeECDSA:
		sig, err := crypto.Sign(call.Request.Payload, s.ecdsaKey)
		if err != nil {
			return nil, errors.Wrap(err, "secp256k1 signing failed")
		}
		v := sig[64]
		resp = &types.SignatureResponse{
			Scheme:     types.SchemeECDSA,
			BigR:       sig[:32],
			S:          sig[32:64],
			RecoveryID: &v,
		}
	case types.SchemeEdDSA:
		resp = &types.SignatureResponse{
			Scheme:    types.SchemeEdDSA,
			Signature: ed25519.Sign(s.eddsaKey, call.Request.Payload),
		}
	default:
		return nil, errors.Errorf("unsupported scheme %q", call.Request.Scheme)
	}

	return json.Marshal(resp)
}
