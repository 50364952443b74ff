package keyGenerator

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// GeneratedIdentityKey is a secp256k1 key usable as a relay owner or authorized caller
type GeneratedIdentityKey struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// GenerateIdentityKey creates a fresh secp256k1 identity key
func GenerateIdentityKey() (*GeneratedIdentityKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return &GeneratedIdentityKey{
		PrivateKey: key,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// PrivateKeyHex returns the private key as 0x-prefixed hex
func (k *GeneratedIdentityKey) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(k.PrivateKey))
}

// PublicKeyHex returns the uncompressed public key as 0x-prefixed hex
func (k *GeneratedIdentityKey) PublicKeyHex() string {
	return hexutil.Encode(crypto.FromECDSAPub(&k.PrivateKey.PublicKey))
}

// PublicKeyHexUnprefixed returns the public key without the 0x04 prefix (64 bytes)
func (k *GeneratedIdentityKey) PublicKeyHexUnprefixed() string {
	return hexutil.Encode(crypto.FromECDSAPub(&k.PrivateKey.PublicKey)[1:])
}
