package keyGenerator

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner/inMemoryTransportSigner"
)

func Test_GenerateIdentityKey(t *testing.T) {
	t.Run("Should generate distinct keys", func(t *testing.T) {
		a, err := GenerateIdentityKey()
		require.NoError(t, err)
		b, err := GenerateIdentityKey()
		require.NoError(t, err)
		assert.NotEqual(t, a.Address, b.Address)
	})

	t.Run("Should encode keys as hex", func(t *testing.T) {
		k, err := GenerateIdentityKey()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(k.PrivateKeyHex(), "0x"))
		assert.Len(t, k.PrivateKeyHex(), 2+64)
		assert.True(t, strings.HasPrefix(k.PublicKeyHex(), "0x04"))
		assert.Len(t, k.PublicKeyHex(), 2+130)
		assert.Len(t, k.PublicKeyHexUnprefixed(), 2+128)
		assert.Equal(t, k.PublicKeyHex()[4:], k.PublicKeyHexUnprefixed()[2:])
	})

	t.Run("Should round trip through the transport signer", func(t *testing.T) {
		k, err := GenerateIdentityKey()
		require.NoError(t, err)

		signer, err := inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromHex(k.PrivateKeyHex(), zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, k.Address, signer.Address())
		assert.Equal(t, crypto.PubkeyToAddress(k.PrivateKey.PublicKey), signer.Address())
	})
}
