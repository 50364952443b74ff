// Package persistencetest holds the behaviour every IRelayPersistence backend
// must share. Backend packages call RunSuite from their own tests.
package persistencetest

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// Factory opens a fresh, empty backend for one subtest
type Factory func(t *testing.T) persistence.IRelayPersistence

// SampleIdentityState returns a fully populated identity state
func SampleIdentityState() *types.IdentityState {
	return &types.IdentityState{
		SignerAccount:    common.HexToAddress("0x00000000000000000000000000000000000051a9"),
		Owner:            common.HexToAddress("0x000000000000000000000000000000000000a11c"),
		AuthorizedCaller: common.HexToAddress("0x000000000000000000000000000000000000ca11"),
	}
}

// RunSuite runs the shared backend behaviour against newBackend
func RunSuite(t *testing.T, newBackend Factory) {
	t.Run("IdentityState_SaveAndLoad", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		state := SampleIdentityState()
		require.NoError(t, p.SaveIdentityState(state))

		loaded, err := p.LoadIdentityState()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, state, loaded)
	})

	t.Run("IdentityState_Overwrite", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		state := SampleIdentityState()
		require.NoError(t, p.SaveIdentityState(state))

		state.AuthorizedCaller = common.HexToAddress("0x000000000000000000000000000000000000beef")
		require.NoError(t, p.SaveIdentityState(state))

		loaded, err := p.LoadIdentityState()
		require.NoError(t, err)
		assert.Equal(t, state.AuthorizedCaller, loaded.AuthorizedCaller)
	})

	t.Run("IdentityState_NotFound", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		loaded, err := p.LoadIdentityState()
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("IdentityState_Nil", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		err := p.SaveIdentityState(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil IdentityState")
	})

	t.Run("IdentityState_NoAliasing", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		state := SampleIdentityState()
		require.NoError(t, p.SaveIdentityState(state))
		state.Owner = common.Address{}

		loaded, err := p.LoadIdentityState()
		require.NoError(t, err)
		assert.Equal(t, SampleIdentityState().Owner, loaded.Owner)

		loaded.Owner = common.Address{}
		again, err := p.LoadIdentityState()
		require.NoError(t, err)
		assert.Equal(t, SampleIdentityState().Owner, again.Owner)
	})

	t.Run("NodeState", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		loaded, err := p.LoadNodeState()
		require.NoError(t, err)
		assert.Nil(t, loaded)

		state := &persistence.NodeState{
			RelayAccount:  SampleIdentityState().SignerAccount.Hex(),
			NodeStartTime: time.Now().Unix(),
		}
		require.NoError(t, p.SaveNodeState(state))

		loaded, err = p.LoadNodeState()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, state, loaded)

		require.Error(t, p.SaveNodeState(nil))
	})

	t.Run("Close", func(t *testing.T) {
		p := newBackend(t)

		require.NoError(t, p.HealthCheck())
		require.NoError(t, p.Close())
		require.NoError(t, p.Close(), "close must be idempotent")

		require.Error(t, p.HealthCheck())
		require.Error(t, p.SaveIdentityState(SampleIdentityState()))
		_, err := p.LoadIdentityState()
		require.Error(t, err)
		_, err = p.LoadNodeState()
		require.Error(t, err)
	})

	t.Run("ThreadSafety", func(t *testing.T) {
		p := newBackend(t)
		defer func() { _ = p.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				state := SampleIdentityState()
				state.AuthorizedCaller = common.BigToAddress(big.NewInt(int64(i + 1)))
				assert.NoError(t, p.SaveIdentityState(state))
			}(i)
			go func() {
				defer wg.Done()
				_, err := p.LoadIdentityState()
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		loaded, err := p.LoadIdentityState()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, SampleIdentityState().Owner, loaded.Owner)
	})
}
