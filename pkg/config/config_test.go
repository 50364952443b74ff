package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *RelayServerConfig {
	return &RelayServerConfig{
		RelayAccount:     "0x1000000000000000000000000000000000000001",
		Port:             8080,
		ChainID:          ChainId_EthereumSepolia,
		SignerAccount:    "0x2000000000000000000000000000000000000002",
		Owner:            "0x3000000000000000000000000000000000000003",
		AuthorizedCaller: "0x4000000000000000000000000000000000000004",
		SignerURL:        "http://localhost:7070",
		Persistence:      PersistenceConfig{Type: PersistenceTypeMemory},
	}
}

func TestRelayServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *RelayServerConfig)
		expectedErr []string
	}{
		{
			name:   "valid",
			mutate: func(c *RelayServerConfig) {},
		},
		{
			name:        "missing relay account",
			mutate:      func(c *RelayServerConfig) { c.RelayAccount = "" },
			expectedErr: []string{"relayAccount"},
		},
		{
			name:        "bad owner address",
			mutate:      func(c *RelayServerConfig) { c.Owner = "not-an-address" },
			expectedErr: []string{"owner", "invalid address format"},
		},
		{
			name:        "port out of range",
			mutate:      func(c *RelayServerConfig) { c.Port = 70000 },
			expectedErr: []string{"port"},
		},
		{
			name:        "unsupported chain",
			mutate:      func(c *RelayServerConfig) { c.ChainID = 42 },
			expectedErr: []string{"chainId"},
		},
		{
			name:        "missing signer url",
			mutate:      func(c *RelayServerConfig) { c.SignerURL = "" },
			expectedErr: []string{"signerUrl"},
		},
		{
			name: "stub signer needs no url",
			mutate: func(c *RelayServerConfig) {
				c.SignerURL = ""
				c.SignerStub = true
			},
		},
		{
			name: "short stub seed",
			mutate: func(c *RelayServerConfig) {
				c.SignerStub = true
				c.SignerStubSeed = "short"
			},
			expectedErr: []string{"signerStubSeed"},
		},
		{
			name: "non-hex stub seed",
			mutate: func(c *RelayServerConfig) {
				c.SignerStub = true
				c.SignerStubSeed = "sixteen-chars-ok"
			},
			expectedErr: []string{"signerStubSeed", "must be hex"},
		},
		{
			name: "stub seed under 16 bytes",
			mutate: func(c *RelayServerConfig) {
				c.SignerStub = true
				c.SignerStubSeed = "0x00112233445566778899aabbccddee"
			},
			expectedErr: []string{"signerStubSeed", "at least 16 bytes"},
		},
		{
			name: "16 byte hex stub seed",
			mutate: func(c *RelayServerConfig) {
				c.SignerStub = true
				c.SignerStubSeed = "00112233445566778899aabbccddeeff"
			},
		},
		{
			name:        "relative signer url",
			mutate:      func(c *RelayServerConfig) { c.SignerURL = "/sign" },
			expectedErr: []string{"must be an absolute URL"},
		},
		{
			name:        "badger without data path",
			mutate:      func(c *RelayServerConfig) { c.Persistence.Type = PersistenceTypeBadger },
			expectedErr: []string{"persistence.dataPath"},
		},
		{
			name: "redis with bad db",
			mutate: func(c *RelayServerConfig) {
				c.Persistence = PersistenceConfig{Type: PersistenceTypeRedis, RedisAddress: "localhost:6379", RedisDB: 16}
			},
			expectedErr: []string{"persistence.redisDB"},
		},
		{
			name:        "unknown persistence",
			mutate:      func(c *RelayServerConfig) { c.Persistence.Type = "postgres" },
			expectedErr: []string{"persistence.type"},
		},
		{
			name: "errors are aggregated",
			mutate: func(c *RelayServerConfig) {
				c.RelayAccount = ""
				c.Port = 0
				c.SignerRPS = -1
			},
			expectedErr: []string{"relayAccount", "port", "signerRps"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.expectedErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.expectedErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestRelayServerConfig_ValidateFillsDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ChainName_EthereumSepolia, cfg.ChainName)
	assert.Equal(t, 30*time.Second, cfg.SignTimeout)

	cfg = validConfig()
	cfg.SignTimeout = time.Second
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.SignTimeout)
}

func TestRelayServerConfig_StubSeedBytes(t *testing.T) {
	cfg := validConfig()
	cfg.SignerStubSeed = "0x00112233445566778899aabbccddeeff"
	prefixed, err := cfg.StubSeedBytes()
	require.NoError(t, err)
	require.Len(t, prefixed, 16)
	assert.Equal(t, byte(0xff), prefixed[15])

	cfg.SignerStubSeed = "00112233445566778899aabbccddeeff"
	bare, err := cfg.StubSeedBytes()
	require.NoError(t, err)
	assert.Equal(t, prefixed, bare)

	cfg.SignerStubSeed = "0x0g112233445566778899aabbccddeeff"
	_, err = cfg.StubSeedBytes()
	require.Error(t, err)
}

func TestGetSignTimeoutForChain(t *testing.T) {
	for _, id := range GetSupportedChainIDs() {
		assert.Positive(t, GetSignTimeoutForChain(id))
	}
	assert.Equal(t, GetSignTimeoutForChain(ChainId_EthereumMainnet), GetSignTimeoutForChain(ChainId(999)))
}
