package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for relay server configuration
const (
	EnvRelayAccount          = "RELAY_ACCOUNT"
	EnvRelayPort             = "RELAY_PORT"
	EnvRelayChainID          = "RELAY_CHAIN_ID"
	EnvRelaySignerURL        = "RELAY_SIGNER_URL"
	EnvRelaySignerAccount    = "RELAY_SIGNER_ACCOUNT"
	EnvRelayOwner            = "RELAY_OWNER"
	EnvRelayAuthorizedCaller = "RELAY_AUTHORIZED_CALLER"
	EnvRelaySignerRPS        = "RELAY_SIGNER_RPS"
	EnvRelaySignTimeout      = "RELAY_SIGN_TIMEOUT"
	EnvRelaySignerStub       = "RELAY_SIGNER_STUB"
	EnvRelaySignerStubSeed   = "RELAY_SIGNER_STUB_SEED"
	EnvRelayVerbose          = "RELAY_VERBOSE"

	EnvRelayPersistenceType = "RELAY_PERSISTENCE_TYPE"
	EnvRelayDataPath        = "RELAY_DATA_PATH"
	EnvRelayRedisAddress    = "RELAY_REDIS_ADDRESS"
	EnvRelayRedisPassword   = "RELAY_REDIS_PASSWORD"
	EnvRelayRedisDB         = "RELAY_REDIS_DB"
	EnvRelayRedisKeyPrefix  = "RELAY_REDIS_KEY_PREFIX"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// GetSignTimeoutForChain returns the default per-sub-call timeout for a chain.
// Threshold signing on mainnet waits on more participants than on test networks.
func GetSignTimeoutForChain(chainId ChainId) time.Duration {
	switch chainId {
	case ChainId_EthereumMainnet:
		return 60 * time.Second
	case ChainId_EthereumSepolia:
		return 30 * time.Second
	case ChainId_EthereumAnvil:
		return 5 * time.Second
	default:
		return 60 * time.Second
	}
}

// GetSupportedChainIDs returns all supported chain IDs
func GetSupportedChainIDs() []ChainId {
	return []ChainId{
		ChainId_EthereumMainnet,
		ChainId_EthereumSepolia,
		ChainId_EthereumAnvil,
	}
}

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (sepolia), %d (anvil)",
		ChainId_EthereumMainnet, ChainId_EthereumSepolia, ChainId_EthereumAnvil)
}

type PersistenceType string

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// PersistenceConfig selects and configures the identity state backend
type PersistenceConfig struct {
	Type PersistenceType `json:"type"`

	// badger
	DataPath string `json:"data_path,omitempty"`

	// redis
	RedisAddress   string `json:"redis_address,omitempty"`
	RedisPassword  string `json:"-"`
	RedisDB        int    `json:"redis_db,omitempty"`
	RedisKeyPrefix string `json:"redis_key_prefix,omitempty"`
}

func (pc *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch pc.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if pc.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if pc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for redis persistence"))
		}
		if pc.RedisDB < 0 || pc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDB"), pc.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), pc.Type,
			[]string{string(PersistenceTypeMemory), string(PersistenceTypeBadger), string(PersistenceTypeRedis)}))
	}
	return allErrors
}

// RelayServerConfig represents the complete configuration for a relay server
type RelayServerConfig struct {
	// Relay identity
	RelayAccount string `json:"relay_account"`
	Port         int    `json:"port"`

	// Chain configuration
	ChainID   ChainId   `json:"chain_id"`
	ChainName ChainName `json:"chain_name"`

	// Seed identities, used only when no identity state has been persisted
	SignerAccount    string `json:"signer_account"`
	Owner            string `json:"owner"`
	AuthorizedCaller string `json:"authorized_caller"`

	// Signing service
	SignerURL   string        `json:"signer_url"`
	SignerRPS   float64       `json:"signer_rps"`
	SignTimeout time.Duration `json:"sign_timeout"`
	SignerStub  bool          `json:"signer_stub"`
	// SignerStubSeed makes the stub's keys deterministic. Empty means random keys.
	SignerStubSeed string `json:"-"`

	Persistence PersistenceConfig `json:"persistence"`

	// Operational settings
	Debug   bool `json:"debug"`
	Verbose bool `json:"verbose"`
}

// Validate validates the relay server configuration, reporting every problem
// at once. It also fills ChainName and a chain default SignTimeout.
func (c *RelayServerConfig) Validate() error {
	var allErrors field.ErrorList

	for _, addr := range []struct {
		name  string
		value string
	}{
		{"relayAccount", c.RelayAccount},
		{"signerAccount", c.SignerAccount},
		{"owner", c.Owner},
		{"authorizedCaller", c.AuthorizedCaller},
	} {
		allErrors = append(allErrors, validateAddress(field.NewPath(addr.name), addr.value)...)
	}

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "must be between 1-65535"))
	}

	chainName, exists := ChainIdToName[c.ChainID]
	if !exists {
		allErrors = append(allErrors, field.Invalid(field.NewPath("chainId"), c.ChainID,
			fmt.Sprintf("unsupported chain ID. Supported: %s", GetSupportedChainIDsString())))
	}

	if !c.SignerStub {
		if c.SignerURL == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("signerUrl"), "signerUrl is required unless the stub signer is enabled"))
		} else if u, err := url.Parse(c.SignerURL); err != nil || u.Scheme == "" || u.Host == "" {
			allErrors = append(allErrors, field.Invalid(field.NewPath("signerUrl"), c.SignerURL, "must be an absolute URL"))
		}
	}
	if c.SignerStubSeed != "" {
		if _, err := c.StubSeedBytes(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("signerStubSeed"), "<redacted>", err.Error()))
		}
	}
	if c.SignerRPS < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("signerRps"), c.SignerRPS, "cannot be negative"))
	}
	if c.SignTimeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("signTimeout"), c.SignTimeout.String(), "cannot be negative"))
	}

	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}

	c.ChainName = chainName
	if c.SignTimeout == 0 {
		c.SignTimeout = GetSignTimeoutForChain(c.ChainID)
	}
	return nil
}

// MinStubSeedBytes is the shortest accepted stub seed after hex decoding
const MinStubSeedBytes = 16

// StubSeedBytes hex-decodes SignerStubSeed. The 0x prefix is optional.
func (c *RelayServerConfig) StubSeedBytes() ([]byte, error) {
	s := c.SignerStubSeed
	if !has0xPrefix(s) {
		s = "0x" + s
	}
	seed, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("must be hex: %w", err)
	}
	if len(seed) < MinStubSeedBytes {
		return nil, fmt.Errorf("must decode to at least %d bytes, got %d", MinStubSeedBytes, len(seed))
	}
	return seed, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func validateAddress(path *field.Path, value string) field.ErrorList {
	if value == "" {
		return field.ErrorList{field.Required(path, fmt.Sprintf("%s is required", path.String()))}
	}
	if !common.IsHexAddress(value) {
		return field.ErrorList{field.Invalid(path, value, "invalid address format")}
	}
	return nil
}
