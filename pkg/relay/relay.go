package relay

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/clients/mpcSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// Config holds the relay's own account and the identities used to seed a
// fresh deployment. Seeds are ignored once identity state has been persisted.
type Config struct {
	RelayAccount common.Address

	SignerAccount    common.Address
	Owner            common.Address
	AuthorizedCaller common.Address

	Schedule budget.Schedule
	// SignTimeout bounds each sub-call. Zero means sub-calls are unbounded.
	SignTimeout time.Duration
}

// Relay admits signature batches, fans them out to the signing service and
// reconciles the results.
type Relay struct {
	relayAccount common.Address
	schedule     budget.Schedule
	signTimeout  time.Duration

	identities *identityStore
	signer     mpcSigner.ISigningService
	logger     *zap.Logger
}

// NewRelay builds a relay, loading identity state from store or seeding it
// from cfg when the store is empty.
func NewRelay(
	cfg *Config,
	signer mpcSigner.ISigningService,
	store persistence.IRelayPersistence,
	logger *zap.Logger,
) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if signer == nil {
		return nil, fmt.Errorf("signing service is required")
	}
	if store == nil {
		return nil, fmt.Errorf("persistence is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.RelayAccount == (common.Address{}) {
		return nil, fmt.Errorf("relay account is required")
	}

	schedule := cfg.Schedule
	if schedule == (budget.Schedule{}) {
		schedule = budget.DefaultSchedule
	}

	identities, err := loadIdentityStore(store, &types.IdentityState{
		SignerAccount:    cfg.SignerAccount,
		Owner:            cfg.Owner,
		AuthorizedCaller: cfg.AuthorizedCaller,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Relay{
		relayAccount: cfg.RelayAccount,
		schedule:     schedule,
		signTimeout:  cfg.SignTimeout,
		identities:   identities,
		signer:       signer,
		logger:       logger,
	}, nil
}

// RelayAccount returns the relay's own account
func (r *Relay) RelayAccount() common.Address {
	return r.relayAccount
}

// Schedule returns the gas schedule admission is checked against
func (r *Relay) Schedule() budget.Schedule {
	return r.schedule
}

// Identities returns a snapshot of the current identity state
func (r *Relay) Identities() types.IdentityState {
	return r.identities.get()
}
