package relay

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// identityStore owns the relay's identity state. Every change is persisted
// before it becomes visible.
type identityStore struct {
	mu     sync.RWMutex
	state  types.IdentityState
	store  persistence.IRelayPersistence
	logger *zap.Logger
}

func loadIdentityStore(store persistence.IRelayPersistence, seed *types.IdentityState, logger *zap.Logger) (*identityStore, error) {
	existing, err := store.LoadIdentityState()
	if err != nil {
		return nil, fmt.Errorf("failed to load identity state: %w", err)
	}

	if existing != nil {
		logger.Sugar().Infow("Loaded identity state from persistence",
			"signer_account", existing.SignerAccount.Hex(),
			"owner", existing.Owner.Hex(),
			"authorized_caller", existing.AuthorizedCaller.Hex(),
		)
		return &identityStore{state: *existing, store: store, logger: logger}, nil
	}

	if err := store.SaveIdentityState(seed); err != nil {
		return nil, fmt.Errorf("failed to seed identity state: %w", err)
	}
	logger.Sugar().Infow("Seeded identity state",
		"signer_account", seed.SignerAccount.Hex(),
		"owner", seed.Owner.Hex(),
		"authorized_caller", seed.AuthorizedCaller.Hex(),
	)
	return &identityStore{state: *seed, store: store, logger: logger}, nil
}

func (s *identityStore) get() types.IdentityState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// update applies mutate if caller is the owner at the time of the call and
// returns the state it replaced.
func (s *identityStore) update(caller common.Address, mutate func(*types.IdentityState)) (types.IdentityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state
	if caller != previous.Owner {
		return previous, fmt.Errorf("%w: caller %s", ErrNotOwner, caller.Hex())
	}

	next := previous
	mutate(&next)

	if err := s.store.SaveIdentityState(&next); err != nil {
		return previous, fmt.Errorf("failed to persist identity state: %w", err)
	}
	s.state = next
	return previous, nil
}

// UpdateAuthorizedCaller replaces the authorized caller. Owner only.
func (r *Relay) UpdateAuthorizedCaller(caller, newCaller common.Address) error {
	previous, err := r.identities.update(caller, func(s *types.IdentityState) {
		s.AuthorizedCaller = newCaller
	})
	if err != nil {
		return err
	}

	r.logger.Sugar().Infow("Updated authorized caller",
		"previous", previous.AuthorizedCaller.Hex(),
		"authorized_caller", newCaller.Hex(),
	)
	return nil
}

// UpdateOwner transfers ownership. Owner only; the previous owner loses access immediately.
func (r *Relay) UpdateOwner(caller, newOwner common.Address) error {
	previous, err := r.identities.update(caller, func(s *types.IdentityState) {
		s.Owner = newOwner
	})
	if err != nil {
		return err
	}

	r.logger.Sugar().Infow("Updated owner",
		"previous", previous.Owner.Hex(),
		"owner", newOwner.Hex(),
	)
	return nil
}
