package persistence

import "github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"

// IRelayPersistence stores the relay's identity configuration across restarts.
// Implementations must be safe for concurrent use.
type IRelayPersistence interface {
	// SaveIdentityState overwrites the stored signer account, owner and
	// authorized caller.
	SaveIdentityState(state *types.IdentityState) error

	// LoadIdentityState returns nil when nothing has been saved yet (first run),
	// error only on storage failure.
	LoadIdentityState() (*types.IdentityState, error)

	// SaveNodeState persists operational metadata about this relay process.
	SaveNodeState(state *NodeState) error

	// LoadNodeState returns nil state if none exists, error only on storage failure.
	LoadNodeState() (*NodeState, error)

	// Close is idempotent. After Close all other operations return errors.
	Close() error

	// HealthCheck returns nil if the backend is usable.
	HealthCheck() error
}
