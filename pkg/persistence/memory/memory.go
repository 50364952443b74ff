package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// MemoryPersistence is an in-memory implementation of IRelayPersistence.
// Intended for tests and local development: identity changes are lost on exit.
// Values are copied on the way in and out so callers cannot mutate stored state.
type MemoryPersistence struct {
	mu sync.RWMutex

	identity  *types.IdentityState
	nodeState *persistence.NodeState

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
func NewMemoryPersistence() *MemoryPersistence {
	fmt.Println("⚠️  WARNING: Using in-memory persistence - identity updates WILL BE LOST ON RESTART")
	fmt.Println("⚠️  Set RELAY_PERSISTENCE_TYPE=badger or redis for production")

	return &MemoryPersistence{}
}

// SaveIdentityState stores a copy of the identity state.
func (m *MemoryPersistence) SaveIdentityState(state *types.IdentityState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil IdentityState")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	cp := *state
	m.identity = &cp
	return nil
}

// LoadIdentityState returns a copy of the identity state, or nil on first run.
func (m *MemoryPersistence) LoadIdentityState() (*types.IdentityState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}
	if m.identity == nil {
		return nil, nil
	}

	cp := *m.identity
	return &cp, nil
}

// SaveNodeState persists node operational state.
func (m *MemoryPersistence) SaveNodeState(state *persistence.NodeState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil NodeState")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	cp := *state
	m.nodeState = &cp
	return nil
}

// LoadNodeState retrieves node operational state.
func (m *MemoryPersistence) LoadNodeState() (*persistence.NodeState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}
	if m.nodeState == nil {
		return nil, nil
	}

	cp := *m.nodeState
	return &cp, nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
