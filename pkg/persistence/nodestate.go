package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRelayAccountMismatch is returned when stored node state was written by another relay
var ErrRelayAccountMismatch = errors.New("persisted node state belongs to a different relay account")

// RecordNodeStart checks any stored node state against relayAccount, then
// records this start. Mismatching state is left untouched.
func RecordNodeStart(store IRelayPersistence, relayAccount string, startedAt int64) (*NodeState, error) {
	previous, err := store.LoadNodeState()
	if err != nil {
		return nil, fmt.Errorf("failed to load node state: %w", err)
	}
	if previous != nil && !strings.EqualFold(previous.RelayAccount, relayAccount) {
		return previous, fmt.Errorf("%w: stored %s, configured %s", ErrRelayAccountMismatch, previous.RelayAccount, relayAccount)
	}

	if err := store.SaveNodeState(&NodeState{
		RelayAccount:  relayAccount,
		NodeStartTime: startedAt,
	}); err != nil {
		return previous, fmt.Errorf("failed to save node state: %w", err)
	}
	return previous, nil
}
