package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// MarshalIdentityState serializes IdentityState to JSON bytes.
func MarshalIdentityState(s *types.IdentityState) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot marshal nil IdentityState")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal IdentityState to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalIdentityState deserializes IdentityState from JSON bytes.
func UnmarshalIdentityState(data []byte) (*types.IdentityState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var s types.IdentityState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to IdentityState: %w", err)
	}
	return &s, nil
}

// MarshalNodeState serializes NodeState to JSON bytes.
func MarshalNodeState(ns *NodeState) ([]byte, error) {
	if ns == nil {
		return nil, fmt.Errorf("cannot marshal nil NodeState")
	}

	return json.Marshal(ns)
}

// UnmarshalNodeState deserializes NodeState from JSON bytes.
func UnmarshalNodeState(data []byte) (*NodeState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var ns NodeState
	if err := json.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to NodeState: %w", err)
	}

	return &ns, nil
}
