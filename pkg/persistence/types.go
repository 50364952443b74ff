package persistence

import "errors"

// ErrClosed is returned by every operation after Close
var ErrClosed = errors.New("persistence layer is closed")

// NodeState is operational metadata that survives restarts
type NodeState struct {
	// RelayAccount is the relay's own identity. RecordNodeStart refuses a data
	// directory written by a different relay.
	RelayAccount string `json:"relayAccount"`

	// NodeStartTime is the Unix timestamp of the last start
	NodeStartTime int64 `json:"nodeStartTime"`
}
