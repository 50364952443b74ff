package relay

import "errors"

var (
	// ErrUnauthorized is returned when the caller is not the authorized caller
	ErrUnauthorized = errors.New("only the authorized caller can request signatures")
	// ErrInsufficientGas is returned when the prepaid budget is below the required total
	ErrInsufficientGas = errors.New("insufficient gas")
	// ErrInvalidPayload is returned when any request in a batch fails payload validation
	ErrInvalidPayload = errors.New("invalid sign request payload")
	// ErrEmptyBatch is returned for a batch with no requests
	ErrEmptyBatch = errors.New("batch must contain at least one request")
	// ErrNotOwner is returned when an admin operation is attempted by anyone but the owner
	ErrNotOwner = errors.New("only the owner can update relay identities")
	// ErrPrivateMethod is returned when the reconciler is invoked by anyone but the relay itself
	ErrPrivateMethod = errors.New("method is private to the relay")
)
