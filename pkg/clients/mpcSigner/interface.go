package mpcSigner

import (
	"context"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// ISigningService is the boundary to the external threshold-signing service.
// One call in, one raw signature payload or an error out.
type ISigningService interface {
	// Sign submits one sub-call and returns the service's raw response body.
	Sign(ctx context.Context, call *types.SignCall) ([]byte, error)
}

// Compile-time checks
var (
	_ ISigningService = (*Client)(nil)
	_ ISigningService = (*StubSigningService)(nil)
)
