package relay

import (
	"fmt"
	"sync/atomic"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/promise"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// continuationGrant is minted by dispatch for one batch. It can only be
// created inside this package and admits a single reconciliation.
type continuationGrant struct {
	relay   *Relay
	batchID string
	used    atomic.Bool
}

func (r *Relay) newContinuationGrant(batchID string) *continuationGrant {
	return &continuationGrant{relay: r, batchID: batchID}
}

// ResolveSignatures pairs each request with the outcome at its index. It is
// the continuation of the relay's own fan-out and requires the grant dispatch
// minted for that batch; any other caller gets ErrPrivateMethod.
func (r *Relay) ResolveSignatures(
	grant *continuationGrant,
	requests []types.SignRequest,
	results promise.Results,
) (types.ResultBatch, error) {
	if grant == nil || grant.relay != r {
		return nil, fmt.Errorf("%w: resolve_signatures requires a grant issued by this relay", ErrPrivateMethod)
	}
	if !grant.used.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: grant for batch %s already used", ErrPrivateMethod, grant.batchID)
	}
	return r.resolveSignatures(requests, results), nil
}

func (r *Relay) resolveSignatures(requests []types.SignRequest, results promise.Results) types.ResultBatch {
	if results.Len() != len(requests) {
		r.logger.Sugar().Errorw("Result count does not match request count",
			"requests", len(requests),
			"results", results.Len(),
		)
	}

	batch := make(types.ResultBatch, len(requests))
	successful := 0

	for i, request := range requests {
		batch[i] = types.ResultPair{Request: request, Result: types.Failure()}

		outcome := results.At(i)
		if outcome.Status != promise.Successful {
			r.logger.Sugar().Warnw("Signature request failed", "index", i, "error", outcome.Err)
			continue
		}

		resp, err := types.DecodeSignatureResponse(outcome.Data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to deserialize signature response", "index", i, "error", err)
			continue
		}

		batch[i].Result = types.Success(resp)
		successful++
	}

	r.logger.Sugar().Infow("Resolved signature results",
		"total", len(batch),
		"successful", successful,
		"failed", len(batch)-successful,
	)
	return batch
}
