package relay

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/promise"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// RequestSignatures admits a batch, dispatches one sub-call per request and
// returns a handle to the reconciled ResultBatch. It returns before any
// sub-call completes. Only admission and validation errors abort; once
// dispatched, sub-call failures surface as Failure entries in the batch.
func (r *Relay) RequestSignatures(
	ctx context.Context,
	caller common.Address,
	prepaid budget.Gas,
	requests []types.SignRequest,
) (*promise.Handle[types.ResultBatch], error) {
	if _, err := r.admit(caller, prepaid, len(requests)); err != nil {
		return nil, err
	}
	return r.dispatch(ctx, requests)
}

func (r *Relay) dispatch(ctx context.Context, requests []types.SignRequest) (*promise.Handle[types.ResultBatch], error) {
	if len(requests) == 0 {
		return nil, ErrEmptyBatch
	}

	for i := range requests {
		if err := requests[i].ValidatePayloadLength(); err != nil {
			return nil, fmt.Errorf("%w: request %d: %v", ErrInvalidPayload, i, err)
		}
	}

	batch := cloneRequests(requests)
	target := r.identities.get().SignerAccount
	batchID := uuid.NewString()

	tasks := make([]promise.Task, len(batch))
	for i := range batch {
		call := &types.SignCall{
			Index:     i,
			Target:    target,
			StaticGas: r.schedule.SignatureGas,
			Deposit:   types.AttachedDeposit,
			Request:   batch[i],
		}
		tasks[i] = func(ctx context.Context) ([]byte, error) {
			return r.signer.Sign(ctx, call)
		}
	}

	joint, err := promise.All(tasks...)
	if err != nil {
		return nil, err
	}
	joint.WithTaskTimeout(r.signTimeout)

	callbackGas := r.schedule.CallbackGas(uint64(len(batch)))
	r.logger.Sugar().Infow("Dispatched signature batch",
		"batch_id", batchID,
		"requests", len(batch),
		"signer_account", target.Hex(),
		"callback_gas", callbackGas.String(),
	)

	grant := r.newContinuationGrant(batchID)
	return promise.Then(ctx, joint, func(results promise.Results) (types.ResultBatch, error) {
		return r.ResolveSignatures(grant, batch, results)
	}), nil
}

func cloneRequests(requests []types.SignRequest) []types.SignRequest {
	out := make([]types.SignRequest, len(requests))
	for i, req := range requests {
		out[i] = req
		out[i].Payload = append([]byte(nil), req.Payload...)
	}
	return out
}
