package relay

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
)

// admit checks the caller against the current authorized caller, then the
// prepaid budget against the batch's required total.
func (r *Relay) admit(caller common.Address, prepaid budget.Gas, n int) (budget.Breakdown, error) {
	authorized := r.identities.get().AuthorizedCaller
	if caller != authorized {
		return budget.Breakdown{}, fmt.Errorf("%w: caller %s", ErrUnauthorized, caller.Hex())
	}

	r.logger.Sugar().Infow("Requesting signatures", "requests", n)
	r.logger.Sugar().Infow("Prepaid gas", "prepaid_gas", prepaid.String())

	required := r.schedule.Calculate(uint64(n))
	r.logger.Sugar().Infow("Required gas",
		"required_gas", required.Total.String(),
		"signatures", required.Signatures.String(),
		"initial", required.Initial.String(),
		"callback", required.Callback.String(),
	)

	if prepaid < required.Total {
		return required, fmt.Errorf("%w: prepaid %d, required %d", ErrInsufficientGas, uint64(prepaid), uint64(required.Total))
	}
	return required, nil
}
