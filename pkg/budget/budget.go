package budget

import (
	"fmt"
	"math"
	"math/bits"
)

// Gas is an execution budget. All arithmetic on Gas saturates at math.MaxUint64
// instead of wrapping.
type Gas uint64

const (
	// OneTeraGas is the unit the schedule constants are expressed in
	OneTeraGas Gas = 1_000_000_000_000

	// MaxGas is the saturation point
	MaxGas Gas = math.MaxUint64
)

// FromTGas converts a tera-gas count to Gas, saturating on overflow
func FromTGas(tgas uint64) Gas {
	return OneTeraGas.SaturatingMul(tgas)
}

// SaturatingAdd returns g+other, or MaxGas if the sum overflows
func (g Gas) SaturatingAdd(other Gas) Gas {
	sum, carry := bits.Add64(uint64(g), uint64(other), 0)
	if carry != 0 {
		return MaxGas
	}
	return Gas(sum)
}

// SaturatingMul returns g*n, or MaxGas if the product overflows
func (g Gas) SaturatingMul(n uint64) Gas {
	hi, lo := bits.Mul64(uint64(g), n)
	if hi != 0 {
		return MaxGas
	}
	return Gas(lo)
}

// TGas reports the value in whole tera-gas, rounded down
func (g Gas) TGas() uint64 {
	return uint64(g / OneTeraGas)
}

func (g Gas) String() string {
	if g%OneTeraGas == 0 {
		return fmt.Sprintf("%d Tgas", g.TGas())
	}
	return fmt.Sprintf("%d gas", uint64(g))
}

// Schedule holds the fixed per-phase and per-item costs of a batch
type Schedule struct {
	// SignatureGas is attached to every signing sub-call
	SignatureGas Gas
	// InitialConstant and InitialPerItem cover the dispatching call itself
	InitialConstant Gas
	InitialPerItem  Gas
	// CallbackConstant and CallbackPerItem cover the reconciliation continuation
	CallbackConstant Gas
	CallbackPerItem  Gas
}

// DefaultSchedule is the schedule the relay runs with
var DefaultSchedule = Schedule{
	SignatureGas:     FromTGas(15),
	InitialConstant:  FromTGas(8),
	InitialPerItem:   FromTGas(2),
	CallbackConstant: FromTGas(8),
	CallbackPerItem:  FromTGas(2),
}

// Breakdown is the budget required for a batch of a given size
type Breakdown struct {
	Requests   uint64
	Signatures Gas
	Initial    Gas
	Callback   Gas
	Total      Gas
}

// Calculate computes the budget for a batch of n requests. n == 0 is accepted
// and yields the constant components alone.
func (s Schedule) Calculate(n uint64) Breakdown {
	initial := s.InitialConstant.SaturatingAdd(s.InitialPerItem.SaturatingMul(n))
	callback := s.CallbackGas(n)
	signatures := s.SignatureGas.SaturatingMul(n)

	return Breakdown{
		Requests:   n,
		Signatures: signatures,
		Initial:    initial,
		Callback:   callback,
		Total:      signatures.SaturatingAdd(initial).SaturatingAdd(callback),
	}
}

// CallbackGas is the budget reserved for the continuation of an n-sized batch
func (s Schedule) CallbackGas(n uint64) Gas {
	return s.CallbackConstant.SaturatingAdd(s.CallbackPerItem.SaturatingMul(n))
}

// Calculate computes the budget for n requests under DefaultSchedule
func Calculate(n uint64) Breakdown {
	return DefaultSchedule.Calculate(n)
}

// CallbackGas returns the continuation budget for n requests under DefaultSchedule
func CallbackGas(n uint64) Gas {
	return DefaultSchedule.CallbackGas(n)
}
