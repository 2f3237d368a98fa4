package lockup

import "math/big"

// basis is the fixed-point scale applied to cumulative per-stake prices.
// Price deltas are multiplied by basis before dividing by total stake so that
// integer division does not starve small accrual intervals; account amounts
// are descaled by basis as the final step.
var basis = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)

// Basis returns the price fixed-point scale. Exposed for hosts that persist
// or display raw prices.
func Basis() *big.Int { return new(big.Int).Set(basis) }

// clampedSub returns a-b, or zero when the difference would be negative.
// Rounding order can transiently produce a checkpoint a few fixed-point units
// ahead of a freshly derived price; the delta is defined as zero then.
func clampedSub(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	diff := new(big.Int).Sub(a, b)
	if diff.Sign() < 0 {
		return big.NewInt(0)
	}
	return diff
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
