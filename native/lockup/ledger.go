package lockup

import "math/big"

// Ledger applies stake mutations to the account snapshot, the property total
// and the global total in one step, keeping the three-level sum invariant.
// Callers settle the account's reward checkpoint before calling either method
// and commit the accumulator snapshot immediately after.
type Ledger struct{}

// Increase adds amount to all three totals. When the staker holds ownership
// balance of the property, the added stake is tracked as disabled so that
// self-staking does not dilute other holders' reward pool.
func (Ledger) Increase(idx *GlobalIndex, prop *PropertyState, snap *StakeSnap, amount *big.Int, selfHeld bool) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	idx.Normalize()
	prop.Normalize()
	snap.Normalize()
	snap.Amount = new(big.Int).Add(snap.Amount, amount)
	prop.TotalStaked = new(big.Int).Add(prop.TotalStaked, amount)
	idx.TotalStaked = new(big.Int).Add(idx.TotalStaked, amount)
	if selfHeld {
		prop.DisabledStaked = new(big.Int).Add(prop.DisabledStaked, amount)
	}
	return nil
}

// Decrease removes amount from all three totals. The disabled tracking
// shrinks by min(disabled, amount) when the staker holds ownership balance,
// never below zero.
func (Ledger) Decrease(idx *GlobalIndex, prop *PropertyState, snap *StakeSnap, amount *big.Int, selfHeld bool) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	idx.Normalize()
	prop.Normalize()
	snap.Normalize()
	if snap.Amount.Cmp(amount) < 0 {
		return ErrInsufficientStake
	}
	snap.Amount = new(big.Int).Sub(snap.Amount, amount)
	prop.TotalStaked = new(big.Int).Sub(prop.TotalStaked, amount)
	idx.TotalStaked = new(big.Int).Sub(idx.TotalStaked, amount)
	if selfHeld {
		reduction := minBig(prop.DisabledStaked, amount)
		prop.DisabledStaked = new(big.Int).Sub(prop.DisabledStaked, reduction)
	}
	return nil
}
