package lockup

import (
	"math/big"

	"propstake/core/types"
)

// Migration records whether an account snapshot still carries a pre-cutover
// legacy checkpoint. New snapshots are created Migrated; PreMigration entries
// only exist when seeded from a genesis import of the prior accounting scheme.
type Migration uint8

const (
	PreMigration Migration = iota
	Migrated
)

// GlobalIndex is the protocol-wide accumulator state. Cumulative prices are
// basis-scaled and monotonically non-decreasing; the (LastRate, LastBlock)
// pair lets accrual deltas be computed as rate times elapsed blocks without
// replaying history.
type GlobalIndex struct {
	CumulativeReward *big.Int
	InterestPrice    *big.Int
	HoldersPrice     *big.Int
	TotalStaked      *big.Int
	LastRate         *big.Int
	LastBlock        uint64
	Initialized      bool

	// Geometric-mean damped stream feeding the holder reward cap.
	GeomCumulativeReward *big.Int
	CapPrice             *big.Int
	GeomLastRate         *big.Int
	GeomLastBlock        uint64
	GeometricMeanStake   *big.Int

	// Frozen at the one-time genesis checkpoint declaration; PreMigration
	// snapshots catch up against these simple global prices.
	LegacyPrice        *big.Int
	LegacyHoldersPrice *big.Int
	GenesisBlock       uint64
	GenesisDeclared    bool
}

// Normalize ensures all pointer fields are non-nil and returns the receiver.
func (g *GlobalIndex) Normalize() *GlobalIndex {
	if g == nil {
		return nil
	}
	if g.CumulativeReward == nil {
		g.CumulativeReward = big.NewInt(0)
	}
	if g.InterestPrice == nil {
		g.InterestPrice = big.NewInt(0)
	}
	if g.HoldersPrice == nil {
		g.HoldersPrice = big.NewInt(0)
	}
	if g.TotalStaked == nil {
		g.TotalStaked = big.NewInt(0)
	}
	if g.LastRate == nil {
		g.LastRate = big.NewInt(0)
	}
	if g.GeomCumulativeReward == nil {
		g.GeomCumulativeReward = big.NewInt(0)
	}
	if g.CapPrice == nil {
		g.CapPrice = big.NewInt(0)
	}
	if g.GeomLastRate == nil {
		g.GeomLastRate = big.NewInt(0)
	}
	if g.GeometricMeanStake == nil {
		g.GeometricMeanStake = big.NewInt(0)
	}
	if g.LegacyPrice == nil {
		g.LegacyPrice = big.NewInt(0)
	}
	if g.LegacyHoldersPrice == nil {
		g.LegacyHoldersPrice = big.NewInt(0)
	}
	return g
}

// PropertyState tracks per-property stake totals plus the incremental holder
// reward fold. CumulativeHolderReward is basis-scaled; LastHoldersPrice and
// LastCapPrice are the global prices at which the fold was last advanced.
type PropertyState struct {
	Property               types.PropertyID
	TotalStaked            *big.Int
	DisabledStaked         *big.Int
	CumulativeHolderReward *big.Int
	LastHoldersPrice       *big.Int
	CumulativeCapReward    *big.Int
	LastCapPrice           *big.Int
}

func (p *PropertyState) Normalize() *PropertyState {
	if p == nil {
		return nil
	}
	if p.TotalStaked == nil {
		p.TotalStaked = big.NewInt(0)
	}
	if p.DisabledStaked == nil {
		p.DisabledStaked = big.NewInt(0)
	}
	if p.CumulativeHolderReward == nil {
		p.CumulativeHolderReward = big.NewInt(0)
	}
	if p.LastHoldersPrice == nil {
		p.LastHoldersPrice = big.NewInt(0)
	}
	if p.CumulativeCapReward == nil {
		p.CumulativeCapReward = big.NewInt(0)
	}
	if p.LastCapPrice == nil {
		p.LastCapPrice = big.NewInt(0)
	}
	return p
}

// EnabledStaked is the portion of the property's stake eligible for holder
// rewards: total minus the self-held disabled amount, never negative.
func (p *PropertyState) EnabledStaked() *big.Int {
	enabled := new(big.Int).Sub(p.TotalStaked, p.DisabledStaked)
	if enabled.Sign() < 0 {
		return big.NewInt(0)
	}
	return enabled
}

// FoldHolderReward advances the property's cumulative holder and cap reward
// streams to the snapshot's prices: each grows by (new price - last price)
// times the currently enabled stake. Read-only; CommitFold persists the
// advance. Callers must fold before mutating the stake totals, or the new
// stake would be applied to the whole elapsed interval.
func (p *PropertyState) FoldHolderReward(snapshot *Snapshot) (holderCum, capCum *big.Int) {
	enabled := p.EnabledStaked()
	holderDelta := clampedSub(snapshot.HoldersPrice, p.LastHoldersPrice)
	holderCum = new(big.Int).Mul(holderDelta, enabled)
	holderCum.Add(holderCum, p.CumulativeHolderReward)
	capDelta := clampedSub(snapshot.CapPrice, p.LastCapPrice)
	capCum = new(big.Int).Mul(capDelta, enabled)
	capCum.Add(capCum, p.CumulativeCapReward)
	return holderCum, capCum
}

// CommitFold writes a fold advance computed by FoldHolderReward onto the
// property and moves its price checkpoints to the snapshot.
func (p *PropertyState) CommitFold(snapshot *Snapshot, holderCum, capCum *big.Int) {
	p.CumulativeHolderReward = holderCum
	p.LastHoldersPrice = new(big.Int).Set(snapshot.HoldersPrice)
	p.CumulativeCapReward = capCum
	p.LastCapPrice = new(big.Int).Set(snapshot.CapPrice)
}

// StakeSnap is the per (owner, property) staking snapshot. Pending holds
// reward already computed under a prior stake amount; LastInterestPrice is
// the checkpoint against which only the unclaimed delta accrues.
type StakeSnap struct {
	Property          types.PropertyID
	Owner             types.Address
	Amount            *big.Int
	LastInterestPrice *big.Int
	Pending           *big.Int
	Migration         Migration
	LegacyPrice       *big.Int
}

func (s *StakeSnap) Normalize() *StakeSnap {
	if s == nil {
		return nil
	}
	if s.Amount == nil {
		s.Amount = big.NewInt(0)
	}
	if s.LastInterestPrice == nil {
		s.LastInterestPrice = big.NewInt(0)
	}
	if s.Pending == nil {
		s.Pending = big.NewInt(0)
	}
	if s.LegacyPrice == nil {
		s.LegacyPrice = big.NewInt(0)
	}
	return s
}
