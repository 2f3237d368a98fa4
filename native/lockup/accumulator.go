package lockup

import "math/big"

// Snapshot is the result of a dry-run accumulator refresh: the cumulative
// totals and prices as of the refresh block, plus the rate pair that Commit
// persists so later refreshes compute correct deltas.
type Snapshot struct {
	Block            uint64
	CumulativeReward *big.Int
	InterestPrice    *big.Int
	HoldersPrice     *big.Int
	Rate             *big.Int

	GeomCumulativeReward *big.Int
	CapPrice             *big.Int
	GeomRate             *big.Int
}

// Accumulator converts the allocator's reward-rate signal plus elapsed blocks
// into monotonic cumulative per-stake prices. Refresh is read-only; callers
// commit the returned snapshot after every stake-affecting mutation.
type Accumulator struct {
	allocator AllocatorPolicy
	split     RewardSplitPolicy
	block     uint64
}

func NewAccumulator(allocator AllocatorPolicy, split RewardSplitPolicy) *Accumulator {
	return &Accumulator{allocator: allocator, split: split}
}

// SetBlockHeight records the externally supplied monotonic block height used
// as the elapsed-time signal for accrual deltas.
func (a *Accumulator) SetBlockHeight(height uint64) {
	if a == nil {
		return
	}
	a.block = height
}

// BlockHeight returns the currently recorded block height.
func (a *Accumulator) BlockHeight() uint64 {
	if a == nil {
		return 0
	}
	return a.block
}

// Refresh computes the accumulator state as of the current block without
// mutating the index. The amount accrued since the last checkpoint always
// uses the previously recorded rate; the freshly queried rate takes effect
// from this block forward once committed. With no prior checkpoint nothing
// accrues. A zero total stake yields a zero price increment.
func (a *Accumulator) Refresh(idx *GlobalIndex) *Snapshot {
	idx.Normalize()
	snap := &Snapshot{
		Block:                a.block,
		CumulativeReward:     new(big.Int).Set(idx.CumulativeReward),
		InterestPrice:        new(big.Int).Set(idx.InterestPrice),
		HoldersPrice:         new(big.Int).Set(idx.HoldersPrice),
		Rate:                 a.allocator.MaxRewardPerBlock(idx.TotalStaked),
		GeomCumulativeReward: new(big.Int).Set(idx.GeomCumulativeReward),
		CapPrice:             new(big.Int).Set(idx.CapPrice),
		GeomRate:             a.allocator.MaxRewardPerBlockAt(idx.GeometricMeanStake),
	}
	if snap.Rate == nil {
		snap.Rate = big.NewInt(0)
	}
	if snap.GeomRate == nil {
		snap.GeomRate = big.NewInt(0)
	}
	if !idx.Initialized {
		return snap
	}

	if a.block > idx.LastBlock && idx.LastRate.Sign() > 0 {
		elapsed := new(big.Int).SetUint64(a.block - idx.LastBlock)
		accrued := new(big.Int).Mul(idx.LastRate, elapsed)
		snap.CumulativeReward.Add(snap.CumulativeReward, accrued)
		if idx.TotalStaked.Sign() > 0 {
			delta := new(big.Int).Mul(accrued, basis)
			delta.Quo(delta, idx.TotalStaked)
			holders := a.holdersShare(delta, idx.TotalStaked)
			interest := new(big.Int).Sub(delta, holders)
			snap.HoldersPrice.Add(snap.HoldersPrice, holders)
			snap.InterestPrice.Add(snap.InterestPrice, interest)
		}
	}

	if a.block > idx.GeomLastBlock && idx.GeomLastRate.Sign() > 0 {
		elapsed := new(big.Int).SetUint64(a.block - idx.GeomLastBlock)
		accrued := new(big.Int).Mul(idx.GeomLastRate, elapsed)
		snap.GeomCumulativeReward.Add(snap.GeomCumulativeReward, accrued)
		if idx.GeometricMeanStake.Sign() > 0 {
			delta := new(big.Int).Mul(accrued, basis)
			delta.Quo(delta, idx.GeometricMeanStake)
			holders := a.holdersShare(delta, idx.GeometricMeanStake)
			snap.CapPrice.Add(snap.CapPrice, holders)
		}
	}
	return snap
}

func (a *Accumulator) holdersShare(delta, staked *big.Int) *big.Int {
	share := a.split.HoldersShare(new(big.Int).Set(delta), staked)
	if share == nil || share.Sign() < 0 {
		return big.NewInt(0)
	}
	if share.Cmp(delta) > 0 {
		return new(big.Int).Set(delta)
	}
	return share
}

// Apply writes the snapshot's cumulative totals and rate checkpoints onto the
// index. Callers persist the index afterwards; stake-total mutations made
// between Refresh and Apply are preserved.
func (s *Snapshot) Apply(idx *GlobalIndex) {
	idx.Normalize()
	idx.CumulativeReward = new(big.Int).Set(s.CumulativeReward)
	idx.InterestPrice = new(big.Int).Set(s.InterestPrice)
	idx.HoldersPrice = new(big.Int).Set(s.HoldersPrice)
	idx.LastRate = new(big.Int).Set(s.Rate)
	idx.LastBlock = s.Block
	idx.GeomCumulativeReward = new(big.Int).Set(s.GeomCumulativeReward)
	idx.CapPrice = new(big.Int).Set(s.CapPrice)
	idx.GeomLastRate = new(big.Int).Set(s.GeomRate)
	idx.GeomLastBlock = s.Block
	idx.Initialized = true
}
