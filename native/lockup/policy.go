package lockup

import (
	"math/big"
	"sort"

	"propstake/core/types"
)

// AllocatorPolicy supplies the maximum reward minted per elapsed block. Both
// methods are pure functions of the supplied stake figure; the accumulator
// calls the first with the raw total stake and the second with the
// geometric-mean damped stake when advancing the cap stream.
type AllocatorPolicy interface {
	MaxRewardPerBlock(totalStaked *big.Int) *big.Int
	MaxRewardPerBlockAt(geometricMeanStake *big.Int) *big.Int
}

// RewardSplitPolicy returns the holders' portion of a basis-scaled price
// increment. The remainder accrues to stakers as interest.
type RewardSplitPolicy interface {
	HoldersShare(priceIncrement, totalStaked *big.Int) *big.Int
}

// AssetRegistry reports property eligibility. HasIssuedAssets gates staking;
// IsAuthenticated gates reward accrual visibility.
type AssetRegistry interface {
	IsAuthenticated(property types.PropertyID) bool
	HasIssuedAssets(property types.PropertyID) bool
}

// Minter mints the reward unit to the recipient. A declined mint aborts the
// withdrawal with no accounting mutation.
type Minter interface {
	Mint(recipient types.Address, amount *big.Int) error
}

// OwnershipLedger exposes property token balances maintained by the host.
type OwnershipLedger interface {
	BalanceOf(owner types.Address, property types.PropertyID) *big.Int
	TotalSupply(property types.PropertyID) *big.Int
}

const bpsDenominator = 10_000

// BpsSplitPolicy assigns a flat basis-point share of every price increment to
// holders.
type BpsSplitPolicy struct {
	Bps uint32
}

func (p BpsSplitPolicy) HoldersShare(priceIncrement, _ *big.Int) *big.Int {
	if priceIncrement == nil || priceIncrement.Sign() <= 0 || p.Bps == 0 {
		return big.NewInt(0)
	}
	bps := p.Bps
	if bps > bpsDenominator {
		bps = bpsDenominator
	}
	share := new(big.Int).Mul(priceIncrement, new(big.Int).SetUint64(uint64(bps)))
	return share.Quo(share, big.NewInt(bpsDenominator))
}

// RateStep maps a total-stake threshold to a per-block reward rate.
type RateStep struct {
	Threshold *big.Int
	Rate      *big.Int
}

// StepAllocator selects the reward rate of the highest step whose threshold
// does not exceed the observed stake. An empty table yields a zero rate.
type StepAllocator struct {
	steps []RateStep
}

func NewStepAllocator(steps []RateStep) *StepAllocator {
	sorted := make([]RateStep, 0, len(steps))
	for _, step := range steps {
		if step.Threshold == nil || step.Rate == nil {
			continue
		}
		sorted = append(sorted, RateStep{
			Threshold: new(big.Int).Set(step.Threshold),
			Rate:      new(big.Int).Set(step.Rate),
		})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threshold.Cmp(sorted[j].Threshold) < 0
	})
	return &StepAllocator{steps: sorted}
}

func (a *StepAllocator) rateFor(staked *big.Int) *big.Int {
	if a == nil || staked == nil {
		return big.NewInt(0)
	}
	rate := big.NewInt(0)
	for _, step := range a.steps {
		if step.Threshold.Cmp(staked) > 0 {
			break
		}
		rate = step.Rate
	}
	return new(big.Int).Set(rate)
}

func (a *StepAllocator) MaxRewardPerBlock(totalStaked *big.Int) *big.Int {
	return a.rateFor(totalStaked)
}

func (a *StepAllocator) MaxRewardPerBlockAt(geometricMeanStake *big.Int) *big.Int {
	return a.rateFor(geometricMeanStake)
}
