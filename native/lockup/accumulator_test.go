package lockup

import (
	"math/big"
	"testing"
)

type flatAllocator struct {
	rate *big.Int
}

func (a *flatAllocator) MaxRewardPerBlock(*big.Int) *big.Int {
	return new(big.Int).Set(a.rate)
}

func (a *flatAllocator) MaxRewardPerBlockAt(*big.Int) *big.Int {
	return new(big.Int).Set(a.rate)
}

type zeroSplit struct{}

func (zeroSplit) HoldersShare(*big.Int, *big.Int) *big.Int { return big.NewInt(0) }

func newTestAccumulator(rate int64, holdersBps uint32) *Accumulator {
	return NewAccumulator(&flatAllocator{rate: big.NewInt(rate)}, BpsSplitPolicy{Bps: holdersBps})
}

func TestRefreshWithoutCheckpointAccruesNothing(t *testing.T) {
	acc := newTestAccumulator(500, 0)
	acc.SetBlockHeight(42)
	idx := (&GlobalIndex{TotalStaked: big.NewInt(100)}).Normalize()

	snap := acc.Refresh(idx)
	if snap.CumulativeReward.Sign() != 0 {
		t.Fatalf("expected no accrual before first commit, got %s", snap.CumulativeReward)
	}
	if snap.InterestPrice.Sign() != 0 || snap.HoldersPrice.Sign() != 0 {
		t.Fatalf("expected zero prices before first commit")
	}
	if snap.Rate.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected queried rate 500, got %s", snap.Rate)
	}
}

func TestRefreshIsReadOnlyAndIdempotent(t *testing.T) {
	acc := newTestAccumulator(500, 0)
	idx := (&GlobalIndex{TotalStaked: big.NewInt(100)}).Normalize()
	acc.SetBlockHeight(0)
	acc.Refresh(idx).Apply(idx)

	acc.SetBlockHeight(10)
	first := acc.Refresh(idx)
	second := acc.Refresh(idx)
	if first.InterestPrice.Cmp(second.InterestPrice) != 0 {
		t.Fatalf("dry runs disagree: %s vs %s", first.InterestPrice, second.InterestPrice)
	}
	if idx.LastBlock != 0 {
		t.Fatalf("refresh mutated the index checkpoint")
	}
}

func TestAccrualUsesLastKnownRate(t *testing.T) {
	alloc := &flatAllocator{rate: big.NewInt(500)}
	acc := NewAccumulator(alloc, zeroSplit{})
	idx := (&GlobalIndex{TotalStaked: big.NewInt(100)}).Normalize()
	acc.SetBlockHeight(0)
	acc.Refresh(idx).Apply(idx)

	// The rate changes mid-interval; the retroactive accrual must still use
	// the previously recorded 500.
	alloc.rate = big.NewInt(900)
	acc.SetBlockHeight(10)
	snap := acc.Refresh(idx)
	if snap.CumulativeReward.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("expected 5000 accrued at the old rate, got %s", snap.CumulativeReward)
	}
	if snap.Rate.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("expected the new rate recorded going forward, got %s", snap.Rate)
	}
	snap.Apply(idx)

	acc.SetBlockHeight(20)
	snap = acc.Refresh(idx)
	if snap.CumulativeReward.Cmp(big.NewInt(5000+9000)) != 0 {
		t.Fatalf("expected 14000 cumulative, got %s", snap.CumulativeReward)
	}
}

func TestZeroStakeYieldsZeroPriceIncrement(t *testing.T) {
	acc := newTestAccumulator(500, 0)
	idx := (&GlobalIndex{}).Normalize()
	acc.SetBlockHeight(0)
	acc.Refresh(idx).Apply(idx)

	acc.SetBlockHeight(25)
	snap := acc.Refresh(idx)
	if snap.InterestPrice.Sign() != 0 || snap.HoldersPrice.Sign() != 0 {
		t.Fatalf("expected zero price increments with zero stake")
	}
}

func TestPricesMonotonicAcrossRateChanges(t *testing.T) {
	alloc := &flatAllocator{rate: big.NewInt(0)}
	acc := NewAccumulator(alloc, BpsSplitPolicy{Bps: 5100})
	idx := (&GlobalIndex{TotalStaked: big.NewInt(777), GeometricMeanStake: big.NewInt(500)}).Normalize()
	acc.SetBlockHeight(0)
	acc.Refresh(idx).Apply(idx)

	rates := []int64{500, 0, 120, 120, 99999, 1, 0, 42}
	lastInterest := new(big.Int)
	lastHolders := new(big.Int)
	lastCap := new(big.Int)
	for i, rate := range rates {
		alloc.rate = big.NewInt(rate)
		acc.SetBlockHeight(uint64(i+1) * 7)
		snap := acc.Refresh(idx)
		if snap.InterestPrice.Cmp(lastInterest) < 0 {
			t.Fatalf("interest price decreased at step %d", i)
		}
		if snap.HoldersPrice.Cmp(lastHolders) < 0 {
			t.Fatalf("holders price decreased at step %d", i)
		}
		if snap.CapPrice.Cmp(lastCap) < 0 {
			t.Fatalf("cap price decreased at step %d", i)
		}
		lastInterest = snap.InterestPrice
		lastHolders = snap.HoldersPrice
		lastCap = snap.CapPrice
		snap.Apply(idx)
	}
}

func TestSplitAppliedToPriceIncrement(t *testing.T) {
	acc := newTestAccumulator(500, 5000)
	idx := (&GlobalIndex{TotalStaked: big.NewInt(100)}).Normalize()
	acc.SetBlockHeight(0)
	acc.Refresh(idx).Apply(idx)

	acc.SetBlockHeight(10)
	snap := acc.Refresh(idx)
	// accrued 5000 over stake 100: price delta 50*basis, split evenly.
	want := new(big.Int).Mul(big.NewInt(25), basis)
	if snap.HoldersPrice.Cmp(want) != 0 {
		t.Fatalf("holders price = %s, want %s", snap.HoldersPrice, want)
	}
	if snap.InterestPrice.Cmp(want) != 0 {
		t.Fatalf("interest price = %s, want %s", snap.InterestPrice, want)
	}
}

func TestGeometricStreamUsesDampedStake(t *testing.T) {
	acc := newTestAccumulator(500, 10_000)
	idx := (&GlobalIndex{
		TotalStaked:        big.NewInt(100),
		GeometricMeanStake: big.NewInt(200),
	}).Normalize()
	acc.SetBlockHeight(0)
	acc.Refresh(idx).Apply(idx)

	acc.SetBlockHeight(10)
	snap := acc.Refresh(idx)
	wantHolders := new(big.Int).Mul(big.NewInt(50), basis)
	wantCap := new(big.Int).Mul(big.NewInt(25), basis)
	if snap.HoldersPrice.Cmp(wantHolders) != 0 {
		t.Fatalf("holders price = %s, want %s", snap.HoldersPrice, wantHolders)
	}
	if snap.CapPrice.Cmp(wantCap) != 0 {
		t.Fatalf("cap price = %s, want %s", snap.CapPrice, wantCap)
	}
}

func TestStepAllocatorSelectsHighestReachedStep(t *testing.T) {
	alloc := NewStepAllocator([]RateStep{
		{Threshold: big.NewInt(1000), Rate: big.NewInt(50)},
		{Threshold: big.NewInt(0), Rate: big.NewInt(100)},
	})
	if got := alloc.MaxRewardPerBlock(big.NewInt(500)); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("rate below threshold = %s, want 100", got)
	}
	if got := alloc.MaxRewardPerBlock(big.NewInt(1000)); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("rate at threshold = %s, want 50", got)
	}
	if got := alloc.MaxRewardPerBlockAt(big.NewInt(2000)); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("geometric rate = %s, want 50", got)
	}
}
