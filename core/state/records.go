package state

import (
	"math/big"

	"propstake/core/types"
	"propstake/native/holders"
	"propstake/native/lockup"
)

// Stored shadow structs pin the deterministic RLP layout independently of the
// in-memory engine types.

type storedGlobalIndex struct {
	CumulativeReward     *big.Int
	InterestPrice        *big.Int
	HoldersPrice         *big.Int
	TotalStaked          *big.Int
	LastRate             *big.Int
	LastBlock            uint64
	Initialized          bool
	GeomCumulativeReward *big.Int
	CapPrice             *big.Int
	GeomLastRate         *big.Int
	GeomLastBlock        uint64
	GeometricMeanStake   *big.Int
	LegacyPrice          *big.Int
	LegacyHoldersPrice   *big.Int
	GenesisBlock         uint64
	GenesisDeclared      bool
}

func newStoredGlobalIndex(idx *lockup.GlobalIndex) *storedGlobalIndex {
	if idx == nil {
		idx = &lockup.GlobalIndex{}
	}
	idx.Normalize()
	return &storedGlobalIndex{
		CumulativeReward:     idx.CumulativeReward,
		InterestPrice:        idx.InterestPrice,
		HoldersPrice:         idx.HoldersPrice,
		TotalStaked:          idx.TotalStaked,
		LastRate:             idx.LastRate,
		LastBlock:            idx.LastBlock,
		Initialized:          idx.Initialized,
		GeomCumulativeReward: idx.GeomCumulativeReward,
		CapPrice:             idx.CapPrice,
		GeomLastRate:         idx.GeomLastRate,
		GeomLastBlock:        idx.GeomLastBlock,
		GeometricMeanStake:   idx.GeometricMeanStake,
		LegacyPrice:          idx.LegacyPrice,
		LegacyHoldersPrice:   idx.LegacyHoldersPrice,
		GenesisBlock:         idx.GenesisBlock,
		GenesisDeclared:      idx.GenesisDeclared,
	}
}

func (s *storedGlobalIndex) toGlobalIndex() *lockup.GlobalIndex {
	idx := &lockup.GlobalIndex{
		CumulativeReward:     s.CumulativeReward,
		InterestPrice:        s.InterestPrice,
		HoldersPrice:         s.HoldersPrice,
		TotalStaked:          s.TotalStaked,
		LastRate:             s.LastRate,
		LastBlock:            s.LastBlock,
		Initialized:          s.Initialized,
		GeomCumulativeReward: s.GeomCumulativeReward,
		CapPrice:             s.CapPrice,
		GeomLastRate:         s.GeomLastRate,
		GeomLastBlock:        s.GeomLastBlock,
		GeometricMeanStake:   s.GeometricMeanStake,
		LegacyPrice:          s.LegacyPrice,
		LegacyHoldersPrice:   s.LegacyHoldersPrice,
		GenesisBlock:         s.GenesisBlock,
		GenesisDeclared:      s.GenesisDeclared,
	}
	return idx.Normalize()
}

type storedProperty struct {
	TotalStaked            *big.Int
	DisabledStaked         *big.Int
	CumulativeHolderReward *big.Int
	LastHoldersPrice       *big.Int
	CumulativeCapReward    *big.Int
	LastCapPrice           *big.Int
}

func newStoredProperty(prop *lockup.PropertyState) *storedProperty {
	prop.Normalize()
	return &storedProperty{
		TotalStaked:            prop.TotalStaked,
		DisabledStaked:         prop.DisabledStaked,
		CumulativeHolderReward: prop.CumulativeHolderReward,
		LastHoldersPrice:       prop.LastHoldersPrice,
		CumulativeCapReward:    prop.CumulativeCapReward,
		LastCapPrice:           prop.LastCapPrice,
	}
}

func (s *storedProperty) toPropertyState(property types.PropertyID) *lockup.PropertyState {
	prop := &lockup.PropertyState{
		Property:               property,
		TotalStaked:            s.TotalStaked,
		DisabledStaked:         s.DisabledStaked,
		CumulativeHolderReward: s.CumulativeHolderReward,
		LastHoldersPrice:       s.LastHoldersPrice,
		CumulativeCapReward:    s.CumulativeCapReward,
		LastCapPrice:           s.LastCapPrice,
	}
	return prop.Normalize()
}

type storedStakeSnap struct {
	Amount            *big.Int
	LastInterestPrice *big.Int
	Pending           *big.Int
	Migration         uint8
	LegacyPrice       *big.Int
}

func newStoredStakeSnap(snap *lockup.StakeSnap) *storedStakeSnap {
	snap.Normalize()
	return &storedStakeSnap{
		Amount:            snap.Amount,
		LastInterestPrice: snap.LastInterestPrice,
		Pending:           snap.Pending,
		Migration:         uint8(snap.Migration),
		LegacyPrice:       snap.LegacyPrice,
	}
}

func (s *storedStakeSnap) toStakeSnap(property types.PropertyID, owner types.Address) *lockup.StakeSnap {
	snap := &lockup.StakeSnap{
		Property:          property,
		Owner:             owner,
		Amount:            s.Amount,
		LastInterestPrice: s.LastInterestPrice,
		Pending:           s.Pending,
		Migration:         lockup.Migration(s.Migration),
		LegacyPrice:       s.LegacyPrice,
	}
	return snap.Normalize()
}

type storedHolderSnap struct {
	LastHoldersPrice *big.Int
	LastCapPrice     *big.Int
	Pending          *big.Int
	Migration        uint8
	LegacyPrice      *big.Int
}

func newStoredHolderSnap(snap *holders.HolderSnap) *storedHolderSnap {
	snap.Normalize()
	return &storedHolderSnap{
		LastHoldersPrice: snap.LastHoldersPrice,
		LastCapPrice:     snap.LastCapPrice,
		Pending:          snap.Pending,
		Migration:        uint8(snap.Migration),
		LegacyPrice:      snap.LegacyPrice,
	}
}

func (s *storedHolderSnap) toHolderSnap(property types.PropertyID, owner types.Address) *holders.HolderSnap {
	snap := &holders.HolderSnap{
		Property:         property,
		Owner:            owner,
		LastHoldersPrice: s.LastHoldersPrice,
		LastCapPrice:     s.LastCapPrice,
		Pending:          s.Pending,
		Migration:        lockup.Migration(s.Migration),
		LegacyPrice:      s.LegacyPrice,
	}
	return snap.Normalize()
}
