package holders

import (
	"math/big"

	"propstake/core/types"
	"propstake/native/lockup"
)

// HolderSnap is the per (owner, property) holder reward snapshot. Checkpoint
// prices are per ownership token (the property's cumulative holder reward
// divided by its total supply, basis-scaled).
type HolderSnap struct {
	Property         types.PropertyID
	Owner            types.Address
	LastHoldersPrice *big.Int
	LastCapPrice     *big.Int
	Pending          *big.Int
	Migration        lockup.Migration
	LegacyPrice      *big.Int
}

func (s *HolderSnap) Normalize() *HolderSnap {
	if s == nil {
		return nil
	}
	if s.LastHoldersPrice == nil {
		s.LastHoldersPrice = big.NewInt(0)
	}
	if s.LastCapPrice == nil {
		s.LastCapPrice = big.NewInt(0)
	}
	if s.Pending == nil {
		s.Pending = big.NewInt(0)
	}
	if s.LegacyPrice == nil {
		s.LegacyPrice = big.NewInt(0)
	}
	return s
}
