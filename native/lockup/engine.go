package lockup

import (
	"fmt"
	"log/slog"
	"math/big"

	"propstake/core/types"
	"propstake/observability/metrics"
)

type engineState interface {
	GetGlobalIndex() (*GlobalIndex, error)
	PutGlobalIndex(idx *GlobalIndex) error
	GetProperty(property types.PropertyID) (*PropertyState, error)
	PutProperty(prop *PropertyState) error
	GetStakeSnap(property types.PropertyID, owner types.Address) (*StakeSnap, error)
	PutStakeSnap(snap *StakeSnap) error
}

// Engine orchestrates staker reward accounting: it settles the account
// checkpoint around every stake mutation and commits the accumulator snapshot
// so no accrual window is lost or double counted.
type Engine struct {
	state     engineState
	acc       *Accumulator
	registry  AssetRegistry
	ownership OwnershipLedger
	minter    Minter
	ledger    Ledger
	admin     types.Address
	logger    *slog.Logger
}

// NewEngine constructs a reward engine wired to its collaborator
// capabilities. admin is the single caller allowed to invoke the privileged
// setters.
func NewEngine(acc *Accumulator, registry AssetRegistry, ownership OwnershipLedger, minter Minter, admin types.Address) *Engine {
	return &Engine{
		acc:       acc,
		registry:  registry,
		ownership: ownership,
		minter:    minter,
		admin:     admin,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLogger attaches a structured logger; the engine stays silent without one.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil {
		return
	}
	e.logger = logger
}

// SetBlockHeight records the monotonic block height all accrual deltas are
// computed against.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil || e.acc == nil {
		return
	}
	e.acc.SetBlockHeight(height)
}

// Accumulator returns the shared price accumulator.
func (e *Engine) Accumulator() *Accumulator { return e.acc }

// Lock stakes amount against the property for owner. The property must have
// issued assets; the account's already-accrued reward is settled as pending
// and the property's holder fold advanced before the stake amount changes.
func (e *Engine) Lock(owner types.Address, property types.PropertyID, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !e.registry.HasIssuedAssets(property) {
		return ErrUnauthorized
	}
	idx, prop, snap, err := e.load(property, owner)
	if err != nil {
		return err
	}
	snapshot := e.acc.Refresh(idx)
	e.settle(idx, snap, snapshot)
	holderCum, capCum := prop.FoldHolderReward(snapshot)
	prop.CommitFold(snapshot, holderCum, capCum)
	selfHeld := e.selfHeld(owner, property)
	if err := e.ledger.Increase(idx, prop, snap, amount, selfHeld); err != nil {
		return err
	}
	if err := e.persist(idx, prop, snap, snapshot); err != nil {
		return err
	}
	metrics.Lockup().RecordLock()
	metrics.Lockup().SetTotalStaked(idx.TotalStaked)
	if e.logger != nil {
		e.logger.Debug("stake locked", "owner", owner.String(), "property", property.String(), "amount", amount.String())
	}
	return nil
}

// Unlock releases amount of owner's stake on the property, settling accrued
// reward first so it is preserved under the old stake amount.
func (e *Engine) Unlock(owner types.Address, property types.PropertyID, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	idx, prop, snap, err := e.load(property, owner)
	if err != nil {
		return err
	}
	snapshot := e.acc.Refresh(idx)
	e.settle(idx, snap, snapshot)
	holderCum, capCum := prop.FoldHolderReward(snapshot)
	prop.CommitFold(snapshot, holderCum, capCum)
	selfHeld := e.selfHeld(owner, property)
	if err := e.ledger.Decrease(idx, prop, snap, amount, selfHeld); err != nil {
		return err
	}
	if err := e.persist(idx, prop, snap, snapshot); err != nil {
		return err
	}
	metrics.Lockup().RecordUnlock()
	metrics.Lockup().SetTotalStaked(idx.TotalStaked)
	if e.logger != nil {
		e.logger.Debug("stake unlocked", "owner", owner.String(), "property", property.String(), "amount", amount.String())
	}
	return nil
}

// WithdrawInterest mints owner's accrued staker reward on the property and
// advances the checkpoint. Accounting and minting are all-or-nothing: a
// declined mint aborts with no state mutation.
func (e *Engine) WithdrawInterest(owner types.Address, property types.PropertyID) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !e.registry.IsAuthenticated(property) {
		return nil, ErrNotAuthenticated
	}
	idx, err := e.loadIndex()
	if err != nil {
		return nil, err
	}
	snap, err := e.loadSnap(property, owner)
	if err != nil {
		return nil, err
	}
	snapshot := e.acc.Refresh(idx)
	value := e.withdrawable(idx, snap, snapshot, true)
	if value.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.minter.Mint(owner, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	dust := new(big.Int).Mul(clampedSub(snapshot.InterestPrice, snap.LastInterestPrice), snap.Amount)
	dust.Mod(dust, basis)
	snap.Pending = big.NewInt(0)
	snap.LastInterestPrice = new(big.Int).Set(snapshot.InterestPrice)
	snap.Migration = Migrated
	if err := e.state.PutStakeSnap(snap); err != nil {
		return nil, err
	}
	snapshot.Apply(idx)
	if err := e.state.PutGlobalIndex(idx); err != nil {
		return nil, err
	}
	metrics.Lockup().RecordInterestWithdrawal(value)
	metrics.Lockup().ObserveRoundingDust("interest", dust)
	if e.logger != nil {
		e.logger.Info("interest withdrawn", "owner", owner.String(), "property", property.String(), "amount", value.String())
	}
	return value, nil
}

// Withdrawable is the pure query form: the reward owner could withdraw right
// now. Unauthenticated properties report zero. Calling it twice with no
// intervening mutation returns the same value.
func (e *Engine) Withdrawable(owner types.Address, property types.PropertyID) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	idx, err := e.loadIndex()
	if err != nil {
		return nil, err
	}
	snap, err := e.loadSnap(property, owner)
	if err != nil {
		return nil, err
	}
	snapshot := e.acc.Refresh(idx)
	return e.withdrawable(idx, snap, snapshot, e.registry.IsAuthenticated(property)), nil
}

// SetGeometricMean records the damped historical stake figure the cap stream
// divides by. Privileged: only the configured admin may call it.
func (e *Engine) SetGeometricMean(caller types.Address, value *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller != e.admin {
		return ErrUnauthorized
	}
	if value == nil || value.Sign() < 0 {
		return ErrInvalidAmount
	}
	idx, err := e.loadIndex()
	if err != nil {
		return err
	}
	snapshot := e.acc.Refresh(idx)
	snapshot.Apply(idx)
	idx.GeometricMeanStake = new(big.Int).Set(value)
	return e.state.PutGlobalIndex(idx)
}

// SetGenesisCheckpoint declares the one-time migration cutover, freezing the
// simple global prices that PreMigration snapshots catch up against. Fails
// once declared.
func (e *Engine) SetGenesisCheckpoint(caller types.Address, block uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller != e.admin {
		return ErrUnauthorized
	}
	idx, err := e.loadIndex()
	if err != nil {
		return err
	}
	if idx.GenesisDeclared {
		return ErrAlreadyInitialized
	}
	snapshot := e.acc.Refresh(idx)
	snapshot.Apply(idx)
	idx.GenesisBlock = block
	idx.LegacyPrice = new(big.Int).Set(snapshot.InterestPrice)
	idx.LegacyHoldersPrice = new(big.Int).Set(snapshot.HoldersPrice)
	idx.GenesisDeclared = true
	return e.state.PutGlobalIndex(idx)
}

// settle freezes the reward accrued under the account's current stake amount
// as pending and advances the checkpoint, so a following stake mutation
// cannot recompute it under the new amount.
func (e *Engine) settle(idx *GlobalIndex, snap *StakeSnap, snapshot *Snapshot) {
	value := e.withdrawable(idx, snap, snapshot, true)
	snap.Pending = value
	snap.LastInterestPrice = new(big.Int).Set(snapshot.InterestPrice)
	snap.Migration = Migrated
}

func (e *Engine) withdrawable(idx *GlobalIndex, snap *StakeSnap, snapshot *Snapshot, authenticated bool) *big.Int {
	if !authenticated {
		return big.NewInt(0)
	}
	delta := clampedSub(snapshot.InterestPrice, snap.LastInterestPrice)
	amount := new(big.Int).Mul(delta, snap.Amount)
	amount.Quo(amount, basis)
	amount.Add(amount, snap.Pending)
	amount.Add(amount, e.legacyInterest(idx, snap))
	return amount
}

// legacyInterest is the pre-migration catch-up formula: a simple delta
// against the global price frozen at the genesis checkpoint. It converges to
// zero once the snapshot is Migrated.
func (e *Engine) legacyInterest(idx *GlobalIndex, snap *StakeSnap) *big.Int {
	if snap.Migration == Migrated || !idx.GenesisDeclared {
		return big.NewInt(0)
	}
	delta := clampedSub(idx.LegacyPrice, snap.LegacyPrice)
	amount := new(big.Int).Mul(delta, snap.Amount)
	return amount.Quo(amount, basis)
}

func (e *Engine) selfHeld(owner types.Address, property types.PropertyID) bool {
	balance := e.ownership.BalanceOf(owner, property)
	return balance != nil && balance.Sign() > 0
}

func (e *Engine) loadIndex() (*GlobalIndex, error) {
	idx, err := e.state.GetGlobalIndex()
	if err != nil {
		return nil, err
	}
	if idx == nil {
		idx = &GlobalIndex{}
	}
	return idx.Normalize(), nil
}

func (e *Engine) loadSnap(property types.PropertyID, owner types.Address) (*StakeSnap, error) {
	snap, err := e.state.GetStakeSnap(property, owner)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &StakeSnap{Property: property, Owner: owner, Migration: Migrated}
	}
	return snap.Normalize(), nil
}

func (e *Engine) load(property types.PropertyID, owner types.Address) (*GlobalIndex, *PropertyState, *StakeSnap, error) {
	idx, err := e.loadIndex()
	if err != nil {
		return nil, nil, nil, err
	}
	prop, err := e.state.GetProperty(property)
	if err != nil {
		return nil, nil, nil, err
	}
	if prop == nil {
		prop = &PropertyState{Property: property}
	}
	prop.Normalize()
	snap, err := e.loadSnap(property, owner)
	if err != nil {
		return nil, nil, nil, err
	}
	return idx, prop, snap, nil
}

func (e *Engine) persist(idx *GlobalIndex, prop *PropertyState, snap *StakeSnap, snapshot *Snapshot) error {
	if err := e.state.PutStakeSnap(snap); err != nil {
		return err
	}
	if err := e.state.PutProperty(prop); err != nil {
		return err
	}
	snapshot.Apply(idx)
	return e.state.PutGlobalIndex(idx)
}
