package holders

import (
	"fmt"
	"log/slog"
	"math/big"

	"propstake/core/types"
	"propstake/native/lockup"
	"propstake/observability/metrics"
)

type engineState interface {
	GetGlobalIndex() (*lockup.GlobalIndex, error)
	PutGlobalIndex(idx *lockup.GlobalIndex) error
	GetProperty(property types.PropertyID) (*lockup.PropertyState, error)
	PutProperty(prop *lockup.PropertyState) error
	GetHolderSnap(property types.PropertyID, owner types.Address) (*HolderSnap, error)
	PutHolderSnap(snap *HolderSnap) error
}

// Engine computes ownership-proportional rewards. Each property carries an
// incrementally folded cumulative holder reward so a query costs O(1) instead
// of replaying every account; the optional cap stream bounds payouts via the
// geometric-mean damped price.
type Engine struct {
	state     engineState
	acc       *lockup.Accumulator
	registry  lockup.AssetRegistry
	ownership lockup.OwnershipLedger
	minter    lockup.Minter
	logger    *slog.Logger
}

func NewEngine(acc *lockup.Accumulator, registry lockup.AssetRegistry, ownership lockup.OwnershipLedger, minter lockup.Minter) *Engine {
	return &Engine{
		acc:       acc,
		registry:  registry,
		ownership: ownership,
		minter:    minter,
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

// accrual computes the reward accrued to balance since the snapshot's
// checkpoints, applying the cap rule: the payable accrual is
// min(uncapped, cap) unless the cap amount is zero, which means uncapped.
// The per-token prices the caller should advance checkpoints to are returned
// alongside.
func (e *Engine) accrual(prop *lockup.PropertyState, snap *HolderSnap, snapshot *lockup.Snapshot, balance *big.Int) (amount, perToken, capPerToken *big.Int) {
	holderCum, capCum := prop.FoldHolderReward(snapshot)
	supply := e.ownership.TotalSupply(snap.Property)
	if supply == nil || supply.Sign() == 0 {
		return big.NewInt(0), new(big.Int).Set(snap.LastHoldersPrice), new(big.Int).Set(snap.LastCapPrice)
	}
	perToken = new(big.Int).Quo(holderCum, supply)
	capPerToken = new(big.Int).Quo(capCum, supply)
	if balance == nil {
		balance = big.NewInt(0)
	}
	delta := clampedSub(perToken, snap.LastHoldersPrice)
	amount = new(big.Int).Mul(delta, balance)
	amount.Quo(amount, lockup.Basis())
	capDelta := clampedSub(capPerToken, snap.LastCapPrice)
	capAmount := new(big.Int).Mul(capDelta, balance)
	capAmount.Quo(capAmount, lockup.Basis())
	if capAmount.Sign() > 0 && capAmount.Cmp(amount) < 0 {
		amount = capAmount
	}
	return amount, perToken, capPerToken
}

func (e *Engine) withdrawable(idx *lockup.GlobalIndex, prop *lockup.PropertyState, snap *HolderSnap, snapshot *lockup.Snapshot, balance *big.Int) *big.Int {
	amount, _, _ := e.accrual(prop, snap, snapshot, balance)
	total := new(big.Int).Add(amount, snap.Pending)
	return total.Add(total, e.legacyReward(idx, snap, balance))
}

// legacyReward is the pre-migration catch-up against the simple global
// holders price frozen at the genesis checkpoint; zero once Migrated.
func (e *Engine) legacyReward(idx *lockup.GlobalIndex, snap *HolderSnap, balance *big.Int) *big.Int {
	if snap.Migration == lockup.Migrated || !idx.GenesisDeclared {
		return big.NewInt(0)
	}
	if balance == nil {
		balance = big.NewInt(0)
	}
	delta := clampedSub(idx.LegacyHoldersPrice, snap.LegacyPrice)
	amount := new(big.Int).Mul(delta, balance)
	return amount.Quo(amount, lockup.Basis())
}

// BeforeBalanceChange freezes both parties' currently accrued reward as
// pending at their pre-transfer balances and advances their checkpoints, so
// an ownership transfer never shifts reward accrued under prior balances.
// The host invokes it before mutating balances; a zero address denotes the
// absent side of a mint or burn.
func (e *Engine) BeforeBalanceChange(property types.PropertyID, from, to types.Address) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	idx, prop, err := e.loadProperty(property)
	if err != nil {
		return err
	}
	snapshot := e.acc.Refresh(idx)
	holderCum, capCum := prop.FoldHolderReward(snapshot)
	for _, owner := range []types.Address{from, to} {
		if owner.IsZero() {
			continue
		}
		snap, err := e.loadSnap(property, owner)
		if err != nil {
			return err
		}
		balance := e.ownership.BalanceOf(owner, property)
		amount, perToken, capPerToken := e.accrual(prop, snap, snapshot, balance)
		amount.Add(amount, e.legacyReward(idx, snap, balance))
		snap.Pending = new(big.Int).Add(snap.Pending, amount)
		snap.LastHoldersPrice = perToken
		snap.LastCapPrice = capPerToken
		snap.Migration = lockup.Migrated
		if err := e.state.PutHolderSnap(snap); err != nil {
			return err
		}
	}
	prop.CommitFold(snapshot, holderCum, capCum)
	if err := e.state.PutProperty(prop); err != nil {
		return err
	}
	snapshot.Apply(idx)
	return e.state.PutGlobalIndex(idx)
}

// WithdrawReward mints owner's accrued holder reward on the property and
// advances the checkpoints. All-or-nothing with the mint.
func (e *Engine) WithdrawReward(owner types.Address, property types.PropertyID) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !e.registry.IsAuthenticated(property) {
		return nil, ErrNotAuthenticated
	}
	idx, prop, err := e.loadProperty(property)
	if err != nil {
		return nil, err
	}
	snap, err := e.loadSnap(property, owner)
	if err != nil {
		return nil, err
	}
	snapshot := e.acc.Refresh(idx)
	balance := e.ownership.BalanceOf(owner, property)
	value := e.withdrawable(idx, prop, snap, snapshot, balance)
	if value.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.minter.Mint(owner, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	holderCum, capCum := prop.FoldHolderReward(snapshot)
	_, perToken, capPerToken := e.accrual(prop, snap, snapshot, balance)
	dust := big.NewInt(0)
	if balance != nil {
		dust.Mul(clampedSub(perToken, snap.LastHoldersPrice), balance)
		dust.Mod(dust, lockup.Basis())
	}
	snap.Pending = big.NewInt(0)
	snap.LastHoldersPrice = perToken
	snap.LastCapPrice = capPerToken
	snap.Migration = lockup.Migrated
	if err := e.state.PutHolderSnap(snap); err != nil {
		return nil, err
	}
	prop.CommitFold(snapshot, holderCum, capCum)
	if err := e.state.PutProperty(prop); err != nil {
		return nil, err
	}
	snapshot.Apply(idx)
	if err := e.state.PutGlobalIndex(idx); err != nil {
		return nil, err
	}
	metrics.Lockup().RecordHolderWithdrawal(value)
	metrics.Lockup().ObserveRoundingDust("holder", dust)
	if e.logger != nil {
		e.logger.Info("holder reward withdrawn", "owner", owner.String(), "property", property.String(), "amount", value.String())
	}
	return value, nil
}

// Withdrawable is the pure query form; unauthenticated properties report
// zero.
func (e *Engine) Withdrawable(owner types.Address, property types.PropertyID) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !e.registry.IsAuthenticated(property) {
		return big.NewInt(0), nil
	}
	idx, prop, err := e.loadProperty(property)
	if err != nil {
		return nil, err
	}
	snap, err := e.loadSnap(property, owner)
	if err != nil {
		return nil, err
	}
	snapshot := e.acc.Refresh(idx)
	balance := e.ownership.BalanceOf(owner, property)
	return e.withdrawable(idx, prop, snap, snapshot, balance), nil
}

func (e *Engine) loadProperty(property types.PropertyID) (*lockup.GlobalIndex, *lockup.PropertyState, error) {
	idx, err := e.state.GetGlobalIndex()
	if err != nil {
		return nil, nil, err
	}
	if idx == nil {
		idx = &lockup.GlobalIndex{}
	}
	idx.Normalize()
	prop, err := e.state.GetProperty(property)
	if err != nil {
		return nil, nil, err
	}
	if prop == nil {
		prop = &lockup.PropertyState{Property: property}
	}
	prop.Normalize()
	return idx, prop, nil
}

func (e *Engine) loadSnap(property types.PropertyID, owner types.Address) (*HolderSnap, error) {
	snap, err := e.state.GetHolderSnap(property, owner)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = &HolderSnap{Property: property, Owner: owner, Migration: lockup.Migrated}
	}
	return snap.Normalize(), nil
}

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
