package holders

import (
	"errors"
	"math/big"
	"testing"

	"propstake/core/types"
	"propstake/native/lockup"
)

type mockState struct {
	idx   *lockup.GlobalIndex
	props map[types.PropertyID]*lockup.PropertyState
	snaps map[string]*HolderSnap
}

func newMockState() *mockState {
	return &mockState{
		props: make(map[types.PropertyID]*lockup.PropertyState),
		snaps: make(map[string]*HolderSnap),
	}
}

func snapKey(property types.PropertyID, owner types.Address) string {
	return string(property.Bytes()) + string(owner.Bytes())
}

func (m *mockState) GetGlobalIndex() (*lockup.GlobalIndex, error) { return m.idx, nil }

func (m *mockState) PutGlobalIndex(idx *lockup.GlobalIndex) error {
	m.idx = idx
	return nil
}

func (m *mockState) GetProperty(property types.PropertyID) (*lockup.PropertyState, error) {
	return m.props[property], nil
}

func (m *mockState) PutProperty(prop *lockup.PropertyState) error {
	m.props[prop.Property] = prop
	return nil
}

func (m *mockState) GetHolderSnap(property types.PropertyID, owner types.Address) (*HolderSnap, error) {
	return m.snaps[snapKey(property, owner)], nil
}

func (m *mockState) PutHolderSnap(snap *HolderSnap) error {
	m.snaps[snapKey(snap.Property, snap.Owner)] = snap
	return nil
}

type mockRegistry struct {
	authenticated bool
}

func (m *mockRegistry) IsAuthenticated(types.PropertyID) bool { return m.authenticated }
func (m *mockRegistry) HasIssuedAssets(types.PropertyID) bool { return true }

type mockOwnership struct {
	balances map[string]*big.Int
	supplies map[types.PropertyID]*big.Int
}

func newMockOwnership() *mockOwnership {
	return &mockOwnership{
		balances: make(map[string]*big.Int),
		supplies: make(map[types.PropertyID]*big.Int),
	}
}

func (m *mockOwnership) setBalance(owner types.Address, property types.PropertyID, amount int64) {
	m.balances[snapKey(property, owner)] = big.NewInt(amount)
}

func (m *mockOwnership) setSupply(property types.PropertyID, amount int64) {
	m.supplies[property] = big.NewInt(amount)
}

func (m *mockOwnership) BalanceOf(owner types.Address, property types.PropertyID) *big.Int {
	if balance, ok := m.balances[snapKey(property, owner)]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

func (m *mockOwnership) TotalSupply(property types.PropertyID) *big.Int {
	if supply, ok := m.supplies[property]; ok {
		return new(big.Int).Set(supply)
	}
	return big.NewInt(0)
}

type mockMinter struct {
	minted map[types.Address]*big.Int
	err    error
}

func newMockMinter() *mockMinter {
	return &mockMinter{minted: make(map[types.Address]*big.Int)}
}

func (m *mockMinter) Mint(recipient types.Address, amount *big.Int) error {
	if m.err != nil {
		return m.err
	}
	total, ok := m.minted[recipient]
	if !ok {
		total = big.NewInt(0)
		m.minted[recipient] = total
	}
	total.Add(total, amount)
	return nil
}

type flatAllocator struct {
	rate *big.Int
}

func (a *flatAllocator) MaxRewardPerBlock(*big.Int) *big.Int   { return new(big.Int).Set(a.rate) }
func (a *flatAllocator) MaxRewardPerBlockAt(*big.Int) *big.Int { return new(big.Int).Set(a.rate) }

func makeAddress(suffix byte) types.Address {
	var addr types.Address
	addr[19] = suffix
	return addr
}

func makeProperty(suffix byte) types.PropertyID {
	var id types.PropertyID
	id[19] = suffix
	return id
}

type harness struct {
	engine    *Engine
	acc       *lockup.Accumulator
	state     *mockState
	registry  *mockRegistry
	ownership *mockOwnership
	minter    *mockMinter
}

// newHarness seeds a committed index with totalStaked locked against the
// property and the geometric mean driving the cap stream (zero disables it).
func newHarness(rate int64, holdersBps uint32, totalStaked, geomMean int64) *harness {
	h := &harness{
		state:     newMockState(),
		registry:  &mockRegistry{authenticated: true},
		ownership: newMockOwnership(),
		minter:    newMockMinter(),
	}
	h.acc = lockup.NewAccumulator(&flatAllocator{rate: big.NewInt(rate)}, lockup.BpsSplitPolicy{Bps: holdersBps})
	h.engine = NewEngine(h.acc, h.registry, h.ownership, h.minter)
	h.engine.SetState(h.state)

	idx := (&lockup.GlobalIndex{
		TotalStaked:        big.NewInt(totalStaked),
		GeometricMeanStake: big.NewInt(geomMean),
	}).Normalize()
	h.acc.SetBlockHeight(0)
	h.acc.Refresh(idx).Apply(idx)
	h.state.idx = idx

	prop := (&lockup.PropertyState{Property: makeProperty(9), TotalStaked: big.NewInt(totalStaked)}).Normalize()
	h.state.props[prop.Property] = prop
	return h
}

// Transferring ownership mid-accrual and withdrawing from both parties pays
// the same total as holding untouched, split by holding durations.
func TestTransferNeutrality(t *testing.T) {
	property := makeProperty(9)
	h1, h2 := makeAddress(1), makeAddress(2)

	transferred := newHarness(500, 5000, 100, 0)
	transferred.ownership.setSupply(property, 1000)
	transferred.ownership.setBalance(h1, property, 1000)

	transferred.acc.SetBlockHeight(10)
	if err := transferred.engine.BeforeBalanceChange(property, h1, h2); err != nil {
		t.Fatalf("transfer hook: %v", err)
	}
	transferred.ownership.setBalance(h1, property, 600)
	transferred.ownership.setBalance(h2, property, 400)

	transferred.acc.SetBlockHeight(20)
	paid1, err := transferred.engine.WithdrawReward(h1, property)
	if err != nil {
		t.Fatalf("withdraw h1: %v", err)
	}
	paid2, err := transferred.engine.WithdrawReward(h2, property)
	if err != nil {
		t.Fatalf("withdraw h2: %v", err)
	}
	if paid1.Cmp(big.NewInt(4000)) != 0 {
		t.Fatalf("h1 paid %s, want 4000", paid1)
	}
	if paid2.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("h2 paid %s, want 1000", paid2)
	}

	control := newHarness(500, 5000, 100, 0)
	control.ownership.setSupply(property, 1000)
	control.ownership.setBalance(h1, property, 1000)
	control.acc.SetBlockHeight(20)
	paidControl, err := control.engine.WithdrawReward(h1, property)
	if err != nil {
		t.Fatalf("control withdraw: %v", err)
	}
	total := new(big.Int).Add(paid1, paid2)
	if total.Cmp(paidControl) != 0 {
		t.Fatalf("transfer changed total payout: %s vs %s", total, paidControl)
	}
}

func TestCapEnforcement(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)

	// Geometric mean above the raw stake dampens the cap stream below the
	// uncapped accrual.
	h := newHarness(500, 5000, 100, 200)
	h.ownership.setSupply(property, 1000)
	h.ownership.setBalance(owner, property, 1000)
	h.acc.SetBlockHeight(10)
	paid, err := h.engine.WithdrawReward(owner, property)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if paid.Cmp(big.NewInt(1250)) != 0 {
		t.Fatalf("capped payout %s, want 1250", paid)
	}
}

func TestZeroCapMeansUncapped(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)

	h := newHarness(500, 5000, 100, 0)
	h.ownership.setSupply(property, 1000)
	h.ownership.setBalance(owner, property, 1000)
	h.acc.SetBlockHeight(10)
	paid, err := h.engine.WithdrawReward(owner, property)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if paid.Cmp(big.NewInt(2500)) != 0 {
		t.Fatalf("uncapped payout %s, want 2500", paid)
	}
}

func TestDoubleWithdraw(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)
	h := newHarness(500, 5000, 100, 0)
	h.ownership.setSupply(property, 1000)
	h.ownership.setBalance(owner, property, 1000)
	h.acc.SetBlockHeight(10)
	if _, err := h.engine.WithdrawReward(owner, property); err != nil {
		t.Fatalf("first withdraw: %v", err)
	}
	if _, err := h.engine.WithdrawReward(owner, property); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("expected ErrNothingToWithdraw, got %v", err)
	}
}

func TestZeroSupplyYieldsZero(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)
	h := newHarness(500, 5000, 100, 0)
	h.acc.SetBlockHeight(10)
	value, err := h.engine.Withdrawable(owner, property)
	if err != nil {
		t.Fatalf("withdrawable: %v", err)
	}
	if value.Sign() != 0 {
		t.Fatalf("expected zero with no issued supply, got %s", value)
	}
}

func TestUnauthenticatedPropertyReportsZero(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)
	h := newHarness(500, 5000, 100, 0)
	h.ownership.setSupply(property, 1000)
	h.ownership.setBalance(owner, property, 1000)
	h.registry.authenticated = false
	h.acc.SetBlockHeight(10)
	value, err := h.engine.Withdrawable(owner, property)
	if err != nil {
		t.Fatalf("withdrawable: %v", err)
	}
	if value.Sign() != 0 {
		t.Fatalf("expected zero, got %s", value)
	}
	if _, err := h.engine.WithdrawReward(owner, property); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestDisabledStakeExcludedFromHolderPool(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)
	h := newHarness(500, 10_000, 100, 0)
	h.ownership.setSupply(property, 1000)
	h.ownership.setBalance(owner, property, 1000)
	h.state.props[property].DisabledStaked = big.NewInt(50)

	h.acc.SetBlockHeight(10)
	paid, err := h.engine.WithdrawReward(owner, property)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	// Holders price delta 50*basis over 10 blocks; only the 50 enabled units
	// feed the property fold.
	if paid.Cmp(big.NewInt(2500)) != 0 {
		t.Fatalf("paid %s, want 2500", paid)
	}
}

func TestMintFailureAbortsWithdrawal(t *testing.T) {
	property := makeProperty(9)
	owner := makeAddress(1)
	h := newHarness(500, 5000, 100, 0)
	h.ownership.setSupply(property, 1000)
	h.ownership.setBalance(owner, property, 1000)
	h.acc.SetBlockHeight(10)

	before, err := h.engine.Withdrawable(owner, property)
	if err != nil {
		t.Fatalf("withdrawable: %v", err)
	}
	h.minter.err = errors.New("treasury offline")
	if _, err := h.engine.WithdrawReward(owner, property); !errors.Is(err, ErrMintFailed) {
		t.Fatalf("expected ErrMintFailed, got %v", err)
	}
	h.minter.err = nil
	after, err := h.engine.Withdrawable(owner, property)
	if err != nil {
		t.Fatalf("withdrawable: %v", err)
	}
	if before.Cmp(after) != 0 {
		t.Fatalf("failed mint changed accounting: %s vs %s", before, after)
	}
}
