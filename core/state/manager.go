package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"

	"propstake/core/types"
	"propstake/native/holders"
	"propstake/native/lockup"
	"propstake/storage"
)

// Manager persists engine state as RLP-encoded records in a key-value
// database. It satisfies the narrow state interfaces both engines consume.
type Manager struct {
	db storage.Database
}

func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, raw)
}

// GetGlobalIndex loads the accumulator index, or nil when none is persisted.
func (m *Manager) GetGlobalIndex() (*lockup.GlobalIndex, error) {
	stored := new(storedGlobalIndex)
	ok, err := m.get(globalIndexKey, stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toGlobalIndex(), nil
}

func (m *Manager) PutGlobalIndex(idx *lockup.GlobalIndex) error {
	return m.put(globalIndexKey, newStoredGlobalIndex(idx))
}

func (m *Manager) GetProperty(property types.PropertyID) (*lockup.PropertyState, error) {
	stored := new(storedProperty)
	ok, err := m.get(propertyKey(property), stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toPropertyState(property), nil
}

func (m *Manager) PutProperty(prop *lockup.PropertyState) error {
	if prop == nil {
		return nil
	}
	return m.put(propertyKey(prop.Property), newStoredProperty(prop))
}

func (m *Manager) GetStakeSnap(property types.PropertyID, owner types.Address) (*lockup.StakeSnap, error) {
	stored := new(storedStakeSnap)
	ok, err := m.get(stakeSnapKey(property, owner), stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toStakeSnap(property, owner), nil
}

func (m *Manager) PutStakeSnap(snap *lockup.StakeSnap) error {
	if snap == nil {
		return nil
	}
	return m.put(stakeSnapKey(snap.Property, snap.Owner), newStoredStakeSnap(snap))
}

func (m *Manager) GetHolderSnap(property types.PropertyID, owner types.Address) (*holders.HolderSnap, error) {
	stored := new(storedHolderSnap)
	ok, err := m.get(holderSnapKey(property, owner), stored)
	if err != nil || !ok {
		return nil, err
	}
	return stored.toHolderSnap(property, owner), nil
}

func (m *Manager) PutHolderSnap(snap *holders.HolderSnap) error {
	if snap == nil {
		return nil
	}
	return m.put(holderSnapKey(snap.Property, snap.Owner), newStoredHolderSnap(snap))
}
