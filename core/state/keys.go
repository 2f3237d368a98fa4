package state

import "propstake/core/types"

// Persisted record kinds are addressed by deterministic composite keys:
// a kind prefix followed by the raw property and owner identifiers. This
// replaces hashed-string key derivation with typed, collision-free layout.
var (
	globalIndexKey   = []byte("lockup/global")
	propertyPrefix   = []byte("lockup/property/")
	stakeSnapPrefix  = []byte("lockup/snap/")
	holderSnapPrefix = []byte("holders/snap/")
)

func propertyKey(property types.PropertyID) []byte {
	key := make([]byte, 0, len(propertyPrefix)+len(property))
	key = append(key, propertyPrefix...)
	return append(key, property.Bytes()...)
}

func stakeSnapKey(property types.PropertyID, owner types.Address) []byte {
	key := make([]byte, 0, len(stakeSnapPrefix)+len(property)+len(owner))
	key = append(key, stakeSnapPrefix...)
	key = append(key, property.Bytes()...)
	return append(key, owner.Bytes()...)
}

func holderSnapKey(property types.PropertyID, owner types.Address) []byte {
	key := make([]byte, 0, len(holderSnapPrefix)+len(property)+len(owner))
	key = append(key, holderSnapPrefix...)
	key = append(key, property.Bytes()...)
	return append(key, owner.Bytes()...)
}
