package types

import "encoding/hex"

// Address identifies a staking account or reward recipient.
type Address [20]byte

// PropertyID identifies a registered asset accruing staking rewards.
type PropertyID [20]byte

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether the address is the zero value, used to denote the
// absent party of an ownership mint or burn.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Bytes returns the raw property identifier bytes.
func (p PropertyID) Bytes() []byte { return p[:] }

func (p PropertyID) String() string { return hex.EncodeToString(p[:]) }
