package lockup

import "errors"

var (
	ErrNilState           = errors.New("lockup: state not configured")
	ErrUnauthorized       = errors.New("lockup: unauthorized")
	ErrInvalidAmount      = errors.New("lockup: amount must be positive")
	ErrInsufficientStake  = errors.New("lockup: amount exceeds staked balance")
	ErrNotAuthenticated   = errors.New("lockup: property not authenticated")
	ErrNothingToWithdraw  = errors.New("lockup: no reward to withdraw")
	ErrAlreadyInitialized = errors.New("lockup: genesis checkpoint already set")
	ErrMintFailed         = errors.New("lockup: mint declined")
)
