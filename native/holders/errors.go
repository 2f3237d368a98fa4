package holders

import "errors"

var (
	ErrNilState          = errors.New("holders: state not configured")
	ErrNotAuthenticated  = errors.New("holders: property not authenticated")
	ErrNothingToWithdraw = errors.New("holders: no reward to withdraw")
	ErrMintFailed        = errors.New("holders: mint declined")
)
