package merkleclaim

import "errors"

var (
	ErrInvalidProof    = errors.New("merkleclaim: invalid proof")
	ErrNothingToClaim  = errors.New("merkleclaim: nothing to claim")
	ErrNoActiveRoot    = errors.New("merkleclaim: no active root")
	ErrNoPendingRoot   = errors.New("merkleclaim: no pending root")
	ErrRootNotReady    = errors.New("merkleclaim: pending root not yet effective")
	ErrZeroRoot        = errors.New("merkleclaim: zero root")
	ErrPenaltyDecrease = errors.New("merkleclaim: confirmed penalty cannot decrease")
	ErrHistoryRange    = errors.New("merkleclaim: history index out of range")
)
