package points

import "errors"

var (
	ErrZeroAddress       = errors.New("points: zero address")
	ErrZeroAmount        = errors.New("points: amount must be positive")
	ErrModuleInactive    = errors.New("points: module inactive")
	ErrBatchTooLarge     = errors.New("points: batch exceeds size cap")
	ErrLengthMismatch    = errors.New("points: array length mismatch")
	ErrIndexOutOfRange   = errors.New("points: index out of range")
	ErrAmountOutOfRange  = errors.New("points: amount exceeds representable range")
	ErrRateOutOfRange    = errors.New("points: rate exceeds configured bound")
	ErrInsufficientStake = errors.New("points: amount exceeds staked balance")
	ErrPositionInactive  = errors.New("points: position already closed")
	ErrPositionCapSpent  = errors.New("points: lifetime position cap reached")
	ErrLockDurationRange = errors.New("points: lock duration out of range")
)
