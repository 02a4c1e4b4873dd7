package pricing

import "errors"

var (
	// ErrInvalidInput reports malformed or out-of-range arguments. Never retryable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientLiquidity reports a trade the pool cannot fill without being drained.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrSlippageExceeded reports an output below the caller's floor.
	ErrSlippageExceeded = errors.New("slippage exceeded")
)
