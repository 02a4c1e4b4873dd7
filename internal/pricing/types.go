package pricing

import (
	"fmt"
	"math/big"
	"strings"
)

// Asset selects one side of a two-asset pool.
type Asset uint8

const (
	Asset0 Asset = iota
	Asset1
)

// Other returns the opposite side of the pool.
func (a Asset) Other() Asset {
	if a == Asset0 {
		return Asset1
	}
	return Asset0
}

func (a Asset) String() string {
	switch a {
	case Asset0:
		return "token0"
	case Asset1:
		return "token1"
	default:
		return fmt.Sprintf("asset(%d)", uint8(a))
	}
}

func (a Asset) valid() bool {
	return a == Asset0 || a == Asset1
}

// ParseAsset accepts "0", "1", "token0", "token1", "asset0" or "asset1".
func ParseAsset(input string) (Asset, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "0", "token0", "asset0":
		return Asset0, nil
	case "1", "token1", "asset1":
		return Asset1, nil
	default:
		return 0, fmt.Errorf("%w: unknown asset %q", ErrInvalidInput, input)
	}
}

// ReservePair is a point-in-time snapshot of pool reserves in base units.
// The engine never mutates the values it is given.
type ReservePair struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// NewReservePair copies both reserves.
func NewReservePair(reserve0, reserve1 *big.Int) ReservePair {
	return ReservePair{Reserve0: cloneOrZero(reserve0), Reserve1: cloneOrZero(reserve1)}
}

// Initialized reports whether both reserves are positive.
func (r ReservePair) Initialized() bool {
	return r.Reserve0 != nil && r.Reserve1 != nil && r.Reserve0.Sign() > 0 && r.Reserve1.Sign() > 0
}

// Reserve returns the reserve held for asset a.
func (r ReservePair) Reserve(a Asset) *big.Int {
	if a == Asset1 {
		return r.Reserve1
	}
	return r.Reserve0
}

// Oriented returns (reserveIn, reserveOut) for a trade paying in asset in.
func (r ReservePair) Oriented(in Asset) (*big.Int, *big.Int, error) {
	if !in.valid() {
		return nil, nil, fmt.Errorf("%w: unknown asset %d", ErrInvalidInput, uint8(in))
	}
	if !r.Initialized() {
		return nil, nil, fmt.Errorf("%w: reserves must be greater than zero", ErrInvalidInput)
	}
	return r.Reserve(in), r.Reserve(in.Other()), nil
}

func (r ReservePair) String() string {
	return fmt.Sprintf("(%s, %s)", intString(r.Reserve0), intString(r.Reserve1))
}

func fromOriented(in Asset, reserveIn, reserveOut *big.Int) ReservePair {
	if in == Asset0 {
		return ReservePair{Reserve0: reserveIn, Reserve1: reserveOut}
	}
	return ReservePair{Reserve0: reserveOut, Reserve1: reserveIn}
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
