package pricing

import (
	"fmt"
	"math/big"
)

// FeeDenominator is the fixed-point scale of FeeRate (parts per million).
const FeeDenominator = 1_000_000

const bpsDenominator = 10_000

var (
	feeDenominator = big.NewInt(FeeDenominator)
	bpsScale       = big.NewInt(bpsDenominator)
)

// FeeRate is the swap fee charged on amountIn, in parts per million.
// 3000 is the classic 0.3% constant-product fee.
type FeeRate uint32

// FeeRateFromBps converts basis points into a FeeRate.
func FeeRateFromBps(bps uint32) FeeRate {
	return FeeRate(bps * (FeeDenominator / bpsDenominator))
}

// Validate checks the rate lies in [0, 1).
func (f FeeRate) Validate() error {
	if f >= FeeDenominator {
		return fmt.Errorf("%w: fee rate %d ppm must be below %d", ErrInvalidInput, uint32(f), FeeDenominator)
	}
	return nil
}

// Rat returns the fee as an exact fraction.
func (f FeeRate) Rat() *big.Rat {
	return big.NewRat(int64(f), FeeDenominator)
}

func (f FeeRate) String() string {
	pct := new(big.Rat).Mul(f.Rat(), big.NewRat(100, 1))
	return trimZeros(pct.FloatString(4)) + "%"
}

// complement returns D - fee.
func (f FeeRate) complement() *big.Int {
	return big.NewInt(int64(FeeDenominator - uint32(f)))
}
