// Package pricing implements constant-product (x*y=k) quoting for a two-asset pool.
//
// All arithmetic is exact integer math over base units. Every function is pure: inputs are
// never mutated and results are freshly allocated, so quotes may be computed concurrently.
package pricing

import (
	"fmt"
	"math/big"
)

// DefaultMaxOutputBps caps a single quote at 99% of the output reserve.
const DefaultMaxOutputBps = 9_900

// Config controls engine behavior.
type Config struct {
	FeeRate FeeRate
	// MaxOutputBps is the largest share of reserveOut one trade may withdraw.
	// Zero selects DefaultMaxOutputBps; 10000 disables the guard.
	MaxOutputBps uint32
}

// Engine quotes swaps and liquidity changes at a fixed fee.
type Engine struct {
	fee          FeeRate
	maxOutputBps uint32
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.FeeRate.Validate(); err != nil {
		return nil, err
	}
	maxOut := cfg.MaxOutputBps
	if maxOut == 0 {
		maxOut = DefaultMaxOutputBps
	}
	if maxOut > bpsDenominator {
		return nil, fmt.Errorf("%w: max output %d bps exceeds %d", ErrInvalidInput, maxOut, bpsDenominator)
	}
	return &Engine{fee: cfg.FeeRate, maxOutputBps: maxOut}, nil
}

// FeeRate returns the engine's fee.
func (e *Engine) FeeRate() FeeRate {
	return e.fee
}

// SwapRequest describes an exact-input swap.
type SwapRequest struct {
	InputAsset Asset
	AmountIn   *big.Int
	// MinAmountOut is optional; nil means no floor.
	MinAmountOut *big.Int
}

// SwapQuote is the deterministic result of pricing a swap.
// NewReserveIn/NewReserveOut are proposed values; committing them is the caller's job.
type SwapQuote struct {
	InputAsset       Asset
	AmountIn         *big.Int
	AmountInAfterFee *big.Int
	AmountOut        *big.Int
	FeeAmount        *big.Int
	PriceImpactBps   int64
	NewReserveIn     *big.Int
	NewReserveOut    *big.Int
}

// NewReserves returns the proposed post-trade reserves in pool order.
func (q SwapQuote) NewReserves() ReservePair {
	return fromOriented(q.InputAsset, q.NewReserveIn, q.NewReserveOut)
}

// Quote prices req against reserves with the engine's fee.
func (e *Engine) Quote(reserves ReservePair, req SwapRequest) (SwapQuote, error) {
	return quote(reserves, req, e.fee, e.maxOutputBps)
}

// QuoteAmountIn returns the input needed to receive at least amountOut of outputAsset.
func (e *Engine) QuoteAmountIn(reserves ReservePair, outputAsset Asset, amountOut *big.Int) (*big.Int, error) {
	return QuoteAmountIn(reserves, outputAsset, amountOut, e.fee)
}

// Quote prices req against reserves at feeRate using DefaultMaxOutputBps.
func Quote(reserves ReservePair, req SwapRequest, feeRate FeeRate) (SwapQuote, error) {
	return quote(reserves, req, feeRate, DefaultMaxOutputBps)
}

func quote(reserves ReservePair, req SwapRequest, feeRate FeeRate, maxOutputBps uint32) (SwapQuote, error) {
	if err := feeRate.Validate(); err != nil {
		return SwapQuote{}, err
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return SwapQuote{}, fmt.Errorf("%w: amount in must be greater than zero", ErrInvalidInput)
	}
	if req.MinAmountOut != nil && req.MinAmountOut.Sign() < 0 {
		return SwapQuote{}, fmt.Errorf("%w: min amount out must not be negative", ErrInvalidInput)
	}

	reserveIn, reserveOut, err := reserves.Oriented(req.InputAsset)
	if err != nil {
		return SwapQuote{}, err
	}

	// amountOut = floor(x*(D-f)*Y / (X*D + x*(D-f)))
	// Equivalent to Y - ceil(k / (X + x*(1-f))) without truncating the fee-adjusted input,
	// so the post-trade out-reserve is rounded up and amountOut is never overstated.
	amountInWithFee := new(big.Int).Mul(req.AmountIn, feeRate.complement())
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDenominator)
	denominator.Add(denominator, amountInWithFee)
	amountOut := new(big.Int).Quo(numerator, denominator)

	if amountOut.Sign() == 0 {
		return SwapQuote{}, fmt.Errorf("%w: amount in %s is too small to produce output", ErrInvalidInput, req.AmountIn)
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return SwapQuote{}, fmt.Errorf("%w: amount out %s would drain reserve %s", ErrInsufficientLiquidity, amountOut, reserveOut)
	}
	if exceedsShare(amountOut, reserveOut, maxOutputBps) {
		return SwapQuote{}, fmt.Errorf("%w: amount out %s exceeds %d bps of reserve %s", ErrInsufficientLiquidity, amountOut, maxOutputBps, reserveOut)
	}
	if req.MinAmountOut != nil && amountOut.Cmp(req.MinAmountOut) < 0 {
		return SwapQuote{}, fmt.Errorf("%w: amount out %s below minimum %s", ErrSlippageExceeded, amountOut, req.MinAmountOut)
	}

	afterFee := new(big.Int).Quo(amountInWithFee, feeDenominator)
	feeAmount := new(big.Int).Sub(req.AmountIn, afterFee)

	return SwapQuote{
		InputAsset:       req.InputAsset,
		AmountIn:         new(big.Int).Set(req.AmountIn),
		AmountInAfterFee: afterFee,
		AmountOut:        amountOut,
		FeeAmount:        feeAmount,
		PriceImpactBps:   priceImpactBps(req.AmountIn, amountOut, reserveIn, reserveOut),
		NewReserveIn:     new(big.Int).Add(reserveIn, req.AmountIn),
		NewReserveOut:    new(big.Int).Sub(reserveOut, amountOut),
	}, nil
}

// QuoteAmountIn returns the input needed to receive at least amountOut of outputAsset,
// rounded up by one base unit the way the V2 router does.
func QuoteAmountIn(reserves ReservePair, outputAsset Asset, amountOut *big.Int, feeRate FeeRate) (*big.Int, error) {
	if err := feeRate.Validate(); err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount out must be greater than zero", ErrInvalidInput)
	}
	if !outputAsset.valid() {
		return nil, fmt.Errorf("%w: unknown asset %d", ErrInvalidInput, uint8(outputAsset))
	}
	reserveIn, reserveOut, err := reserves.Oriented(outputAsset.Other())
	if err != nil {
		return nil, err
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: requested %s is >= reserve %s", ErrInsufficientLiquidity, amountOut, reserveOut)
	}

	// amountIn = floor(X*y*D / ((Y-y)*(D-f))) + 1
	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, feeDenominator)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeRate.complement())

	amountIn := numerator.Quo(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// SpotPrice returns the marginal price of base in units of the other asset.
func SpotPrice(reserves ReservePair, base Asset) (*big.Rat, error) {
	reserveBase, reserveQuote, err := reserves.Oriented(base)
	if err != nil {
		return nil, err
	}
	return new(big.Rat).SetFrac(reserveQuote, reserveBase), nil
}

// priceImpactBps compares the execution price amountOut/amountIn with the spot price
// reserveOut/reserveIn, rounding half up.
func priceImpactBps(amountIn, amountOut, reserveIn, reserveOut *big.Int) int64 {
	spot := new(big.Int).Mul(amountIn, reserveOut)
	exec := new(big.Int).Mul(amountOut, reserveIn)
	shortfall := new(big.Int).Sub(spot, exec)
	if shortfall.Sign() <= 0 {
		return 0
	}
	shortfall.Mul(shortfall, bpsScale)

	// floor((2n + d) / 2d)
	num := new(big.Int).Lsh(shortfall, 1)
	num.Add(num, spot)
	den := new(big.Int).Lsh(spot, 1)
	return num.Quo(num, den).Int64()
}

func exceedsShare(amount, reserve *big.Int, maxBps uint32) bool {
	if maxBps >= bpsDenominator {
		return false
	}
	lhs := new(big.Int).Mul(amount, bpsScale)
	rhs := new(big.Int).Mul(reserve, big.NewInt(int64(maxBps)))
	return lhs.Cmp(rhs) > 0
}
