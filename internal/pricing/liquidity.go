package pricing

import (
	"fmt"
	"math/big"
)

// LiquidityRequest describes a deposit into the pool.
type LiquidityRequest struct {
	Amount0 *big.Int
	Amount1 *big.Int
	// MinLP is optional; nil means no floor.
	MinLP *big.Int
}

// LiquidityQuote is the simulated result of a deposit.
type LiquidityQuote struct {
	LPMinted       *big.Int
	Share          *big.Rat
	ShareBps       int64
	NewReserves    ReservePair
	NewTotalSupply *big.Int
}

// RemoveLiquidityQuote is the simulated result of burning LP tokens.
type RemoveLiquidityQuote struct {
	LPBurned       *big.Int
	Amount0        *big.Int
	Amount1        *big.Int
	NewReserves    ReservePair
	NewTotalSupply *big.Int
}

// QuoteLiquidityShare simulates a deposit of amount0/amount1.
//
// The first deposit mints sqrt(amount0*amount1). Later deposits mint the smaller of the two
// proportional amounts, so an imbalanced deposit never mints more than its scarcer side justifies.
func QuoteLiquidityShare(reserves ReservePair, totalSupply, amount0, amount1 *big.Int) (LiquidityQuote, error) {
	if amount0 == nil || amount1 == nil || amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		return LiquidityQuote{}, fmt.Errorf("%w: both deposit amounts must be greater than zero", ErrInvalidInput)
	}
	supply := cloneOrZero(totalSupply)
	if supply.Sign() < 0 {
		return LiquidityQuote{}, fmt.Errorf("%w: total supply must not be negative", ErrInvalidInput)
	}

	var minted *big.Int
	if supply.Sign() == 0 {
		product := new(big.Int).Mul(amount0, amount1)
		minted = product.Sqrt(product)
	} else {
		if !reserves.Initialized() {
			return LiquidityQuote{}, fmt.Errorf("%w: pool with supply %s has empty reserves", ErrInvalidInput, supply)
		}
		lp0 := new(big.Int).Mul(amount0, supply)
		lp0.Quo(lp0, reserves.Reserve0)
		lp1 := new(big.Int).Mul(amount1, supply)
		lp1.Quo(lp1, reserves.Reserve1)
		minted = lp0
		if lp1.Cmp(lp0) < 0 {
			minted = lp1
		}
	}
	if minted.Sign() == 0 {
		return LiquidityQuote{}, fmt.Errorf("%w: deposit too small to mint liquidity", ErrInvalidInput)
	}

	newSupply := new(big.Int).Add(supply, minted)
	shareBps := new(big.Int).Mul(minted, bpsScale)
	shareBps.Quo(shareBps, newSupply)

	return LiquidityQuote{
		LPMinted: minted,
		Share:    new(big.Rat).SetFrac(minted, newSupply),
		ShareBps: shareBps.Int64(),
		NewReserves: ReservePair{
			Reserve0: new(big.Int).Add(cloneOrZero(reserves.Reserve0), amount0),
			Reserve1: new(big.Int).Add(cloneOrZero(reserves.Reserve1), amount1),
		},
		NewTotalSupply: newSupply,
	}, nil
}

// QuoteAddLiquidity is QuoteLiquidityShare with the optional MinLP floor applied.
func QuoteAddLiquidity(reserves ReservePair, totalSupply *big.Int, req LiquidityRequest) (LiquidityQuote, error) {
	if req.MinLP != nil && req.MinLP.Sign() < 0 {
		return LiquidityQuote{}, fmt.Errorf("%w: min lp must not be negative", ErrInvalidInput)
	}
	q, err := QuoteLiquidityShare(reserves, totalSupply, req.Amount0, req.Amount1)
	if err != nil {
		return LiquidityQuote{}, err
	}
	if req.MinLP != nil && q.LPMinted.Cmp(req.MinLP) < 0 {
		return LiquidityQuote{}, fmt.Errorf("%w: lp minted %s below minimum %s", ErrSlippageExceeded, q.LPMinted, req.MinLP)
	}
	return q, nil
}

// QuoteRemoveLiquidity returns the reserves redeemable for lp tokens, rounded down.
func QuoteRemoveLiquidity(reserves ReservePair, totalSupply, lp *big.Int) (RemoveLiquidityQuote, error) {
	if lp == nil || lp.Sign() <= 0 {
		return RemoveLiquidityQuote{}, fmt.Errorf("%w: lp amount must be greater than zero", ErrInvalidInput)
	}
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return RemoveLiquidityQuote{}, fmt.Errorf("%w: pool has no liquidity supply", ErrInvalidInput)
	}
	if lp.Cmp(totalSupply) > 0 {
		return RemoveLiquidityQuote{}, fmt.Errorf("%w: lp amount %s exceeds supply %s", ErrInvalidInput, lp, totalSupply)
	}
	if !reserves.Initialized() {
		return RemoveLiquidityQuote{}, fmt.Errorf("%w: reserves must be greater than zero", ErrInvalidInput)
	}

	amount0 := new(big.Int).Mul(lp, reserves.Reserve0)
	amount0.Quo(amount0, totalSupply)
	amount1 := new(big.Int).Mul(lp, reserves.Reserve1)
	amount1.Quo(amount1, totalSupply)

	return RemoveLiquidityQuote{
		LPBurned: new(big.Int).Set(lp),
		Amount0:  amount0,
		Amount1:  amount1,
		NewReserves: ReservePair{
			Reserve0: new(big.Int).Sub(reserves.Reserve0, amount0),
			Reserve1: new(big.Int).Sub(reserves.Reserve1, amount1),
		},
		NewTotalSupply: new(big.Int).Sub(totalSupply, lp),
	}, nil
}
