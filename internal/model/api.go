package model

import "time"

// PoolState is the reserves view served at /amm/reserves.
// Quantities are decimal integer strings in base units.
type PoolState struct {
	Pair        string     `json:"pair,omitempty"`
	Reserve0    string     `json:"reserve0"`
	Reserve1    string     `json:"reserve1"`
	TotalSupply string     `json:"totalSupply,omitempty"`
	BlockNumber uint64     `json:"blockNumber"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Token0      *TokenInfo `json:"token0,omitempty"`
	Token1      *TokenInfo `json:"token1,omitempty"`
	// Price0 is token1 per token0, decimal-adjusted when decimals are known.
	Price0  string `json:"price0"`
	Price1  string `json:"price1"`
	FeeRate string `json:"feeRate"`
}

// SimulateSwapRequest is the body of POST /amm/simulate-swap.
type SimulateSwapRequest struct {
	AmountIn     string `json:"amountIn"`
	TokenIn      string `json:"tokenIn"`
	MinAmountOut string `json:"minAmountOut,omitempty"`
}

// SwapQuote is the response of POST /amm/simulate-swap.
type SwapQuote struct {
	TokenIn          string         `json:"tokenIn"`
	TokenOut         string         `json:"tokenOut"`
	AmountIn         string         `json:"amountIn"`
	AmountInAfterFee string         `json:"amountInAfterFee"`
	AmountOut        string         `json:"amountOut"`
	FeeAmount        string         `json:"feeAmount"`
	PriceImpactBps   int64          `json:"priceImpactBps"`
	NewReserve0      string         `json:"newReserve0"`
	NewReserve1      string         `json:"newReserve1"`
	BlockNumber      uint64         `json:"blockNumber"`
	Formatted        *FormattedSwap `json:"formatted,omitempty"`
}

// FormattedSwap carries decimal renderings of a SwapQuote.
type FormattedSwap struct {
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	FeeAmount   string `json:"feeAmount"`
	PriceImpact string `json:"priceImpact"`
}

// SimulateLiquidityRequest is the body of POST /amm/simulate-liquidity.
type SimulateLiquidityRequest struct {
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
	MinLP   string `json:"minLP,omitempty"`
}

// LiquidityQuote is the response of POST /amm/simulate-liquidity.
type LiquidityQuote struct {
	LPMinted       string `json:"lpMinted"`
	ShareBps       int64  `json:"shareBps"`
	Share          string `json:"share"`
	NewReserve0    string `json:"newReserve0"`
	NewReserve1    string `json:"newReserve1"`
	NewTotalSupply string `json:"newTotalSupply"`
	BlockNumber    uint64 `json:"blockNumber"`
}

// LiquidityPosition is the response of GET /amm/liquidity-info/{address}.
type LiquidityPosition struct {
	Address     string `json:"address"`
	LPBalance   string `json:"lpBalance"`
	TotalSupply string `json:"totalSupply"`
	ShareBps    int64  `json:"shareBps"`
	Share       string `json:"share"`
	Amount0     string `json:"amount0"`
	Amount1     string `json:"amount1"`
	BlockNumber uint64 `json:"blockNumber"`
}

// ErrorBody is the JSON envelope for API errors.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
