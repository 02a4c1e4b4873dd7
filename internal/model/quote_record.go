package model

import "time"

// Quote kinds stored in QuoteRecord.Kind.
const (
	QuoteKindSwap      = "swap"
	QuoteKindLiquidity = "liquidity"
)

// QuoteRecord is a journal entry for one served simulation.
// Amount fields are decimal integer strings; unused fields are empty.
type QuoteRecord struct {
	Kind           string    `json:"kind"`
	Pair           string    `json:"pair,omitempty"`
	BlockNumber    uint64    `json:"block_number"`
	Reserve0       string    `json:"reserve0"`
	Reserve1       string    `json:"reserve1"`
	TokenIn        string    `json:"token_in,omitempty"`
	AmountIn       string    `json:"amount_in,omitempty"`
	AmountOut      string    `json:"amount_out,omitempty"`
	Amount0        string    `json:"amount0,omitempty"`
	Amount1        string    `json:"amount1,omitempty"`
	LPMinted       string    `json:"lp_minted,omitempty"`
	PriceImpactBps int64     `json:"price_impact_bps"`
	Outcome        string    `json:"outcome"`
	CreatedAt      time.Time `json:"created_at"`
}
