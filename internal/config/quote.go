package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the offline quote command.
type QuoteConfig struct {
	Reserve0     string
	Reserve1     string
	AmountIn     string
	AmountOut    string
	TokenIn      string
	MinAmountOut string
	FeeBps       uint32
	MaxOutputBps uint32
	// Decimals, when positive, makes amounts decimal strings in token units.
	Decimals uint8
	ExactOut bool
	Remote   string
	Timeout  time.Duration
	Logging
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"token-in": "token0",
		"fee-bps":  30,
		"timeout":  10 * time.Second,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	decimals := v.GetUint("decimals")
	if decimals > 255 {
		return QuoteConfig{}, fmt.Errorf("decimals %d out of range", decimals)
	}
	cfg := QuoteConfig{
		Reserve0:     v.GetString("reserve0"),
		Reserve1:     v.GetString("reserve1"),
		AmountIn:     v.GetString("amount-in"),
		AmountOut:    v.GetString("amount-out"),
		TokenIn:      v.GetString("token-in"),
		MinAmountOut: v.GetString("min-amount-out"),
		FeeBps:       v.GetUint32("fee-bps"),
		MaxOutputBps: v.GetUint32("max-output-bps"),
		Decimals:     uint8(decimals),
		ExactOut:     v.GetBool("exact-out"),
		Remote:       v.GetString("remote"),
		Timeout:      v.GetDuration("timeout"),
		Logging:      loadLogging(v),
	}

	switch {
	case cfg.ExactOut && cfg.AmountOut == "":
		return cfg, fmt.Errorf("--exact-out requires amount-out")
	case !cfg.ExactOut && cfg.AmountIn == "":
		return cfg, fmt.Errorf("amount-in is required")
	case cfg.Remote == "" && (cfg.Reserve0 == "" || cfg.Reserve1 == ""):
		return cfg, fmt.Errorf("reserve0 and reserve1 are required without --remote")
	case cfg.FeeBps >= 10_000:
		return cfg, fmt.Errorf("fee-bps %d must be below 10000", cfg.FeeBps)
	}
	return cfg, nil
}

// LiquidityConfig holds configuration for the offline liquidity command.
type LiquidityConfig struct {
	Reserve0    string
	Reserve1    string
	TotalSupply string
	Amount0     string
	Amount1     string
	MinLP       string
	// Burn, if set, simulates removing that many LP tokens instead of a deposit.
	Burn    string
	Remote  string
	Timeout time.Duration
	Logging
}

// LoadLiquidity merges config file, environment variables, and flags into LiquidityConfig.
func LoadLiquidity(cfgFile string, flags *pflag.FlagSet) (LiquidityConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"total-supply": "0",
		"reserve0":     "0",
		"reserve1":     "0",
		"timeout":      10 * time.Second,
	})
	if err != nil {
		return LiquidityConfig{}, err
	}

	cfg := LiquidityConfig{
		Reserve0:    v.GetString("reserve0"),
		Reserve1:    v.GetString("reserve1"),
		TotalSupply: v.GetString("total-supply"),
		Amount0:     v.GetString("amount0"),
		Amount1:     v.GetString("amount1"),
		MinLP:       v.GetString("min-lp"),
		Burn:        v.GetString("burn"),
		Remote:      v.GetString("remote"),
		Timeout:     v.GetDuration("timeout"),
		Logging:     loadLogging(v),
	}
	if cfg.Burn == "" && (cfg.Amount0 == "" || cfg.Amount1 == "") {
		return cfg, fmt.Errorf("amount0 and amount1 are required")
	}
	return cfg, nil
}
