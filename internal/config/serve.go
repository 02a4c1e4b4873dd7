package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Reserve source kinds for the serve command.
const (
	SourceChain  = "chain"
	SourceStore  = "store"
	SourceStatic = "static"
)

// ServeConfig holds configuration for the API server.
type ServeConfig struct {
	Addr           string
	Prefix         string
	Source         string
	RPCURL         string
	Pair           string
	PGDSN          string
	FeeBps         uint32
	MaxOutputBps   uint32
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	Journal        string
	// Static source values, base-unit integer strings.
	Reserve0    string
	Reserve1    string
	TotalSupply string
	LPBalances  map[string]string
	Decimals0   int
	Decimals1   int
	Retry
	Logging
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"addr":            ":3001",
		"prefix":          "/api",
		"source":          SourceChain,
		"fee-bps":         30,
		"cache-ttl":       3 * time.Second,
		"request-timeout": 5 * time.Second,
		"rate-limit":      600.0,
		"rate-burst":      20,
		"decimals0":       -1,
		"decimals1":       -1,
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Addr:           v.GetString("addr"),
		Prefix:         v.GetString("prefix"),
		Source:         strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		RPCURL:         v.GetString("rpc"),
		Pair:           v.GetString("pair"),
		PGDSN:          v.GetString("pg-dsn"),
		FeeBps:         v.GetUint32("fee-bps"),
		MaxOutputBps:   v.GetUint32("max-output-bps"),
		CacheTTL:       v.GetDuration("cache-ttl"),
		RequestTimeout: v.GetDuration("request-timeout"),
		RateLimit:      v.GetFloat64("rate-limit"),
		RateBurst:      v.GetInt("rate-burst"),
		Journal:        v.GetString("journal"),
		Reserve0:       v.GetString("reserve0"),
		Reserve1:       v.GetString("reserve1"),
		TotalSupply:    v.GetString("total-supply"),
		LPBalances:     getStringMap(v, "lp-balances"),
		Decimals0:      v.GetInt("decimals0"),
		Decimals1:      v.GetInt("decimals1"),
		Retry:          loadRetry(v),
		Logging:        loadLogging(v),
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected source has what it needs.
func (c ServeConfig) Validate() error {
	if c.FeeBps >= 10_000 {
		return fmt.Errorf("fee-bps %d must be below 10000", c.FeeBps)
	}
	switch c.Source {
	case SourceChain:
		if c.RPCURL == "" || c.Pair == "" {
			return fmt.Errorf("source %q requires rpc and pair", c.Source)
		}
	case SourceStore:
		if c.PGDSN == "" || c.Pair == "" {
			return fmt.Errorf("source %q requires pg-dsn and pair", c.Source)
		}
	case SourceStatic:
		if c.Reserve0 == "" || c.Reserve1 == "" {
			return fmt.Errorf("source %q requires reserve0 and reserve1", c.Source)
		}
	default:
		return fmt.Errorf("unknown source %q (want chain, store or static)", c.Source)
	}
	for _, d := range []int{c.Decimals0, c.Decimals1} {
		if d > 255 {
			return fmt.Errorf("decimals %d out of range", d)
		}
	}
	return nil
}
