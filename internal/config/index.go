package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// IndexConfig holds configuration for the Sync indexer.
type IndexConfig struct {
	RPCURL            string
	Pairs             []string
	FromBlock         uint64
	ToBlock           uint64
	Confirmations     uint64
	BatchSize         uint64
	Out               string
	Errors            string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	CheckpointName    string
	Retry
	Logging
}

// LoadIndex merges config file, environment variables, and flags into IndexConfig.
func LoadIndex(cfgFile string, flags *pflag.FlagSet) (IndexConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"batch-size":         uint64(2000),
		"out":                "./data/snapshots.jsonl",
		"errors":             "./data/decode_errors.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"checkpoint-name":    "sync",
		"max-retries":        5,
	})
	if err != nil {
		return IndexConfig{}, err
	}

	cfg := IndexConfig{
		RPCURL:            v.GetString("rpc"),
		Pairs:             getStringSlice(v, "pair"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Confirmations:     v.GetUint64("confirmations"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		Errors:            v.GetString("errors"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		CheckpointName:    v.GetString("checkpoint-name"),
		Retry:             loadRetry(v),
		Logging:           loadLogging(v),
	}

	if cfg.RPCURL == "" {
		return cfg, fmt.Errorf("rpc url is required")
	}
	if len(cfg.Pairs) == 0 {
		return cfg, fmt.Errorf("at least one pair is required")
	}
	if cfg.BatchSize == 0 {
		return cfg, fmt.Errorf("batch-size must be greater than zero")
	}
	if cfg.ToBlock != 0 && cfg.ToBlock < cfg.FromBlock {
		return cfg, fmt.Errorf("to block %d is before from block %d", cfg.ToBlock, cfg.FromBlock)
	}
	return cfg, nil
}
