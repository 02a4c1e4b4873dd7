package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"ammScope/internal/client"
	"ammScope/internal/config"
	"ammScope/internal/model"
	"ammScope/internal/pricing"
)

type removeLiquidityOutput struct {
	LPBurned       string `json:"lpBurned"`
	Amount0        string `json:"amount0"`
	Amount1        string `json:"amount1"`
	NewReserve0    string `json:"newReserve0"`
	NewReserve1    string `json:"newReserve1"`
	NewTotalSupply string `json:"newTotalSupply"`
}

func newLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidity",
		Short: "Simulate adding or removing liquidity",
		RunE:  runLiquidity,
	}

	cmd.Flags().String("reserve0", "0", "reserve of token0 in base units")
	cmd.Flags().String("reserve1", "0", "reserve of token1 in base units")
	cmd.Flags().String("total-supply", "0", "LP token supply in base units (0 = first deposit)")
	cmd.Flags().String("amount0", "", "token0 deposit in base units")
	cmd.Flags().String("amount1", "", "token1 deposit in base units")
	cmd.Flags().String("min-lp", "", "reject deposits minting less than this")
	cmd.Flags().String("burn", "", "simulate burning this many LP tokens instead")
	cmd.Flags().String("remote", "", "API base URL, e.g. http://localhost:3001/api")
	cmd.Flags().Duration("timeout", 10*time.Second, "remote request timeout")
	return cmd
}

func runLiquidity(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadLiquidity(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	if cfg.Remote != "" {
		if cfg.Burn != "" {
			return fmt.Errorf("--burn is only available offline")
		}
		c, err := client.New(cfg.Remote, client.WithTimeout(cfg.Timeout))
		if err != nil {
			return err
		}
		quote, err := c.SimulateLiquidity(cmd.Context(), model.SimulateLiquidityRequest{
			Amount0: cfg.Amount0,
			Amount1: cfg.Amount1,
			MinLP:   cfg.MinLP,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), quote)
	}

	out, err := localLiquidity(cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func localLiquidity(cfg config.LiquidityConfig) (any, error) {
	values := map[string]string{
		"reserve0":     cfg.Reserve0,
		"reserve1":     cfg.Reserve1,
		"total-supply": cfg.TotalSupply,
	}
	parsed := make(map[string]*big.Int, len(values))
	for name, value := range values {
		v, err := pricing.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		parsed[name] = v
	}
	res := pricing.NewReservePair(parsed["reserve0"], parsed["reserve1"])
	supply := parsed["total-supply"]

	if cfg.Burn != "" {
		lp, err := pricing.ParseAmount(cfg.Burn)
		if err != nil {
			return nil, fmt.Errorf("burn: %w", err)
		}
		q, err := pricing.QuoteRemoveLiquidity(res, supply, lp)
		if err != nil {
			return nil, err
		}
		return removeLiquidityOutput{
			LPBurned:       q.LPBurned.String(),
			Amount0:        q.Amount0.String(),
			Amount1:        q.Amount1.String(),
			NewReserve0:    q.NewReserves.Reserve0.String(),
			NewReserve1:    q.NewReserves.Reserve1.String(),
			NewTotalSupply: q.NewTotalSupply.String(),
		}, nil
	}

	req := pricing.LiquidityRequest{}
	var err error
	if req.Amount0, err = pricing.ParseAmount(cfg.Amount0); err != nil {
		return nil, fmt.Errorf("amount0: %w", err)
	}
	if req.Amount1, err = pricing.ParseAmount(cfg.Amount1); err != nil {
		return nil, fmt.Errorf("amount1: %w", err)
	}
	if cfg.MinLP != "" {
		if req.MinLP, err = pricing.ParseAmount(cfg.MinLP); err != nil {
			return nil, fmt.Errorf("min-lp: %w", err)
		}
	}

	q, err := pricing.QuoteAddLiquidity(res, supply, req)
	if err != nil {
		return nil, err
	}
	return model.LiquidityQuote{
		LPMinted:       q.LPMinted.String(),
		ShareBps:       q.ShareBps,
		Share:          pricing.FormatRatio(q.Share),
		NewReserve0:    q.NewReserves.Reserve0.String(),
		NewReserve1:    q.NewReserves.Reserve1.String(),
		NewTotalSupply: q.NewTotalSupply.String(),
	}, nil
}
