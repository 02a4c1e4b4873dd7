package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"ammScope/internal/client"
	"ammScope/internal/config"
	"ammScope/internal/model"
	"ammScope/internal/pricing"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against given reserves or a running API",
		RunE:  runQuote,
	}

	cmd.Flags().String("reserve0", "", "reserve of token0")
	cmd.Flags().String("reserve1", "", "reserve of token1")
	cmd.Flags().String("amount-in", "", "exact input amount")
	cmd.Flags().String("amount-out", "", "desired output amount (with --exact-out)")
	cmd.Flags().String("token-in", "token0", "input side (token0/token1, 0/1, or a token address with --remote)")
	cmd.Flags().String("min-amount-out", "", "reject quotes below this output")
	cmd.Flags().Uint32("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().Uint32("max-output-bps", 0, "largest share of a reserve one trade may take (0 = 9900)")
	cmd.Flags().Uint("decimals", 0, "treat amounts as decimal token units with this many decimals")
	cmd.Flags().Bool("exact-out", false, "solve for the input that buys --amount-out")
	cmd.Flags().String("remote", "", "API base URL, e.g. http://localhost:3001/api")
	cmd.Flags().Duration("timeout", 10*time.Second, "remote request timeout")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadQuote(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	var quote model.SwapQuote
	if cfg.Remote != "" {
		quote, err = remoteQuote(cmd.Context(), cfg)
	} else {
		quote, err = localQuote(cfg)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), quote)
}

func localQuote(cfg config.QuoteConfig) (model.SwapQuote, error) {
	parse := amountParser(cfg.Decimals)
	reserve0, err := parse(cfg.Reserve0)
	if err != nil {
		return model.SwapQuote{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := parse(cfg.Reserve1)
	if err != nil {
		return model.SwapQuote{}, fmt.Errorf("reserve1: %w", err)
	}
	asset, err := pricing.ParseAsset(cfg.TokenIn)
	if err != nil {
		return model.SwapQuote{}, err
	}
	engine, err := pricing.NewEngine(pricing.Config{
		FeeRate:      pricing.FeeRateFromBps(cfg.FeeBps),
		MaxOutputBps: cfg.MaxOutputBps,
	})
	if err != nil {
		return model.SwapQuote{}, err
	}

	res := pricing.NewReservePair(reserve0, reserve1)
	req := pricing.SwapRequest{InputAsset: asset}
	if cfg.ExactOut {
		amountOut, err := parse(cfg.AmountOut)
		if err != nil {
			return model.SwapQuote{}, fmt.Errorf("amount-out: %w", err)
		}
		if req.AmountIn, err = engine.QuoteAmountIn(res, asset.Other(), amountOut); err != nil {
			return model.SwapQuote{}, err
		}
		req.MinAmountOut = amountOut
	} else if req.AmountIn, err = parse(cfg.AmountIn); err != nil {
		return model.SwapQuote{}, fmt.Errorf("amount-in: %w", err)
	}
	if cfg.MinAmountOut != "" {
		if req.MinAmountOut, err = parse(cfg.MinAmountOut); err != nil {
			return model.SwapQuote{}, fmt.Errorf("min-amount-out: %w", err)
		}
	}

	q, err := engine.Quote(res, req)
	if err != nil {
		return model.SwapQuote{}, err
	}
	newReserves := q.NewReserves()
	out := model.SwapQuote{
		TokenIn:          asset.String(),
		TokenOut:         asset.Other().String(),
		AmountIn:         q.AmountIn.String(),
		AmountInAfterFee: q.AmountInAfterFee.String(),
		AmountOut:        q.AmountOut.String(),
		FeeAmount:        q.FeeAmount.String(),
		PriceImpactBps:   q.PriceImpactBps,
		NewReserve0:      newReserves.Reserve0.String(),
		NewReserve1:      newReserves.Reserve1.String(),
	}
	if cfg.Decimals > 0 {
		out.Formatted = &model.FormattedSwap{
			AmountIn:    pricing.FormatUnits(q.AmountIn, cfg.Decimals),
			AmountOut:   pricing.FormatUnits(q.AmountOut, cfg.Decimals),
			FeeAmount:   pricing.FormatUnits(q.FeeAmount, cfg.Decimals),
			PriceImpact: pricing.FormatRatio(big.NewRat(q.PriceImpactBps, 100)) + "%",
		}
	}
	return out, nil
}

func remoteQuote(ctx context.Context, cfg config.QuoteConfig) (model.SwapQuote, error) {
	if cfg.ExactOut {
		return model.SwapQuote{}, fmt.Errorf("--exact-out is only available offline")
	}
	parse := amountParser(cfg.Decimals)
	amountIn, err := parse(cfg.AmountIn)
	if err != nil {
		return model.SwapQuote{}, fmt.Errorf("amount-in: %w", err)
	}
	req := model.SimulateSwapRequest{AmountIn: amountIn.String(), TokenIn: cfg.TokenIn}
	if cfg.MinAmountOut != "" {
		minOut, err := parse(cfg.MinAmountOut)
		if err != nil {
			return model.SwapQuote{}, fmt.Errorf("min-amount-out: %w", err)
		}
		req.MinAmountOut = minOut.String()
	}

	c, err := client.New(cfg.Remote, client.WithTimeout(cfg.Timeout))
	if err != nil {
		return model.SwapQuote{}, err
	}
	return c.SimulateSwap(ctx, req)
}

// amountParser reads base units, or token units when decimals is positive.
func amountParser(decimals uint8) func(string) (*big.Int, error) {
	if decimals == 0 {
		return pricing.ParseAmount
	}
	return func(s string) (*big.Int, error) {
		return pricing.ParseUnits(s, decimals)
	}
}
