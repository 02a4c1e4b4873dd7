package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammScope/internal/api"
	"ammScope/internal/chain"
	"ammScope/internal/config"
	"ammScope/internal/dex"
	"ammScope/internal/logging"
	"ammScope/internal/model"
	"ammScope/internal/pricing"
	"ammScope/internal/reserves"
	"ammScope/internal/retry"
	"ammScope/internal/storage"
	"ammScope/internal/storage/postgres"
)

const journalPostgres = "postgres"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the AMM HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", ":3001", "listen address")
	cmd.Flags().String("prefix", "/api", "path prefix for /amm routes")
	cmd.Flags().String("source", config.SourceChain, "reserve source (chain, store, static)")
	cmd.Flags().String("rpc", "", "RPC URL (source=chain)")
	cmd.Flags().String("pair", "", "pair contract address")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (source=store, or journal=postgres)")
	cmd.Flags().Uint32("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().Uint32("max-output-bps", 0, "largest share of a reserve one trade may take (0 = 9900)")
	cmd.Flags().Duration("cache-ttl", 3*time.Second, "reserve cache TTL")
	cmd.Flags().Duration("request-timeout", 5*time.Second, "reserve lookup timeout per request")
	cmd.Flags().Float64("rate-limit", 600, "requests per minute per client (0 disables)")
	cmd.Flags().Int("rate-burst", 20, "rate limit burst")
	cmd.Flags().String("journal", "", "quote journal: JSONL path or \"postgres\"")
	cmd.Flags().String("reserve0", "", "static reserve0 in base units")
	cmd.Flags().String("reserve1", "", "static reserve1 in base units")
	cmd.Flags().String("total-supply", "", "static LP total supply in base units")
	cmd.Flags().StringSlice("lp-balances", nil, "static LP balances (address=amount, comma-separated)")
	cmd.Flags().Int("decimals0", -1, "token0 decimals for formatted output (static/store)")
	cmd.Flags().Int("decimals1", -1, "token1 decimals for formatted output (static/store)")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts for reserve lookups")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServe(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := pricing.NewEngine(pricing.Config{
		FeeRate:      pricing.FeeRateFromBps(cfg.FeeBps),
		MaxOutputBps: cfg.MaxOutputBps,
	})
	if err != nil {
		return err
	}

	var store *postgres.Store
	if cfg.PGDSN != "" && (cfg.Source == config.SourceStore || cfg.Journal == journalPostgres) {
		if store, err = openStore(ctx, cfg.PGDSN, logger); err != nil {
			return err
		}
		defer store.Close()
	}

	deps := api.Deps{Engine: engine, Pair: cfg.Pair}
	var src reserves.Source
	switch cfg.Source {
	case config.SourceChain:
		src, err = chainSource(ctx, cfg, &deps, logger)
		if err != nil {
			return err
		}
	case config.SourceStore:
		pair, err := dex.ParseAddress(cfg.Pair)
		if err != nil {
			return err
		}
		src = reserves.NewStoreSource(store, pair)
	case config.SourceStatic:
		if src, err = staticSource(cfg); err != nil {
			return err
		}
	}
	if deps.Token0 == nil && cfg.Decimals0 >= 0 {
		deps.Token0 = &model.TokenInfo{Decimals: uint8(cfg.Decimals0)}
	}
	if deps.Token1 == nil && cfg.Decimals1 >= 0 {
		deps.Token1 = &model.TokenInfo{Decimals: uint8(cfg.Decimals1)}
	}
	deps.Source = reserves.NewCached(src, cfg.CacheTTL, retry.Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBackoff,
		MaxDelay:   cfg.RequestTimeout,
	}, logger)

	switch cfg.Journal {
	case "":
	case journalPostgres:
		if store == nil {
			return fmt.Errorf("journal=postgres requires pg-dsn")
		}
		deps.Journal = store
	default:
		deps.Journal = storage.NewJsonlStorage(cfg.Journal)
	}

	srv, err := api.New(api.Config{
		Addr:              cfg.Addr,
		Prefix:            cfg.Prefix,
		RequestsPerMinute: cfg.RateLimit,
		Burst:             cfg.RateBurst,
		RequestTimeout:    cfg.RequestTimeout,
	}, deps, logger)
	if err != nil {
		return err
	}

	logger.Info("serve start",
		zap.String("addr", cfg.Addr),
		zap.String("source", cfg.Source),
		zap.String("pair", cfg.Pair),
		zap.String("fee", engine.FeeRate().String()),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("journal", cfg.Journal),
	)
	return srv.Run(ctx)
}

// chainSource dials the node, reads pair token metadata into deps and returns a live source.
func chainSource(ctx context.Context, cfg config.ServeConfig, deps *api.Deps, logger *zap.Logger) (reserves.Source, error) {
	pair, err := dex.ParseAddress(cfg.Pair)
	if err != nil {
		return nil, err
	}
	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	go func() {
		<-ctx.Done()
		client.Close()
	}()

	tokens := dex.NewTokenCache()
	meta, err := dex.FetchPair(ctx, client, pair, tokens, logger)
	if err != nil {
		logger.Warn("pair metadata unavailable", zap.String("pair", pair.Hex()), zap.Error(err))
	} else {
		deps.Pair = meta.Address
		deps.Token0 = knownToken(tokens, meta.Token0)
		deps.Token1 = knownToken(tokens, meta.Token1)
	}
	return reserves.NewChainSource(client, pair)
}

func knownToken(cache *dex.TokenCache, address string) *model.TokenInfo {
	info, ok := cache.Get(common.HexToAddress(address))
	// metadata lookups that failed leave only the address behind
	if !ok || (info.Decimals == 0 && info.Symbol == "") {
		return nil
	}
	return &info
}

func staticSource(cfg config.ServeConfig) (reserves.Source, error) {
	reserve0, err := pricing.ParseAmount(cfg.Reserve0)
	if err != nil {
		return nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := pricing.ParseAmount(cfg.Reserve1)
	if err != nil {
		return nil, fmt.Errorf("reserve1: %w", err)
	}
	var supply *big.Int
	if cfg.TotalSupply != "" {
		if supply, err = pricing.ParseAmount(cfg.TotalSupply); err != nil {
			return nil, fmt.Errorf("total-supply: %w", err)
		}
	}

	balances := make(map[common.Address]*big.Int, len(cfg.LPBalances))
	for owner, amount := range cfg.LPBalances {
		addr, err := dex.ParseAddress(owner)
		if err != nil {
			return nil, fmt.Errorf("lp-balances: %w", err)
		}
		balance, err := pricing.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("lp-balances %s: %w", owner, err)
		}
		balances[addr] = balance
	}
	return reserves.NewStatic(pricing.NewReservePair(reserve0, reserve1), supply, balances), nil
}
