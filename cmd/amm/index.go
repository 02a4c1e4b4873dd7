package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammScope/internal/chain"
	"ammScope/internal/config"
	"ammScope/internal/dex"
	"ammScope/internal/indexer"
	"ammScope/internal/logging"
	"ammScope/internal/model"
	"ammScope/internal/storage"
	"ammScope/internal/storage/postgres"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Backfill pair Sync events into reserve snapshots",
		RunE:  runIndex,
	}

	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().StringSlice("pair", nil, "pair addresses (comma-separated)")
	cmd.Flags().Uint64("from", 0, "start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means head minus confirmations")
	cmd.Flags().Uint64("confirmations", 0, "blocks to stay behind the head when --to is 0")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per eth_getLogs request")
	cmd.Flags().String("out", "./data/snapshots.jsonl", "output JSONL path (without --pg-dsn)")
	cmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL path")
	cmd.Flags().String("pg-dsn", "", "write snapshots and checkpoint to Postgres")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (without --pg-dsn)")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().String("checkpoint-name", "sync", "checkpoint row name in indexer_state (with --pg-dsn)")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadIndex(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pairs, err := dex.ParseAddresses(cfg.Pairs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	var (
		sink storage.SnapshotSink
		cp   indexer.Checkpointer
		opts []indexer.Option
	)
	if cfg.PGDSN != "" {
		store, err := openStore(ctx, cfg.PGDSN, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		registerPairs(ctx, chainClient, store, pairs, cfg.FromBlock, logger)
		sink = store
		cp = &indexer.DBCheckpoint{Store: store, Name: cfg.CheckpointName}
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
		cp = indexer.NewFileCheckpoint(cfg.Checkpoint)
	}
	if cfg.CheckpointEnabled {
		opts = append(opts, indexer.WithCheckpoint(cp))
	}
	if cfg.Errors != "" {
		opts = append(opts, indexer.WithDecodeErrors(storage.NewJsonlStorage(cfg.Errors)))
	}

	runner, err := indexer.NewRunner(indexer.RunConfig{
		FromBlock:     cfg.FromBlock,
		ToBlock:       cfg.ToBlock,
		Confirmations: cfg.Confirmations,
		Pairs:         pairs,
		BatchSize:     cfg.BatchSize,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, chainClient, sink, logger, opts...)
	if err != nil {
		return err
	}

	logger.Info("indexer start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("confirmations", cfg.Confirmations),
		zap.Int("pairs", len(pairs)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}

// registerPairs stores token0/token1 for each pair. Failures only warn; snapshots do not depend on them.
func registerPairs(ctx context.Context, client *chain.Client, store *postgres.Store, pairs []common.Address, firstSeen uint64, logger *zap.Logger) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		logger.Warn("pair registration skipped", zap.Error(err))
		return
	}

	records := make([]model.Pair, 0, len(pairs))
	for _, pair := range pairs {
		meta, err := dex.FetchPair(ctx, client, pair, nil, logger)
		if err != nil {
			logger.Warn("pair metadata fetch failed", zap.String("pair", pair.Hex()), zap.Error(err))
			continue
		}
		meta.ChainID = chainID
		meta.FirstSeenBlock = firstSeen
		records = append(records, meta)
	}
	if err := store.UpsertPairs(ctx, records); err != nil {
		logger.Warn("pair registration failed", zap.Error(err))
	}
}
