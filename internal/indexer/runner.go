package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ammScope/internal/dex"
	"ammScope/internal/model"
	"ammScope/internal/retry"
	"ammScope/internal/storage"
)

// LogSource is the chain surface the runner reads from.
type LogSource interface {
	ChainID(ctx context.Context) (uint64, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// DecodeErrorSink receives logs that failed to decode.
type DecodeErrorSink interface {
	PutDecodeErrors(ctx context.Context, failures []model.DecodeError) error
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock uint64
	// ToBlock of 0 follows the chain head minus Confirmations.
	ToBlock       uint64
	Confirmations uint64
	Pairs         []common.Address
	BatchSize     uint64
	MaxRetries    int
	RetryBackoff  time.Duration
}

// Runner backfills Sync events into reserve snapshots.
type Runner struct {
	cfg        RunConfig
	chain      LogSource
	decoder    *dex.SyncDecoder
	sink       storage.SnapshotSink
	errSink    DecodeErrorSink
	checkpoint Checkpointer
	logger     *zap.Logger
	seen       map[string]struct{}
}

// Option customizes a Runner.
type Option func(*Runner)

// WithCheckpoint resumes from and records progress in cp.
func WithCheckpoint(cp Checkpointer) Option {
	return func(r *Runner) { r.checkpoint = cp }
}

// WithDecodeErrors records undecodable logs in sink.
func WithDecodeErrors(sink DecodeErrorSink) Option {
	return func(r *Runner) { r.errSink = sink }
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainClient LogSource, sink storage.SnapshotSink, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := dex.NewSyncDecoder()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:     cfg,
		chain:   chainClient,
		decoder: decoder,
		sink:    sink,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the indexing loop over the configured range.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("snapshot sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Pairs) == 0 {
		return fmt.Errorf("at least one pair address is required")
	}

	var chainID uint64
	if err := r.withRetry(ctx, "chain id", func(ctx context.Context) (err error) {
		chainID, err = r.chain.ChainID(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	from, to, ok, err := r.bounds(ctx)
	if err != nil {
		return err
	}
	if !ok || from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	var total int
	for _, blockRange := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.processRange(ctx, chainID, blockRange)
		if err != nil {
			return err
		}
		total += n

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, blockRange.To); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}

	r.logger.Info("sync complete", zap.Int("snapshots", total), zap.Uint64("from", from), zap.Uint64("to", to))
	return nil
}

// bounds resolves the block range still to index; ok is false when the head
// has not yet passed the confirmation depth.
func (r *Runner) bounds(ctx context.Context) (from, to uint64, ok bool, err error) {
	from = r.cfg.FromBlock
	to = r.cfg.ToBlock
	if to == 0 {
		var latest uint64
		if err := r.withRetry(ctx, "latest block", func(ctx context.Context) (err error) {
			latest, err = r.chain.LatestBlockNumber(ctx)
			return err
		}); err != nil {
			return 0, 0, false, fmt.Errorf("get latest block: %w", err)
		}
		if latest < r.cfg.Confirmations {
			return from, latest, false, nil
		}
		to = latest - r.cfg.Confirmations
	}

	if r.checkpoint != nil {
		last, found, err := r.checkpoint.Load(ctx)
		if err != nil {
			return 0, 0, false, fmt.Errorf("load checkpoint: %w", err)
		}
		if found && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}
	return from, to, true, nil
}

func (r *Runner) processRange(ctx context.Context, chainID uint64, blockRange BlockRange) (int, error) {
	r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	var logs []types.Log
	err := r.withRetry(ctx, "filter logs", func(ctx context.Context) (err error) {
		logs, err = r.chain.FilterLogs(ctx, blockRange.From, blockRange.To, r.cfg.Pairs, []common.Hash{r.decoder.Topic()})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("filter logs: %w", err)
	}

	ingestedAt := time.Now().UTC().Format(time.RFC3339Nano)
	snapshots := make([]model.ReserveSnapshot, 0, len(logs))
	var failures []model.DecodeError
	for _, log := range logs {
		if log.Removed || r.isDuplicate(log) {
			continue
		}

		var ts uint64
		err := r.withRetry(ctx, "block timestamp", func(ctx context.Context) (err error) {
			ts, err = r.chain.BlockTimestamp(ctx, log.BlockNumber)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}

		raw := toRawLog(chainID, log, ts)
		snap, err := r.decoder.Decode(raw)
		if err != nil {
			r.logger.Warn("decode sync failed", zap.String("id", raw.ID()), zap.Error(err))
			failures = append(failures, model.NewDecodeError(raw, err))
			continue
		}
		snap.IngestedAt = ingestedAt
		snapshots = append(snapshots, snap)
	}

	if err := r.sink.PutSnapshots(ctx, snapshots); err != nil {
		return 0, fmt.Errorf("store snapshots: %w", err)
	}
	if r.errSink != nil && len(failures) > 0 {
		if err := r.errSink.PutDecodeErrors(ctx, failures); err != nil {
			return 0, fmt.Errorf("store decode errors: %w", err)
		}
	}

	r.logger.Info("batch complete",
		zap.Int("snapshots", len(snapshots)),
		zap.Int("failed", len(failures)),
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
	)
	return len(snapshots), nil
}

func (r *Runner) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	policy := retry.Policy{MaxRetries: r.cfg.MaxRetries, BaseDelay: r.cfg.RetryBackoff}
	return retry.Do(ctx, policy, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil {
			r.logger.Warn(op+" failed", zap.Error(err))
		}
		return err
	})
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
