package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammScope/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for pairs, reserve snapshots and quotes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertPairs inserts or updates pair metadata.
func (s *Store) UpsertPairs(ctx context.Context, pairs []model.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pair := range pairs {
		batch.Queue(`
			INSERT INTO pairs (
				chain_id, pair_address, token0, token1, fee_ppm, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (chain_id, pair_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee_ppm = EXCLUDED.fee_ppm,
				first_seen_block = LEAST(pairs.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pair.ChainID),
			normalizeAddress(pair.Address),
			pair.Token0,
			pair.Token1,
			int64(pair.FeePPM),
			int64(pair.FirstSeenBlock),
		)
	}
	return s.sendBatch(ctx, batch, len(pairs))
}

// PutSnapshots inserts reserve snapshots, ignoring ones already stored.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.ReserveSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		reserve0, err := numeric(snap.Reserve0)
		if err != nil {
			return fmt.Errorf("snapshot %d:%d reserve0: %w", snap.BlockNumber, snap.LogIndex, err)
		}
		reserve1, err := numeric(snap.Reserve1)
		if err != nil {
			return fmt.Errorf("snapshot %d:%d reserve1: %w", snap.BlockNumber, snap.LogIndex, err)
		}
		batch.Queue(`
			INSERT INTO reserve_snapshots (
				chain_id, pair_address, block_number, block_hash, tx_hash, log_index,
				reserve0, reserve1, block_ts, ingested_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (chain_id, pair_address, block_number, log_index) DO NOTHING
		`,
			int64(snap.ChainID),
			normalizeAddress(snap.Pair),
			int64(snap.BlockNumber),
			snap.BlockHash,
			snap.TxHash,
			int64(snap.LogIndex),
			reserve0,
			reserve1,
			int64(snap.Timestamp),
		)
	}
	return s.sendBatch(ctx, batch, len(snapshots))
}

// LatestSnapshot returns the newest snapshot stored for pair.
func (s *Store) LatestSnapshot(ctx context.Context, pair string) (model.ReserveSnapshot, bool, error) {
	var snap model.ReserveSnapshot
	var chainID, blockNumber, logIndex, ts int64
	row := s.pool.QueryRow(ctx, `
		SELECT chain_id, pair_address, block_number, block_hash, tx_hash, log_index,
			reserve0::text, reserve1::text, block_ts, ingested_at::text
		FROM reserve_snapshots
		WHERE pair_address = $1
		ORDER BY block_number DESC, log_index DESC
		LIMIT 1
	`, normalizeAddress(pair))
	err := row.Scan(&chainID, &snap.Pair, &blockNumber, &snap.BlockHash, &snap.TxHash, &logIndex,
		&snap.Reserve0, &snap.Reserve1, &ts, &snap.IngestedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ReserveSnapshot{}, false, nil
		}
		return model.ReserveSnapshot{}, false, fmt.Errorf("query latest snapshot: %w", err)
	}
	snap.ChainID = uint64(chainID)
	snap.BlockNumber = uint64(blockNumber)
	snap.LogIndex = uint64(logIndex)
	snap.Timestamp = uint64(ts)
	return snap, true, nil
}

// PutQuotes appends quote journal entries.
func (s *Store) PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		args := []interface{}{q.Kind, nullable(normalizeAddress(q.Pair)), int64(q.BlockNumber)}
		for _, value := range []string{q.Reserve0, q.Reserve1} {
			n, err := numeric(value)
			if err != nil {
				return fmt.Errorf("quote reserves: %w", err)
			}
			args = append(args, n)
		}
		args = append(args, nullable(q.TokenIn))
		for _, value := range []string{q.AmountIn, q.AmountOut, q.Amount0, q.Amount1, q.LPMinted} {
			n, err := numeric(value)
			if err != nil {
				return fmt.Errorf("quote amounts: %w", err)
			}
			args = append(args, n)
		}
		args = append(args, q.PriceImpactBps, q.Outcome, q.CreatedAt)

		batch.Queue(`
			INSERT INTO quotes (
				kind, pair_address, block_number, reserve0, reserve1, token_in,
				amount_in, amount_out, amount0, amount1, lp_minted,
				price_impact_bps, outcome, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, args...)
	}
	return s.sendBatch(ctx, batch, len(quotes))
}

// LoadState returns the last processed block for a named cursor.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts the last processed block for a named cursor.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// numeric converts a decimal integer string; "" becomes SQL NULL.
func numeric(value string) (pgtype.Numeric, error) {
	if value == "" {
		return pgtype.Numeric{}, nil
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return pgtype.Numeric{}, fmt.Errorf("invalid integer %q", value)
	}
	return pgtype.Numeric{Int: n, Valid: true}, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
