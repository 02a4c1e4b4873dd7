package reserves

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/pricing"
	"ammScope/internal/storage"
)

// StoreSource serves the latest indexed Sync snapshot for a pair.
// Sync events carry no LP supply, so TotalSupply is nil and LPBalance is unsupported.
type StoreSource struct {
	reader storage.SnapshotReader
	pair   string
}

func NewStoreSource(reader storage.SnapshotReader, pair common.Address) *StoreSource {
	return &StoreSource{reader: reader, pair: pair.Hex()}
}

func (s *StoreSource) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, ok, err := s.reader.LatestSnapshot(ctx, s.pair)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: load snapshot: %w", ErrUnavailable, err)
	}
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: no snapshot indexed for %s", ErrUnavailable, s.pair)
	}

	reserve0, ok0 := new(big.Int).SetString(snap.Reserve0, 10)
	reserve1, ok1 := new(big.Int).SetString(snap.Reserve1, 10)
	if !ok0 || !ok1 {
		return Snapshot{}, fmt.Errorf("%w: malformed reserves at block %d", ErrUnavailable, snap.BlockNumber)
	}

	return Snapshot{
		Reserves:    pricing.ReservePair{Reserve0: reserve0, Reserve1: reserve1},
		BlockNumber: snap.BlockNumber,
		UpdatedAt:   time.Unix(int64(snap.Timestamp), 0).UTC(),
	}, nil
}

func (s *StoreSource) LPBalance(context.Context, common.Address) (*big.Int, error) {
	return nil, fmt.Errorf("%w: indexed snapshots carry no lp balances", ErrUnsupported)
}
