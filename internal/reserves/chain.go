package reserves

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/dex"
	"ammScope/internal/pricing"
)

// ChainSource reads reserves and LP balances from the pair contract.
type ChainSource struct {
	reader *dex.PairReader
}

// NewChainSource reads pair through caller.
func NewChainSource(caller dex.BlockCaller, pair common.Address) (*ChainSource, error) {
	reader, err := dex.NewPairReader(caller, pair)
	if err != nil {
		return nil, err
	}
	return &ChainSource{reader: reader}, nil
}

func (s *ChainSource) Snapshot(ctx context.Context) (Snapshot, error) {
	state, err := s.reader.State(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read pair %s: %w", ErrUnavailable, s.reader.Address().Hex(), err)
	}
	snap := Snapshot{
		Reserves:    pricing.ReservePair{Reserve0: state.Reserve0, Reserve1: state.Reserve1},
		TotalSupply: state.TotalSupply,
		BlockNumber: state.BlockNumber,
		UpdatedAt:   time.Now().UTC(),
	}
	if state.BlockTimestampLast > 0 {
		snap.UpdatedAt = time.Unix(int64(state.BlockTimestampLast), 0).UTC()
	}
	return snap, nil
}

func (s *ChainSource) LPBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	balance, err := s.reader.BalanceOf(ctx, owner, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: read balance of %s: %w", ErrUnavailable, owner.Hex(), err)
	}
	return balance, nil
}
