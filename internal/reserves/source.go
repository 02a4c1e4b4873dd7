// Package reserves provides the pool state that quotes are priced against.
//
// A Source returns a consistent point-in-time Snapshot; it never commits anything.
// ChainSource reads the pair contract, StoreSource reads the latest indexed Sync event,
// Static serves fixed values and Cached puts a TTL cache with retries in front of any of them.
package reserves

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/pricing"
)

var (
	// ErrUnavailable reports that the source could not produce reserves right now.
	ErrUnavailable = errors.New("reserves unavailable")
	// ErrUnsupported reports a lookup the source cannot answer at all.
	ErrUnsupported = errors.New("not supported by reserve source")
)

// Snapshot is the pool state at one block.
// TotalSupply is nil when the source does not track LP supply.
type Snapshot struct {
	Reserves    pricing.ReservePair
	TotalSupply *big.Int
	BlockNumber uint64
	UpdatedAt   time.Time
}

// Source yields pool snapshots and LP balances.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	LPBalance(ctx context.Context, owner common.Address) (*big.Int, error)
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Reserves:    pricing.NewReservePair(s.Reserves.Reserve0, s.Reserves.Reserve1),
		BlockNumber: s.BlockNumber,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.TotalSupply != nil {
		out.TotalSupply = new(big.Int).Set(s.TotalSupply)
	}
	return out
}
