package reserves

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/pricing"
)

// Static serves fixed reserves, for demos and offline use.
type Static struct {
	snapshot Snapshot
	balances map[common.Address]*big.Int
}

// NewStatic copies its inputs. Owners missing from balances hold nothing.
func NewStatic(reserves pricing.ReservePair, totalSupply *big.Int, balances map[common.Address]*big.Int) *Static {
	snap := Snapshot{
		Reserves:    reserves,
		TotalSupply: totalSupply,
		UpdatedAt:   time.Now().UTC(),
	}
	s := &Static{
		snapshot: snap.clone(),
		balances: make(map[common.Address]*big.Int, len(balances)),
	}
	for owner, balance := range balances {
		s.balances[owner] = new(big.Int).Set(balance)
	}
	return s
}

func (s *Static) Snapshot(context.Context) (Snapshot, error) {
	return s.snapshot.clone(), nil
}

func (s *Static) LPBalance(_ context.Context, owner common.Address) (*big.Int, error) {
	if balance, ok := s.balances[owner]; ok {
		return new(big.Int).Set(balance), nil
	}
	return new(big.Int), nil
}
