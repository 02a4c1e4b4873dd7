package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// BlockCaller can pin eth_calls to a block height.
type BlockCaller interface {
	Caller
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// PairState is a consistent read of a pair at one block.
type PairState struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	TotalSupply        *big.Int
	BlockNumber        uint64
	BlockTimestampLast uint32
}

// PairReader reads live reserves and LP balances from a pair contract.
type PairReader struct {
	caller BlockCaller
	pair   common.Address
	abi    abi.ABI
}

// NewPairReader builds a reader for pair.
func NewPairReader(caller BlockCaller, pair common.Address) (*PairReader, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	parsed, err := PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	return &PairReader{caller: caller, pair: pair, abi: parsed}, nil
}

// Address returns the pair address.
func (r *PairReader) Address() common.Address {
	return r.pair
}

// State reads getReserves and totalSupply at the latest block.
func (r *PairReader) State(ctx context.Context) (PairState, error) {
	blockNumber, err := r.caller.LatestBlockNumber(ctx)
	if err != nil {
		return PairState{}, fmt.Errorf("get latest block: %w", err)
	}
	block := new(big.Int).SetUint64(blockNumber)

	values, err := callMethod(ctx, r.caller, r.pair, r.abi, block, "getReserves")
	if err != nil {
		return PairState{}, err
	}
	if len(values) != 3 {
		return PairState{}, fmt.Errorf("unexpected getReserves values: %d", len(values))
	}
	reserve0, err := asBigInt(values[0])
	if err != nil {
		return PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return PairState{}, fmt.Errorf("reserve1: %w", err)
	}
	tsLast, err := asBigInt(values[2])
	if err != nil {
		return PairState{}, fmt.Errorf("block timestamp last: %w", err)
	}

	supply, err := r.uint256(ctx, block, "totalSupply")
	if err != nil {
		return PairState{}, err
	}

	return PairState{
		Reserve0:           reserve0,
		Reserve1:           reserve1,
		TotalSupply:        supply,
		BlockNumber:        blockNumber,
		BlockTimestampLast: uint32(tsLast.Uint64()),
	}, nil
}

// BalanceOf returns the LP token balance of owner at blockNumber; 0 means latest.
func (r *PairReader) BalanceOf(ctx context.Context, owner common.Address, blockNumber uint64) (*big.Int, error) {
	var block *big.Int
	if blockNumber > 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}
	return r.uint256(ctx, block, "balanceOf", owner)
}

func (r *PairReader) uint256(ctx context.Context, block *big.Int, method string, args ...interface{}) (*big.Int, error) {
	values, err := callMethod(ctx, r.caller, r.pair, r.abi, block, method, args...)
	if err != nil {
		return nil, err
	}
	v, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}
