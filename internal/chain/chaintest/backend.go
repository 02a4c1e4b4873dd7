// Package chaintest serves a scripted eth_* namespace over an in-process
// go-ethereum RPC server so chain-facing code can be tested without a node.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"ammScope/internal/chain"
)

// ErrReverted is returned for eth_call requests with no scripted response.
var ErrReverted = errors.New("execution reverted")

// Backend holds the scripted chain state.
type Backend struct {
	mu         sync.Mutex
	chainID    uint64
	head       uint64
	timestamps map[uint64]uint64
	logs       []types.Log
	calls      map[common.Address]map[string][]byte
	failLogs   int
	counts     map[string]int
}

// NewBackend returns an empty chain at block head.
func NewBackend(chainID, head uint64) *Backend {
	return &Backend{
		chainID:    chainID,
		head:       head,
		timestamps: make(map[uint64]uint64),
		calls:      make(map[common.Address]map[string][]byte),
		counts:     make(map[string]int),
	}
}

// SetHead moves the latest block.
func (b *Backend) SetHead(head uint64) {
	b.mu.Lock()
	b.head = head
	b.mu.Unlock()
}

// SetTimestamp sets the header time of block.
func (b *Backend) SetTimestamp(block, ts uint64) {
	b.mu.Lock()
	b.timestamps[block] = ts
	b.mu.Unlock()
}

// AddLogs appends logs served by eth_getLogs.
func (b *Backend) AddLogs(logs ...types.Log) {
	b.mu.Lock()
	b.logs = append(b.logs, logs...)
	b.mu.Unlock()
}

// FailLogs makes the next n eth_getLogs requests fail.
func (b *Backend) FailLogs(n int) {
	b.mu.Lock()
	b.failLogs = n
	b.mu.Unlock()
}

// SetCall scripts the eth_call result for exact calldata sent to to.
func (b *Backend) SetCall(to common.Address, calldata, result []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls[to] == nil {
		b.calls[to] = make(map[string][]byte)
	}
	b.calls[to][hexutil.Encode(calldata)] = result
}

// Count returns how many times the eth_* method was served.
func (b *Backend) Count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[method]
}

// Dial starts an in-process server for b and returns a chain client bound to it.
func Dial(t testing.TB, b *Backend) *chain.Client {
	t.Helper()
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethService{b: b}); err != nil {
		t.Fatalf("register rpc service: %v", err)
	}
	client := chain.NewClientFromRPC(rpc.DialInProc(srv))
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

// CallArgs accepts both the "input" and legacy "data" calldata fields.
type CallArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input *hexutil.Bytes  `json:"input"`
	Data  *hexutil.Bytes  `json:"data"`
}

func (a CallArgs) calldata() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

// FilterArgs is the subset of eth_getLogs criteria the backend honours.
type FilterArgs struct {
	FromBlock *hexutil.Big     `json:"fromBlock"`
	ToBlock   *hexutil.Big     `json:"toBlock"`
	Address   []common.Address `json:"address"`
}

type ethService struct {
	b *Backend
}

func (s *ethService) count(method string) {
	s.b.counts[method]++
}

func (s *ethService) ChainId(ctx context.Context) (*hexutil.Big, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.count("eth_chainId")
	return (*hexutil.Big)(new(big.Int).SetUint64(s.b.chainID)), nil
}

func (s *ethService) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.count("eth_blockNumber")
	return hexutil.Uint64(s.b.head), nil
}

func (s *ethService) GetBlockByNumber(ctx context.Context, number rpc.BlockNumber, fullTx bool) (*types.Header, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.count("eth_getBlockByNumber")

	n := uint64(number.Int64())
	if number < 0 {
		n = s.b.head
	}
	if n > s.b.head {
		return nil, nil
	}
	return &types.Header{
		Number:     new(big.Int).SetUint64(n),
		Time:       s.b.timestamps[n],
		Difficulty: new(big.Int),
		Extra:      []byte{},
	}, nil
}

func (s *ethService) GetLogs(ctx context.Context, crit FilterArgs) ([]types.Log, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.count("eth_getLogs")

	if s.b.failLogs > 0 {
		s.b.failLogs--
		return nil, fmt.Errorf("query timeout exceeded")
	}

	from, to := uint64(0), s.b.head
	if crit.FromBlock != nil {
		from = (*big.Int)(crit.FromBlock).Uint64()
	}
	if crit.ToBlock != nil {
		to = (*big.Int)(crit.ToBlock).Uint64()
	}

	out := make([]types.Log, 0)
	for _, log := range s.b.logs {
		if log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		if len(crit.Address) > 0 && !containsAddress(crit.Address, log.Address) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (s *ethService) Call(ctx context.Context, args CallArgs, block rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.count("eth_call")

	if args.To == nil {
		return nil, ErrReverted
	}
	result, ok := s.b.calls[*args.To][hexutil.Encode(args.calldata())]
	if !ok {
		return nil, ErrReverted
	}
	return result, nil
}

func containsAddress(list []common.Address, target common.Address) bool {
	for _, addr := range list {
		if addr == target {
			return true
		}
	}
	return false
}
