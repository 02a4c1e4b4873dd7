package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ammScope/internal/chain/chaintest"
)

var (
	testPair   = common.HexToAddress("0x0000000000000000000000000000000000000abc")
	testToken0 = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testToken1 = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func script(t *testing.T, b *chaintest.Backend, parsed abi.ABI, to common.Address, method string, args []interface{}, outputs ...interface{}) {
	t.Helper()
	calldata, err := parsed.Pack(method, args...)
	require.NoError(t, err)
	result, err := parsed.Methods[method].Outputs.Pack(outputs...)
	require.NoError(t, err)
	b.SetCall(to, calldata, result)
}

func TestPairReaderState(t *testing.T) {
	parsed, err := PairABI()
	require.NoError(t, err)

	backend := chaintest.NewBackend(56, 123)
	script(t, backend, parsed, testPair, "getReserves", nil, big.NewInt(1_000_000), big.NewInt(2_000_000), uint32(1700000000))
	script(t, backend, parsed, testPair, "totalSupply", nil, big.NewInt(1_414_213))
	script(t, backend, parsed, testPair, "balanceOf", []interface{}{testOwner}, big.NewInt(70_710))

	reader, err := NewPairReader(chaintest.Dial(t, backend), testPair)
	require.NoError(t, err)
	assert.Equal(t, testPair, reader.Address())

	state, err := reader.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000000", state.Reserve0.String())
	assert.Equal(t, "2000000", state.Reserve1.String())
	assert.Equal(t, "1414213", state.TotalSupply.String())
	assert.Equal(t, uint64(123), state.BlockNumber)
	assert.Equal(t, uint32(1700000000), state.BlockTimestampLast)

	balance, err := reader.BalanceOf(context.Background(), testOwner, state.BlockNumber)
	require.NoError(t, err)
	assert.Equal(t, "70710", balance.String())

	_, err = reader.BalanceOf(context.Background(), testToken0, 0)
	require.Error(t, err)
}

func TestPairReaderRevert(t *testing.T) {
	backend := chaintest.NewBackend(56, 1)
	reader, err := NewPairReader(chaintest.Dial(t, backend), testPair)
	require.NoError(t, err)

	_, err = reader.State(context.Background())
	require.ErrorContains(t, err, "call getReserves")
}

func TestFetchPairFillsTokenCache(t *testing.T) {
	parsed, err := PairABI()
	require.NoError(t, err)
	stringABI, err := erc20ABIString.get()
	require.NoError(t, err)
	bytes32ABI, err := erc20ABIBytes32.get()
	require.NoError(t, err)

	backend := chaintest.NewBackend(56, 10)
	script(t, backend, parsed, testPair, "token0", nil, testToken0)
	script(t, backend, parsed, testPair, "token1", nil, testToken1)

	script(t, backend, stringABI, testToken0, "decimals", nil, uint8(18))
	script(t, backend, stringABI, testToken0, "symbol", nil, "WETH")
	script(t, backend, stringABI, testToken0, "name", nil, "Wrapped Ether")

	var symbol [32]byte
	copy(symbol[:], "MKR")
	script(t, backend, stringABI, testToken1, "decimals", nil, uint8(6))
	script(t, backend, bytes32ABI, testToken1, "symbol", nil, symbol)

	cache := NewTokenCache()
	pair, err := FetchPair(context.Background(), chaintest.Dial(t, backend), testPair, cache, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, testToken0.Hex(), pair.Token0)
	assert.Equal(t, testToken1.Hex(), pair.Token1)

	info0, ok := cache.Get(testToken0)
	require.True(t, ok)
	assert.Equal(t, uint8(18), info0.Decimals)
	assert.Equal(t, "WETH", info0.Symbol)
	assert.Equal(t, "Wrapped Ether", info0.Name)

	info1, ok := cache.Get(testToken1)
	require.True(t, ok)
	assert.Equal(t, uint8(6), info1.Decimals)
	assert.Equal(t, "MKR", info1.Symbol)
	assert.Empty(t, info1.Name)
}
