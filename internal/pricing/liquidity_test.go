package pricing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteLiquidityShareFirstDeposit(t *testing.T) {
	q, err := QuoteLiquidityShare(ReservePair{}, big.NewInt(0), big.NewInt(100), big.NewInt(400))
	require.NoError(t, err)

	assert.Equal(t, int64(200), q.LPMinted.Int64())
	assert.Equal(t, int64(10_000), q.ShareBps)
	assert.Equal(t, "1", FormatRatio(q.Share))
	assert.Equal(t, int64(200), q.NewTotalSupply.Int64())
	assert.Equal(t, "(100, 400)", q.NewReserves.String())
}

func TestQuoteLiquiditySharePreservesRatio(t *testing.T) {
	reserves := pair(big.NewInt(1000), big.NewInt(4000))

	q, err := QuoteLiquidityShare(reserves, big.NewInt(2000), big.NewInt(100), big.NewInt(800))
	require.NoError(t, err)

	// amount0 side is scarcer: 100*2000/1000 = 200 vs 800*2000/4000 = 400
	assert.Equal(t, int64(200), q.LPMinted.Int64())
	assert.Equal(t, int64(909), q.ShareBps)
	assert.Equal(t, int64(2200), q.NewTotalSupply.Int64())
	assert.Equal(t, "(1100, 4800)", q.NewReserves.String())

	assert.Equal(t, int64(1000), reserves.Reserve0.Int64())
	assert.Equal(t, int64(4000), reserves.Reserve1.Int64())
}

func TestQuoteLiquidityShareErrors(t *testing.T) {
	testCases := []struct {
		name     string
		reserves ReservePair
		supply   *big.Int
		amount0  *big.Int
		amount1  *big.Int
	}{
		{"zero amount0", pair(big.NewInt(10), big.NewInt(10)), big.NewInt(10), big.NewInt(0), big.NewInt(5)},
		{"nil amount1", pair(big.NewInt(10), big.NewInt(10)), big.NewInt(10), big.NewInt(5), nil},
		{"negative supply", ReservePair{}, big.NewInt(-1), big.NewInt(5), big.NewInt(5)},
		{"supply without reserves", ReservePair{}, big.NewInt(10), big.NewInt(5), big.NewInt(5)},
		{"dust deposit", pair(big.NewInt(1_000_000), big.NewInt(1_000_000)), big.NewInt(1000), big.NewInt(1), big.NewInt(1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QuoteLiquidityShare(tc.reserves, tc.supply, tc.amount0, tc.amount1)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestQuoteAddLiquidityMinLP(t *testing.T) {
	reserves := pair(big.NewInt(1000), big.NewInt(4000))

	_, err := QuoteAddLiquidity(reserves, big.NewInt(2000), LiquidityRequest{
		Amount0: big.NewInt(100),
		Amount1: big.NewInt(800),
		MinLP:   big.NewInt(201),
	})
	require.ErrorIs(t, err, ErrSlippageExceeded)

	q, err := QuoteAddLiquidity(reserves, big.NewInt(2000), LiquidityRequest{
		Amount0: big.NewInt(100),
		Amount1: big.NewInt(800),
		MinLP:   big.NewInt(200),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), q.LPMinted.Int64())

	_, err = QuoteAddLiquidity(reserves, big.NewInt(2000), LiquidityRequest{
		Amount0: big.NewInt(100),
		Amount1: big.NewInt(800),
		MinLP:   big.NewInt(-1),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuoteRemoveLiquidity(t *testing.T) {
	reserves := pair(big.NewInt(1000), big.NewInt(4000))

	q, err := QuoteRemoveLiquidity(reserves, big.NewInt(2000), big.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, int64(250), q.Amount0.Int64())
	assert.Equal(t, int64(1000), q.Amount1.Int64())
	assert.Equal(t, "(750, 3000)", q.NewReserves.String())
	assert.Equal(t, int64(1500), q.NewTotalSupply.Int64())

	all, err := QuoteRemoveLiquidity(reserves, big.NewInt(2000), big.NewInt(2000))
	require.NoError(t, err)
	assert.Equal(t, "(0, 0)", all.NewReserves.String())

	_, err = QuoteRemoveLiquidity(reserves, big.NewInt(2000), big.NewInt(2001))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = QuoteRemoveLiquidity(reserves, big.NewInt(0), big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = QuoteRemoveLiquidity(reserves, big.NewInt(2000), big.NewInt(0))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddThenRemoveNeverProfits(t *testing.T) {
	reserves := pair(ether(1000), ether(3000))
	supply := ether(1700)

	added, err := QuoteLiquidityShare(reserves, supply, ether(10), ether(45))
	require.NoError(t, err)

	removed, err := QuoteRemoveLiquidity(added.NewReserves, added.NewTotalSupply, added.LPMinted)
	require.NoError(t, err)

	assert.LessOrEqual(t, removed.Amount0.Cmp(ether(10)), 0)
	assert.LessOrEqual(t, removed.Amount1.Cmp(ether(45)), 0)
}
