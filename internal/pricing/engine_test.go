package pricing

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classicFee = FeeRate(3000)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big.Int literal: " + s)
	}
	return n
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func pair(r0, r1 *big.Int) ReservePair {
	return ReservePair{Reserve0: r0, Reserve1: r1}
}

func TestQuoteBalancedPool(t *testing.T) {
	reserves := pair(ether(1000), ether(1000))

	q, err := Quote(reserves, SwapRequest{InputAsset: Asset0, AmountIn: ether(100)}, classicFee)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(FormatUnits(q.AmountOut, 18), "90.661089"), "amount out %s", FormatUnits(q.AmountOut, 18))
	assert.Equal(t, int64(934), q.PriceImpactBps)
	assert.Equal(t, ether(100).String(), q.AmountIn.String())
	assert.Equal(t, mustBig("300000000000000000").String(), q.FeeAmount.String())
	assert.Equal(t, mustBig("99700000000000000000").String(), q.AmountInAfterFee.String())
	assert.Equal(t, ether(1100).String(), q.NewReserveIn.String())
	assert.Equal(t, new(big.Int).Sub(ether(1000), q.AmountOut).String(), q.NewReserveOut.String())
}

func TestQuoteRawUnits(t *testing.T) {
	q, err := Quote(pair(big.NewInt(1000), big.NewInt(1000)), SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(100)}, classicFee)
	require.NoError(t, err)

	assert.Equal(t, int64(90), q.AmountOut.Int64())
	assert.Equal(t, int64(1000), q.PriceImpactBps)
	assert.Equal(t, int64(1), q.FeeAmount.Int64())
}

func TestQuoteMatchesRouterFormula(t *testing.T) {
	amountIn := big.NewInt(1_000_000)
	reserves := pair(big.NewInt(100_000_000), mustBig("50000000000000000000"))

	q, err := Quote(reserves, SwapRequest{InputAsset: Asset0, AmountIn: amountIn}, classicFee)
	require.NoError(t, err)

	withFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	num := new(big.Int).Mul(withFee, reserves.Reserve1)
	den := new(big.Int).Mul(reserves.Reserve0, big.NewInt(1000))
	den.Add(den, withFee)
	assert.Equal(t, new(big.Int).Div(num, den).String(), q.AmountOut.String())
}

func TestQuoteErrors(t *testing.T) {
	balanced := pair(big.NewInt(1000), big.NewInt(1000))

	testCases := []struct {
		name     string
		reserves ReservePair
		req      SwapRequest
		fee      FeeRate
		wantErr  error
	}{
		{
			name:     "zero amount",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(0)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "nil amount",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset0},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "negative amount",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset1, AmountIn: big.NewInt(-5)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "empty reserve",
			reserves: pair(big.NewInt(0), big.NewInt(1000)),
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(10)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "nil reserve",
			reserves: ReservePair{Reserve0: big.NewInt(10)},
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(10)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "fee out of range",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(10)},
			fee:      FeeRate(FeeDenominator),
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "unknown asset",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset(7), AmountIn: big.NewInt(10)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "dust input",
			reserves: pair(big.NewInt(1_000_000), big.NewInt(10)),
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(1)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "drains pool",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(10_000_000)},
			fee:      classicFee,
			wantErr:  ErrInsufficientLiquidity,
		},
		{
			name:     "below minimum out",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(100), MinAmountOut: big.NewInt(91)},
			fee:      classicFee,
			wantErr:  ErrSlippageExceeded,
		},
		{
			name:     "negative minimum out",
			reserves: balanced,
			req:      SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(100), MinAmountOut: big.NewInt(-1)},
			fee:      classicFee,
			wantErr:  ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Quote(tc.reserves, tc.req, tc.fee)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestQuoteMinimumOutMet(t *testing.T) {
	q, err := Quote(pair(big.NewInt(1000), big.NewInt(1000)), SwapRequest{
		InputAsset:   Asset0,
		AmountIn:     big.NewInt(100),
		MinAmountOut: big.NewInt(90),
	}, classicFee)
	require.NoError(t, err)
	assert.Equal(t, int64(90), q.AmountOut.Int64())
}

func TestQuoteDoesNotMutateInputs(t *testing.T) {
	r0, r1 := ether(500), ether(700)
	amountIn := ether(3)
	reserves := pair(r0, r1)

	q, err := Quote(reserves, SwapRequest{InputAsset: Asset1, AmountIn: amountIn}, classicFee)
	require.NoError(t, err)

	assert.Equal(t, ether(500).String(), r0.String())
	assert.Equal(t, ether(700).String(), r1.String())
	assert.Equal(t, ether(3).String(), amountIn.String())

	q.AmountIn.SetInt64(0)
	assert.Equal(t, ether(3).String(), amountIn.String())
}

func TestQuoteInvariantGrowth(t *testing.T) {
	reserveSets := []ReservePair{
		pair(big.NewInt(1000), big.NewInt(1000)),
		pair(ether(1000), ether(3)),
		pair(mustBig("123456789012345678901"), mustBig("987654321098765")),
	}
	amounts := []*big.Int{big.NewInt(7), big.NewInt(250), ether(1), ether(42)}

	for _, fee := range []FeeRate{0, 500, classicFee, FeeRateFromBps(100)} {
		for _, reserves := range reserveSets {
			for _, amountIn := range amounts {
				for _, in := range []Asset{Asset0, Asset1} {
					q, err := Quote(reserves, SwapRequest{InputAsset: in, AmountIn: amountIn}, fee)
					if err != nil {
						continue
					}
					reserveIn, reserveOut, _ := reserves.Oriented(in)
					k := new(big.Int).Mul(reserveIn, reserveOut)
					kNext := new(big.Int).Mul(q.NewReserveIn, q.NewReserveOut)
					if fee == 0 {
						assert.GreaterOrEqual(t, kNext.Cmp(k), 0, "fee=0 reserves=%s in=%s", reserves, amountIn)
					} else {
						assert.Equal(t, 1, kNext.Cmp(k), "fee=%d reserves=%s in=%s", fee, reserves, amountIn)
					}

					// no free lunch: amountOut < amountIn * reserveOut / reserveIn
					lhs := new(big.Int).Mul(q.AmountOut, reserveIn)
					rhs := new(big.Int).Mul(amountIn, reserveOut)
					if fee > 0 {
						assert.Equal(t, -1, lhs.Cmp(rhs))
					} else {
						assert.LessOrEqual(t, lhs.Cmp(rhs), 0)
					}
				}
			}
		}
	}
}

func TestQuoteMonotonic(t *testing.T) {
	reserves := pair(ether(1_000), ether(2_000))
	prev := big.NewInt(0)
	for i := int64(1); i <= 60; i++ {
		q, err := Quote(reserves, SwapRequest{InputAsset: Asset0, AmountIn: ether(i * 5)}, classicFee)
		require.NoError(t, err)
		require.Equal(t, 1, q.AmountOut.Cmp(prev), "step %d", i)
		require.Equal(t, -1, q.AmountOut.Cmp(reserves.Reserve1))
		prev = q.AmountOut
	}
}

func TestQuoteSymmetry(t *testing.T) {
	r0, r1 := ether(1234), mustBig("5678000000")
	forward, err := Quote(pair(r0, r1), SwapRequest{InputAsset: Asset0, AmountIn: ether(7)}, classicFee)
	require.NoError(t, err)
	mirrored, err := Quote(pair(r1, r0), SwapRequest{InputAsset: Asset1, AmountIn: ether(7)}, classicFee)
	require.NoError(t, err)

	assert.Equal(t, forward.AmountOut.String(), mirrored.AmountOut.String())
	assert.Equal(t, forward.FeeAmount.String(), mirrored.FeeAmount.String())
	assert.Equal(t, forward.PriceImpactBps, mirrored.PriceImpactBps)
	assert.Equal(t, forward.NewReserveIn.String(), mirrored.NewReserveIn.String())
	assert.Equal(t, forward.NewReserveOut.String(), mirrored.NewReserveOut.String())

	assert.Equal(t, forward.NewReserves().Reserve0.String(), mirrored.NewReserves().Reserve1.String())
	assert.Equal(t, forward.NewReserves().Reserve1.String(), mirrored.NewReserves().Reserve0.String())
}

func TestQuoteRoundTripLoses(t *testing.T) {
	cases := []struct {
		reserves ReservePair
		amountIn *big.Int
	}{
		{pair(ether(1000), ether(1000)), ether(100)},
		{pair(ether(10), ether(90_000)), ether(1)},
		{pair(big.NewInt(1_000_000), big.NewInt(1_000_000)), big.NewInt(1)},
	}
	for _, tc := range cases {
		out, err := Quote(tc.reserves, SwapRequest{InputAsset: Asset0, AmountIn: tc.amountIn}, classicFee)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidInput)
			continue
		}
		back, err := Quote(out.NewReserves(), SwapRequest{InputAsset: Asset1, AmountIn: out.AmountOut}, classicFee)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidInput)
			continue
		}
		assert.Equal(t, -1, back.AmountOut.Cmp(tc.amountIn), "round trip returned %s for %s", back.AmountOut, tc.amountIn)
	}
}

func TestQuoteAmountIn(t *testing.T) {
	reserves := pair(big.NewInt(100_000_000), mustBig("50000000000000000000"))

	for _, want := range []*big.Int{big.NewInt(1), mustBig("493579017198530649"), ether(5)} {
		amountIn, err := QuoteAmountIn(reserves, Asset1, want, classicFee)
		require.NoError(t, err)

		q, err := Quote(reserves, SwapRequest{InputAsset: Asset0, AmountIn: amountIn}, classicFee)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, q.AmountOut.Cmp(want), 0, "in=%s out=%s want=%s", amountIn, q.AmountOut, want)
	}

	_, err := QuoteAmountIn(reserves, Asset1, reserves.Reserve1, classicFee)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = QuoteAmountIn(reserves, Asset1, big.NewInt(0), classicFee)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngine(t *testing.T) {
	_, err := NewEngine(Config{FeeRate: FeeRate(FeeDenominator + 1)})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewEngine(Config{FeeRate: classicFee, MaxOutputBps: 10_001})
	require.ErrorIs(t, err, ErrInvalidInput)

	strict, err := NewEngine(Config{FeeRate: classicFee, MaxOutputBps: 500})
	require.NoError(t, err)
	assert.Equal(t, classicFee, strict.FeeRate())

	reserves := pair(ether(1000), ether(1000))
	_, err = strict.Quote(reserves, SwapRequest{InputAsset: Asset0, AmountIn: ether(100)})
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	unguarded, err := NewEngine(Config{FeeRate: classicFee, MaxOutputBps: 10_000})
	require.NoError(t, err)
	q, err := unguarded.Quote(pair(big.NewInt(1000), big.NewInt(1000)), SwapRequest{InputAsset: Asset0, AmountIn: big.NewInt(10_000_000)})
	require.NoError(t, err)
	assert.Equal(t, int64(999), q.AmountOut.Int64())

	in, err := unguarded.QuoteAmountIn(reserves, Asset1, ether(1))
	require.NoError(t, err)
	assert.Equal(t, 1, in.Cmp(ether(1)))
}

func TestSpotPrice(t *testing.T) {
	price, err := SpotPrice(pair(big.NewInt(400), big.NewInt(1000)), Asset0)
	require.NoError(t, err)
	assert.Equal(t, "2.5", FormatRatio(price))

	price, err = SpotPrice(pair(big.NewInt(400), big.NewInt(1000)), Asset1)
	require.NoError(t, err)
	assert.Equal(t, "0.4", FormatRatio(price))

	_, err = SpotPrice(pair(big.NewInt(0), big.NewInt(1000)), Asset0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseAsset(t *testing.T) {
	for input, want := range map[string]Asset{"0": Asset0, "token0": Asset0, " Token1 ": Asset1, "asset1": Asset1} {
		got, err := ParseAsset(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseAsset("2")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, Asset1, Asset0.Other())
	assert.Equal(t, "token1", Asset1.String())
}

func TestFeeRate(t *testing.T) {
	assert.Equal(t, classicFee, FeeRateFromBps(30))
	assert.Equal(t, "0.3%", classicFee.String())
	assert.Equal(t, "0%", FeeRate(0).String())
	require.NoError(t, FeeRate(999_999).Validate())
	require.ErrorIs(t, FeeRate(1_000_000).Validate(), ErrInvalidInput)
}
