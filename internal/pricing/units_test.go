package pricing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	testCases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{mustBig("1500000000000000000"), 18, "1.5"},
		{big.NewInt(1_000_000), 6, "1"},
		{big.NewInt(1), 6, "0.000001"},
		{big.NewInt(-2_500_000), 6, "-2.5"},
		{big.NewInt(42), 0, "42"},
		{nil, 18, "0"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, FormatUnits(tc.value, tc.decimals))
	}
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ParseUnits(" 100 ", 6)
	require.NoError(t, err)
	assert.Equal(t, "100000000", v.String())

	v, err = ParseUnits("0.000001", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int64())

	for _, bad := range []string{"", "abc", "1/3", "1e18", "0.0000001"} {
		_, err := ParseUnits(bad, 6)
		require.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", v.String())

	for _, bad := range []string{"", "1.5", "0x10", "ten"} {
		_, err := ParseAmount(bad)
		require.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}
