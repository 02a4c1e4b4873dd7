package pricing

import (
	"fmt"
	"math/big"
	"strings"
)

// RatioScale is the number of fractional digits used when rendering ratios.
const RatioScale = 18

var ten = big.NewInt(10)

// FormatUnits renders a base-unit amount as a decimal string with the given decimals.
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	rat := new(big.Rat).SetFrac(abs, scale(decimals))
	text := trimZeros(rat.FloatString(int(decimals)))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// ParseUnits converts a decimal string into base units. Inputs with more fractional
// digits than decimals are rejected rather than rounded.
func ParseUnits(input string, decimals uint8) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	if strings.ContainsAny(input, "/eE") {
		return nil, fmt.Errorf("%w: amount %q must be a plain decimal", ErrInvalidInput, input)
	}
	rat, ok := new(big.Rat).SetString(input)
	if !ok {
		return nil, fmt.Errorf("%w: invalid amount %q", ErrInvalidInput, input)
	}
	rat.Mul(rat, new(big.Rat).SetInt(scale(decimals)))
	if !rat.IsInt() {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimals", ErrInvalidInput, input, decimals)
	}
	return new(big.Int).Set(rat.Num()), nil
}

// ParseAmount parses a base-10 integer quantity.
func ParseAmount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	v, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid amount %q", ErrInvalidInput, input)
	}
	return v, nil
}

// FormatRatio renders r with RatioScale fractional digits.
func FormatRatio(r *big.Rat) string {
	if r == nil {
		return "0"
	}
	return trimZeros(r.FloatString(RatioScale))
}

func scale(decimals uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)
}

func trimZeros(text string) string {
	if !strings.Contains(text, ".") {
		return text
	}
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}
