package pricing

import "math/big"

// usdScale collapses amounts to a six-decimal-place integer scale before
// the float conversion, so arbitrarily large raw amounts never overflow a
// float64 mantissa.
const usdScale = 6

// ToUSD converts a raw integer token amount at the given decimal precision
// into a USD value at the given exchange rate. Sub-six-decimal precision is
// truncated, not rounded: the integer division happens before the float
// conversion, trading display-level precision for overflow safety.
func ToUSD(rate float64, rawAmount *big.Int, decimals uint32) float64 {
	if rawAmount == nil {
		return 0
	}

	if decimals >= usdScale {
		scaled := new(big.Int).Quo(rawAmount, pow10(decimals-usdScale))
		f, _ := new(big.Float).SetInt(scaled).Float64()
		return rate * f / 1e6
	}

	scaled := new(big.Int).Quo(rawAmount, pow10(decimals))
	f, _ := new(big.Float).SetInt(scaled).Float64()
	return rate * f
}

// pow10 returns 10^n as a big integer.
func pow10(n uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
