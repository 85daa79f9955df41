package portfolioai

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount wraps decimal.Decimal for prices.
// JSON marshaling outputs a float64 number, while arithmetic stays in decimal.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON outputs as a JSON number (not a string).
func (a Amount) MarshalJSON() ([]byte, error) {
	f, _ := a.Round(4).Float64()
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// NewAmount creates an Amount from a float64. NaN and infinities become zero.
func NewAmount(f float64) Amount {
	if !isFinite(f) {
		return Amount{decimal.Zero}
	}
	return Amount{decimal.NewFromFloat(f)}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

var (
	buyTargetMultiplier  = decimal.RequireFromString("1.15")
	sellTargetMultiplier = decimal.RequireFromString("0.95")
	holdTargetMultiplier = decimal.RequireFromString("1.05")
)

// TargetPrice derives the target price from the current price and the action.
// Buy targets +15%, sell targets -5%, anything else +5%.
func TargetPrice(current Amount, action string) Amount {
	switch action {
	case ActionBuy:
		return Amount{current.Mul(buyTargetMultiplier)}
	case ActionSell:
		return Amount{current.Mul(sellTargetMultiplier)}
	default:
		return Amount{current.Mul(holdTargetMultiplier)}
	}
}
