package calculator

import (
	"github.com/shopspring/decimal"
)

// ConvertToUnits converts a decimal display amount (major currency units) to
// integer minor units, rounding to the nearest unit.
//
// The float goes through its shortest decimal representation first, so binary
// representation error never leaks into the result:
//
//	ConvertToUnits(0.3)       -> 30
//	ConvertToUnits(0.1 + 0.2) -> 30
//	ConvertToUnits(12.345)    -> 1235
func ConvertToUnits(displayAmount float64) int64 {
	return decimal.NewFromFloat(displayAmount).Shift(2).Round(0).IntPart()
}

// FormatUnits renders minor units as a fixed two-decimal string ("12.34").
// Display only; use units for arithmetic.
func FormatUnits(units int64) string {
	return decimal.New(units, -2).StringFixed(2)
}
