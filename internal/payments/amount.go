package payments

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a display amount to the currency's smallest unit,
// rounding half away from zero so 0.125 becomes 13 and never 12.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ToDecimalString renders the two-place string wallet providers expect.
func ToDecimalString(amount decimal.Decimal) string {
	return amount.Round(2).StringFixed(2)
}

// checkMinimum rejects non-positive amounts and amounts that round below
// minMinor in the provider's smallest unit.
func checkMinimum(p Provider, amount decimal.Decimal, minMinor int64) (int64, error) {
	if !amount.IsPositive() {
		return 0, &Error{Kind: KindValidation, Provider: p, Err: ErrInvalidAmount}
	}
	minor := ToMinorUnits(amount)
	if minor < minMinor {
		return 0, newError(KindValidation, p, "%w: %s < %s", ErrAmountTooSmall,
			ToDecimalString(amount), FromMinorUnits(minMinor).StringFixed(2))
	}
	return minor, nil
}
