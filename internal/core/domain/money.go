package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places money is kept at.
const MoneyScale = 2

// IsValidAmount reports whether amount can be moved: strictly positive and
// representable at MoneyScale without rounding.
func IsValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(MoneyScale))
}

// ParseAmount parses a decimal string such as "300" or "12.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}
