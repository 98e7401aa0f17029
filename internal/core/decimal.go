// Package core holds the sales domain: products, dates, sales, the fee
// calculator and the aggregation routines.
//
// All money values are shopspring decimals. Arithmetic is exact; rounding
// to two places happens only when a value is formatted for display or
// export, never inside a computation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a monetary string to a Decimal. It accepts both dot
// (12.34) and comma (12,34) separators and rejects negative values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidPrice
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}

// ParseRate converts a fractional rate string to a Decimal and enforces
// the [0, 1] range. Same separator handling as ParseAmount.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, ErrInvalidRate
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidRate
	}
	return d, nil
}

// FormatAmount renders a decimal with exactly two places, rounding half-up
// on the third. Display and export go through here; stored values never do.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
