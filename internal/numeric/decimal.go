// Package numeric holds the exact-decimal helpers used by every money
// calculation in the bot. Floats never touch prices or sizes.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPlaces is the fixed step used for order sizes (0.0001).
const DefaultPlaces int32 = 4

func init() {
	decimal.DivisionPrecision = 28
}

// Parse converts an exchange string into a decimal.
// Empty or whitespace-only input is treated as zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("numeric.Parse %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// QuantizeDown truncates d toward zero to the given number of decimal places.
func QuantizeDown(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Truncate(places)
}

// QuantizeDown4 truncates d to DefaultPlaces.
func QuantizeDown4(d decimal.Decimal) decimal.Decimal {
	return QuantizeDown(d, DefaultPlaces)
}

// Format renders d truncated to DefaultPlaces with a fixed number of decimals,
// e.g. 50 -> "50.0000". This is the wire format for order amounts.
func Format(d decimal.Decimal) string {
	return QuantizeDown4(d).StringFixed(DefaultPlaces)
}

// SafeDiv returns n/d, or def when d is zero.
func SafeDiv(n, d, def decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return def
	}
	return n.Div(d)
}
