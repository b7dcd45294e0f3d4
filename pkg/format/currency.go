// Package format renders amounts for display. Rounding goes through
// fixed-point decimals so that halves round away from zero regardless of
// their binary representation.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "₪"

// Currency returns a currency string with a symbol and thousands separators (e.g., "-₪1,234.56").
func Currency(amount float64) string {
	formatted, negative := formatCurrency(amount)
	if negative {
		return "-" + CurrencySymbol + formatted
	}
	return CurrencySymbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	formatted, negative := formatCurrency(amount)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// Fixed rounds to two places without separators, for machine-readable output.
func Fixed(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Percent renders a percentage rate with at most two decimals (e.g., "3.5%").
func Percent(rate float64) string {
	return decimal.NewFromFloat(rate).Round(2).String() + "%"
}

func formatCurrency(amount float64) (string, bool) {
	rounded := decimal.NewFromFloat(amount).Round(2)
	negative := rounded.IsNegative()

	formatted := rounded.Abs().StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart, negative
}
