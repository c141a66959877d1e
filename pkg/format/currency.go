// Package format renders monetary and percentage values for reports.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	value := decimal.NewFromFloat(amount).Round(2)
	if value.IsNegative() {
		return "-$" + groupThousands(value.Neg())
	}
	return "$" + groupThousands(value)
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	value := decimal.NewFromFloat(amount).Round(2)
	if value.IsNegative() {
		return "-" + groupThousands(value.Neg())
	}
	return groupThousands(value)
}

// Percent returns a percentage with two decimals (e.g., "34.85%").
func Percent(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2) + "%"
}

func groupThousands(value decimal.Decimal) string {
	formatted := value.StringFixed(2)
	intPart, decPart, _ := strings.Cut(formatted, ".")

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

	return intPart + "." + decPart
}
