package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount as "$1,234,567.89" with the given number
// of decimals.
func FormatMoney(amount decimal.Decimal, places int32) string {
	raw := amount.Abs().StringFixed(places)
	intPart, decPart, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if amount.IsNegative() && !amount.Round(places).IsZero() {
		b.WriteString("-")
	}
	b.WriteString("$")
	b.WriteString(groupThousands(intPart))
	if decPart != "" {
		b.WriteString(".")
		b.WriteString(decPart)
	}
	return b.String()
}

// FormatQuantity prints counts as integers and lengths with two decimals.
func FormatQuantity(qty decimal.Decimal, integer bool) string {
	if integer {
		return qty.Ceil().String()
	}
	return qty.StringFixed(2)
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	head := n % 3
	var b strings.Builder
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
