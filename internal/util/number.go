package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Grouped forms need a non-zero leading group, so "0,140" and "0.140"
// are decimals rather than thousands.
var (
	reThousandsDot   = regexp.MustCompile(`^[1-9]\d{0,2}(?:\.\d{3})+$`)
	reThousandsComma = regexp.MustCompile(`^[1-9]\d{0,2}(?:,\d{3})+$`)
	reMixedDotComma  = regexp.MustCompile(`^[1-9]\d{0,2}(?:\.\d{3})+,\d+$`)
	reMixedCommaDot  = regexp.MustCompile(`^[1-9]\d{0,2}(?:,\d{3})+\.\d+$`)
)

// ParseDecimal parses spreadsheet numbers written with either locale:
// "0,14", "38.000", "1.234,5", "$ 38,000.00".
func ParseDecimal(input string) (decimal.Decimal, error) {
	return parseToken(input, normalizeNumericToken(input))
}

// ParseParameter parses a rule parameter such as a spacing or a factor.
// These are small values, so a single separator of either kind is the
// decimal point: "1,100" is 1.1, not 1100.
func ParseParameter(input string) (decimal.Decimal, error) {
	compact := compactNumber(input)
	digits := strings.TrimPrefix(compact, "-")
	if strings.Count(digits, ",")+strings.Count(digits, ".") == 1 {
		return parseToken(input, strings.ReplaceAll(compact, ",", "."))
	}
	return ParseDecimal(input)
}

func parseToken(input, token string) (decimal.Decimal, error) {
	if token == "" || token == "-" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	if _, err := strconv.ParseFloat(token, 64); err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", input)
	}
	return decimal.NewFromString(token)
}

// compactNumber drops blanks and currency signs, keeping a leading minus.
func compactNumber(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	compact = strings.ReplaceAll(compact, "\u00A0", "")
	compact = strings.TrimPrefix(compact, "$")
	sign := ""
	if strings.HasPrefix(compact, "-") {
		sign, compact = "-", compact[1:]
	}
	return sign + strings.TrimPrefix(compact, "$")
}

func normalizeNumericToken(token string) string {
	compact := compactNumber(token)
	sign := ""
	if strings.HasPrefix(compact, "-") {
		sign, compact = "-", compact[1:]
	}
	switch {
	case reThousandsDot.MatchString(compact):
		compact = strings.ReplaceAll(compact, ".", "")
	case reThousandsComma.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case reMixedDotComma.MatchString(compact):
		compact = strings.ReplaceAll(strings.ReplaceAll(compact, ".", ""), ",", ".")
	case reMixedCommaDot.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case strings.Contains(compact, ",") && !strings.Contains(compact, "."):
		compact = strings.ReplaceAll(compact, ",", ".")
	}
	return sign + compact
}
