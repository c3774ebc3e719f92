package quote

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"megatex/internal/util"
)

type RuleKind string

const (
	RuleLengthTimesMultiplier RuleKind = "MT_ANCHO_X_MULT"
	RuleEyeletPairs           RuleKind = "UND_OJALES_PAR"
	RuleButtonPairs           RuleKind = "UND_BOTON_PAR"
	RuleFixed                 RuleKind = "FIJO"
)

var (
	DefaultEyeletSpacing = decimal.RequireFromString("0.14")
	DefaultButtonSpacing = decimal.RequireFromString("0.20")
)

var ruleAliases = map[string]RuleKind{
	"MT_ANCHO_X_MULT":         RuleLengthTimesMultiplier,
	"LENGTH_WIDTH_TIMES_MULT": RuleLengthTimesMultiplier,
	"UND_OJALES_PAR":          RuleEyeletPairs,
	"COUNT_EYELET_PAIR":       RuleEyeletPairs,
	"UND_BOTON_PAR":           RuleButtonPairs,
	"COUNT_BUTTON_PAIR":       RuleButtonPairs,
	"FIJO":                    RuleFixed,
	"FIXED":                   RuleFixed,
}

// QuantityRule computes the quantity of one material for a single curtain
// from its effective width. The set of implementations is closed.
type QuantityRule interface {
	Kind() RuleKind
	quantity(effectiveWidth decimal.Decimal) (decimal.Decimal, error)
}

// LengthTimesMultiplier is effective width times Factor (default 1).
type LengthTimesMultiplier struct{ Factor string }

// EyeletPairs is one eyelet every Spacing meters, rounded up to pairs.
type EyeletPairs struct{ Spacing string }

// ButtonPairs is one button every Spacing meters, rounded up to pairs.
type ButtonPairs struct{ Spacing string }

// Fixed is a literal quantity independent of the geometry.
type Fixed struct{ Quantity string }

func (LengthTimesMultiplier) Kind() RuleKind { return RuleLengthTimesMultiplier }
func (EyeletPairs) Kind() RuleKind           { return RuleEyeletPairs }
func (ButtonPairs) Kind() RuleKind           { return RuleButtonPairs }
func (Fixed) Kind() RuleKind                 { return RuleFixed }

func (r LengthTimesMultiplier) quantity(ew decimal.Decimal) (decimal.Decimal, error) {
	factor, err := parameter(r.Factor, decimal.NewFromInt(1))
	if err != nil {
		return decimal.Zero, err
	}
	if factor.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative factor %q", ErrMalformedParameter, r.Factor)
	}
	return ew.Mul(factor), nil
}

func (r EyeletPairs) quantity(ew decimal.Decimal) (decimal.Decimal, error) {
	return pairsAlong(ew, r.Spacing, DefaultEyeletSpacing)
}

func (r ButtonPairs) quantity(ew decimal.Decimal) (decimal.Decimal, error) {
	return pairsAlong(ew, r.Spacing, DefaultButtonSpacing)
}

func (r Fixed) quantity(decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(r.Quantity) == "" {
		return decimal.Zero, fmt.Errorf("%w: fixed quantity is empty", ErrMalformedParameter)
	}
	qty, err := parameter(r.Quantity, decimal.Zero)
	if err != nil {
		return decimal.Zero, err
	}
	if qty.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative fixed quantity %q", ErrMalformedParameter, r.Quantity)
	}
	return qty, nil
}

func pairsAlong(ew decimal.Decimal, rawSpacing string, fallback decimal.Decimal) (decimal.Decimal, error) {
	spacing, err := parameter(rawSpacing, fallback)
	if err != nil {
		return decimal.Zero, err
	}
	if !spacing.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: spacing must be positive, got %q", ErrMalformedParameter, rawSpacing)
	}
	return ceilToEven(ew.Div(spacing)), nil
}

func parameter(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := util.ParseParameter(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedParameter, raw)
	}
	return v, nil
}

// ParseRule turns the tag and parameter of a BOM row into a rule.
// Unknown tags are rejected here so they never reach Compute.
func ParseRule(tag, param string) (QuantityRule, error) {
	kind, ok := ruleAliases[strings.ToUpper(strings.TrimSpace(tag))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, tag)
	}
	param = strings.TrimSpace(param)
	switch kind {
	case RuleLengthTimesMultiplier:
		return LengthTimesMultiplier{Factor: param}, nil
	case RuleEyeletPairs:
		return EyeletPairs{Spacing: param}, nil
	case RuleButtonPairs:
		return ButtonPairs{Spacing: param}, nil
	default:
		return Fixed{Quantity: param}, nil
	}
}

// Evaluate returns the quantity one curtain needs under rule, for a window
// width and fullness multiplier.
func Evaluate(rule QuantityRule, width, multiplier decimal.Decimal) (decimal.Decimal, error) {
	if rule == nil {
		return decimal.Zero, ErrUnknownRule
	}
	return rule.quantity(width.Mul(multiplier))
}

// ceilToEven rounds x up to an integer and then up to the next even one.
// Non-positive input yields 0.
func ceilToEven(x decimal.Decimal) decimal.Decimal {
	n := x.Ceil()
	if !n.IsPositive() {
		return decimal.Zero
	}
	if !n.Mod(decimal.NewFromInt(2)).IsZero() {
		n = n.Add(decimal.NewFromInt(1))
	}
	return n
}
