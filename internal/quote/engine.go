package quote

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"megatex/internal/util"
)

// Settings are the jurisdiction-dependent knobs of the aggregator.
type Settings struct {
	TaxRate     decimal.Decimal
	MoneyPlaces int32
}

func DefaultSettings() Settings {
	return Settings{TaxRate: decimal.RequireFromString("0.19"), MoneyPlaces: 2}
}

// Compute prices one quoted line against a reference snapshot. Unit
// prices are tax-inclusive: the total is the sum of the lines and the tax
// is backed out of it. On error the returned result is empty.
func Compute(ref *ReferenceData, sel Selection, settings Settings) (QuotationResult, error) {
	if ref == nil {
		return QuotationResult{}, &ComputeError{Phase: PhaseValidating, Design: sel.Design, Err: errors.New("no reference data loaded")}
	}
	design, ok := ref.Designs[util.NormalizeKey(sel.Design)]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownDesign, sel.Design)
		if s := SuggestDesign(ref, sel.Design); s != "" {
			err = fmt.Errorf("%w (did you mean %q?)", err, s)
		}
		return QuotationResult{}, &ComputeError{Phase: PhaseValidating, Design: sel.Design, Err: err}
	}
	return ComputeDesign(ref, design, ref.Rules[util.NormalizeKey(design.ID)], sel, settings)
}

// ComputeDesign runs the aggregator for an already resolved design and its
// BOM rows, in declaration order.
func ComputeDesign(ref *ReferenceData, design Design, rules []BOMRule, sel Selection, settings Settings) (QuotationResult, error) {
	fail := func(phase Phase, material string, err error) (QuotationResult, error) {
		return QuotationResult{}, &ComputeError{Phase: phase, Design: design.ID, Material: material, Err: err}
	}
	if ref == nil {
		return fail(PhaseValidating, "", errors.New("no reference data loaded"))
	}

	sel, err := normalizeSelection(sel)
	if err != nil {
		return fail(PhaseValidating, "", err)
	}
	width, multiplier, err := geometry(design, sel)
	if err != nil {
		return fail(PhaseValidating, "", err)
	}
	if sel.Category != "" && !hasCategory(design, sel.Category) {
		return fail(PhaseValidating, "", fmt.Errorf("%w: design does not belong to category %q", ErrInvalidSelection, sel.Category))
	}

	count := decimal.NewFromInt(int64(sel.Quantity))
	effectiveWidth := width.Mul(multiplier)
	result := QuotationResult{
		Design:         design.ID,
		EffectiveWidth: effectiveWidth,
		Multiplier:     multiplier,
		Quantity:       sel.Quantity,
		Lines:          make([]PricedLine, 0, len(rules)+1),
	}

	total := decimal.Zero
	for _, rule := range rules {
		if IsLaborPlaceholder(rule.Material) {
			continue
		}
		perUnit, err := Evaluate(rule.Rule, width, multiplier)
		if err != nil {
			return fail(PhaseEvaluating, rule.Material, err)
		}
		res := Resolve(ref, rule, sel)
		qtyTotal := perUnit.Mul(count)
		line := PricedLine{
			Label:           res.Label,
			Material:        rule.Material,
			Unit:            res.Unit,
			QuantityPerUnit: perUnit,
			QuantityTotal:   qtyTotal,
			UnitPrice:       res.UnitPrice,
			LineTotal:       qtyTotal.Mul(res.UnitPrice).Round(settings.MoneyPlaces),
			Source:          res.Source,
		}
		result.Lines = append(result.Lines, line)
		result.Warnings = append(result.Warnings, res.Warnings...)
		total = total.Add(line.LineTotal)
	}

	if design.LaborUnitPrice.IsPositive() {
		qtyTotal := effectiveWidth.Mul(count)
		labor := PricedLine{
			Label:           design.LaborLabel(),
			Material:        design.LaborLabel(),
			Unit:            UnitLength,
			QuantityPerUnit: effectiveWidth,
			QuantityTotal:   qtyTotal,
			UnitPrice:       design.LaborUnitPrice,
			LineTotal:       qtyTotal.Mul(design.LaborUnitPrice).Round(settings.MoneyPlaces),
			Source:          SourceLabor,
		}
		result.Lines = append(result.Lines, labor)
		total = total.Add(labor.LineTotal)
	}

	result.Total = total
	result.TaxAmount = total.Mul(settings.TaxRate).Round(settings.MoneyPlaces)
	result.SubtotalBeforeTax = total.Sub(result.TaxAmount)
	return result, nil
}

func geometry(design Design, sel Selection) (width, multiplier decimal.Decimal, err error) {
	for _, v := range []float64{sel.Width, sel.Height, sel.Multiplier} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: dimensions must be finite numbers", ErrInvalidSelection)
		}
	}
	if sel.Width <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: width must be positive", ErrInvalidSelection)
	}
	if sel.Height < 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: height must not be negative", ErrInvalidSelection)
	}
	if sel.Quantity < 1 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidSelection)
	}
	switch {
	case sel.Multiplier < 0:
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: multiplier must be positive", ErrInvalidSelection)
	case sel.Multiplier == 0:
		multiplier = design.WidthMultiplier
	default:
		multiplier = decimal.NewFromFloat(sel.Multiplier)
	}
	if !multiplier.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: design has no positive width multiplier", ErrInvalidSelection)
	}
	return decimal.NewFromFloat(sel.Width), multiplier, nil
}

// normalizeSelection rekeys the choice maps so lookups are deterministic.
func normalizeSelection(sel Selection) (Selection, error) {
	out := sel
	if len(sel.Fabrics) > 0 {
		out.Fabrics = make(map[string]FabricChoice, len(sel.Fabrics))
		for k, v := range sel.Fabrics {
			key := util.NormalizeKey(k)
			if _, dup := out.Fabrics[key]; dup {
				return Selection{}, fmt.Errorf("%w: fabric slot %q chosen twice", ErrInvalidSelection, k)
			}
			out.Fabrics[key] = v
		}
	}
	if len(sel.Materials) > 0 {
		out.Materials = make(map[string]VariantChoice, len(sel.Materials))
		for k, v := range sel.Materials {
			key := util.NormalizeKey(k)
			if _, dup := out.Materials[key]; dup {
				return Selection{}, fmt.Errorf("%w: material %q chosen twice", ErrInvalidSelection, k)
			}
			out.Materials[key] = v
		}
	}
	return out, nil
}

func hasCategory(d Design, category string) bool {
	for _, c := range d.Categories {
		if strings.EqualFold(c, strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// SuggestDesign returns the closest known design name, or "" when nothing
// is reasonably close.
func SuggestDesign(ref *ReferenceData, name string) string {
	query := util.NormalizeKey(name)
	best, bestScore := "", 0.0
	for _, key := range ref.DesignOrder {
		score := util.DiceCoefficient(query, key)
		if score > bestScore {
			best, bestScore = ref.Designs[key].ID, score
		}
	}
	if bestScore < 0.5 {
		return ""
	}
	return best
}
