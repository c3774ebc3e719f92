package quote

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"megatex/internal/util"
)

var fabricSlotPattern = regexp.MustCompile(`^TELA\s*(\d+)$`)

// IsFabricSlot reports whether a BOM material is a positional fabric
// reference ("TELA 1", "TELA 2", ...).
func IsFabricSlot(material string) bool {
	return fabricSlotPattern.MatchString(util.NormalizeKey(material))
}

// IsLaborPlaceholder reports whether a BOM row stands for the labor line,
// which Compute appends on its own.
func IsLaborPlaceholder(material string) bool {
	key := util.NormalizeKey(material)
	return strings.HasPrefix(key, "M.O.") || key == "MANO DE OBRA"
}

type Resolution struct {
	UnitPrice decimal.Decimal
	Unit      Unit
	Label     string
	Source    PriceSource
	Warnings  []Warning
}

// Resolve prices one BOM row against the selection. The first matching
// branch wins: fabric slot, user-selected variant, first catalog variant,
// unpriced.
func Resolve(ref *ReferenceData, rule BOMRule, sel Selection) Resolution {
	var warnings []Warning
	warn := func(format string, args ...any) {
		warnings = append(warnings, Warning{Material: rule.Material, Message: fmt.Sprintf(format, args...)})
	}

	if IsFabricSlot(rule.Material) {
		choice, ok := fabricChoice(sel, rule.Material)
		switch {
		case !ok:
			warn("no fabric selected for slot")
		default:
			if v, found := ref.Fabrics.Lookup(choice.Type, choice.Ref, choice.Color); found {
				return Resolution{
					UnitPrice: v.UnitPrice,
					Unit:      UnitLength,
					Label:     fabricLabel(rule.Material, choice, sel.Split),
					Source:    SourceFabric,
				}
			}
			warn("fabric %s/%s/%s is not in the fabric catalog", choice.Type, choice.Ref, choice.Color)
		}
	}

	entry, inCatalog := ref.Materials[util.NormalizeKey(rule.Material)]

	if rule.RequiresSelection {
		if choice, ok := variantChoice(sel, rule.Material); ok {
			if v, found := entry.Find(choice.Ref, choice.Color); inCatalog && found {
				return Resolution{
					UnitPrice: v.UnitPrice,
					Unit:      entry.Unit,
					Label:     fmt.Sprintf("%s: %s - %s", rule.Material, v.Ref, v.Color),
					Source:    SourceSelection,
					Warnings:  warnings,
				}
			}
			warn("selected variant %s/%s is not in the catalog", choice.Ref, choice.Color)
		}
	}

	if inCatalog && len(entry.Variants) > 0 {
		return Resolution{
			UnitPrice: entry.Variants[0].UnitPrice,
			Unit:      entry.Unit,
			Label:     rule.Material,
			Source:    SourceCatalog,
			Warnings:  warnings,
		}
	}

	if rule.RequiresSelection {
		warn("requires a selection but has no catalog entry; priced at zero")
	}
	return Resolution{
		UnitPrice: decimal.Zero,
		Unit:      rule.Unit,
		Label:     rule.Material,
		Source:    SourceUnpriced,
		Warnings:  warnings,
	}
}

func fabricChoice(sel Selection, slot string) (FabricChoice, bool) {
	key := util.NormalizeKey(slot)
	for k, v := range sel.Fabrics {
		if util.NormalizeKey(k) == key {
			return v, true
		}
	}
	return FabricChoice{}, false
}

func variantChoice(sel Selection, material string) (VariantChoice, bool) {
	key := util.NormalizeKey(material)
	for k, v := range sel.Materials {
		if util.NormalizeKey(k) == key {
			return v, true
		}
	}
	return VariantChoice{}, false
}

func fabricLabel(slot string, choice FabricChoice, split bool) string {
	prefix := "TELA"
	if m := fabricSlotPattern.FindStringSubmatch(util.NormalizeKey(slot)); len(m) == 2 && m[1] != "1" {
		prefix = "TELA " + m[1]
	}
	label := fmt.Sprintf("%s: %s - %s", prefix, choice.Ref, choice.Color)
	if split {
		label += " (PARTIDA)"
	}
	return label
}
