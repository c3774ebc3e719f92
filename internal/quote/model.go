package quote

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitLength Unit = "MT"
	UnitCount  Unit = "UND"
)

// ParseUnit maps the unit spellings found in the BOM and catalog sheets.
func ParseUnit(raw string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "."))) {
	case "MT", "M", "MTS", "METRO", "METROS", "LENGTH":
		return UnitLength, nil
	case "UND", "UN", "U", "UNIDAD", "UNIDADES", "COUNT":
		return UnitCount, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
}

type Design struct {
	ID              string
	Categories      []string
	WidthMultiplier decimal.Decimal
	LaborUnitPrice  decimal.Decimal
}

// LaborLabel is the display name of the labor line and of the
// placeholder rows some BOM sheets carry for it.
func (d Design) LaborLabel() string {
	return "M.O. " + d.ID
}

type BOMRule struct {
	DesignID          string
	Material          string
	Unit              Unit
	Rule              QuantityRule
	Parameter         string
	RequiresSelection bool
	Notes             string
}

type Variant struct {
	Ref       string
	Color     string
	UnitPrice decimal.Decimal
}

type CatalogEntry struct {
	Material string
	Unit     Unit
	Variants []Variant
}

// Find returns the variant with the given ref and color.
func (c CatalogEntry) Find(ref, color string) (Variant, bool) {
	for _, v := range c.Variants {
		if strings.EqualFold(v.Ref, strings.TrimSpace(ref)) && strings.EqualFold(v.Color, strings.TrimSpace(color)) {
			return v, true
		}
	}
	return Variant{}, false
}

type FabricVariant struct {
	Color     string
	UnitPrice decimal.Decimal
}

type FabricReference struct {
	Ref      string
	Variants []FabricVariant
}

type FabricType struct {
	Name       string
	References []FabricReference
}

// FabricCatalog is addressed by (type, reference) and keeps the sheet
// order of both levels.
type FabricCatalog struct {
	Types []FabricType
}

func (c FabricCatalog) Lookup(fabricType, ref, color string) (FabricVariant, bool) {
	for _, t := range c.Types {
		if !strings.EqualFold(t.Name, strings.TrimSpace(fabricType)) {
			continue
		}
		for _, r := range t.References {
			if !strings.EqualFold(r.Ref, strings.TrimSpace(ref)) {
				continue
			}
			for _, v := range r.Variants {
				if strings.EqualFold(v.Color, strings.TrimSpace(color)) {
					return v, true
				}
			}
		}
	}
	return FabricVariant{}, false
}

// Add appends a variant, creating the type and reference on first use.
func (c *FabricCatalog) Add(fabricType, ref string, v FabricVariant) {
	ti := -1
	for i := range c.Types {
		if strings.EqualFold(c.Types[i].Name, fabricType) {
			ti = i
			break
		}
	}
	if ti < 0 {
		c.Types = append(c.Types, FabricType{Name: fabricType})
		ti = len(c.Types) - 1
	}
	t := &c.Types[ti]
	ri := -1
	for i := range t.References {
		if strings.EqualFold(t.References[i].Ref, ref) {
			ri = i
			break
		}
	}
	if ri < 0 {
		t.References = append(t.References, FabricReference{Ref: ref})
		ri = len(t.References) - 1
	}
	t.References[ri].Variants = append(t.References[ri].Variants, v)
}

// ReferenceData is one immutable snapshot of the four reference tables.
// Keys of Designs, Rules and Materials are normalized with util.NormalizeKey.
type ReferenceData struct {
	Designs     map[string]Design
	DesignOrder []string
	Rules       map[string][]BOMRule
	Materials   map[string]CatalogEntry
	Fabrics     FabricCatalog
}

type FabricChoice struct {
	Type  string `json:"type"`
	Ref   string `json:"ref"`
	Color string `json:"color"`
}

type VariantChoice struct {
	Ref   string `json:"ref"`
	Color string `json:"color"`
}

// Selection is the user input for one quoted line. Width and Height are
// meters; a zero Multiplier means the design default.
type Selection struct {
	Design     string                   `json:"design"`
	Category   string                   `json:"category,omitempty"`
	Width      float64                  `json:"width"`
	Height     float64                  `json:"height"`
	Quantity   int                      `json:"quantity"`
	Multiplier float64                  `json:"multiplier,omitempty"`
	Split      bool                     `json:"split,omitempty"`
	Fabrics    map[string]FabricChoice  `json:"fabrics,omitempty"`
	Materials  map[string]VariantChoice `json:"materials,omitempty"`
}

type PriceSource string

const (
	SourceFabric    PriceSource = "fabric"
	SourceSelection PriceSource = "selection"
	SourceCatalog   PriceSource = "catalog"
	SourceUnpriced  PriceSource = "unpriced"
	SourceLabor     PriceSource = "labor"
)

type PricedLine struct {
	Label           string          `json:"label"`
	Material        string          `json:"material"`
	Unit            Unit            `json:"unit"`
	QuantityPerUnit decimal.Decimal `json:"quantityPerUnit"`
	QuantityTotal   decimal.Decimal `json:"quantityTotal"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
	Source          PriceSource     `json:"source"`
}

type Warning struct {
	Material string `json:"material"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	return w.Material + ": " + w.Message
}

type QuotationResult struct {
	Design            string          `json:"design"`
	EffectiveWidth    decimal.Decimal `json:"effectiveWidth"`
	Multiplier        decimal.Decimal `json:"multiplier"`
	Quantity          int             `json:"quantity"`
	Lines             []PricedLine    `json:"lines"`
	SubtotalBeforeTax decimal.Decimal `json:"subtotalBeforeTax"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	Total             decimal.Decimal `json:"total"`
	Warnings          []Warning       `json:"warnings,omitempty"`
}
