package refdata

import (
	"fmt"

	"github.com/shopspring/decimal"

	"megatex/internal/quote"
	"megatex/internal/util"
)

const (
	TableDesigns = "designs"
	TableBOM     = "bom"
	TableCatalog = "catalog"
	TableFabrics = "fabrics"
)

var designColumns = []column{
	{name: "Diseño", aliases: []string{"Design"}},
	{name: "Tipo", aliases: []string{"Tipos", "Categoria", "Category"}},
	{name: "Multiplicador", aliases: []string{"Multiplier", "WidthMultiplier"}},
	{name: "PVP M.O.", aliases: []string{"PVP MO", "Mano de obra", "LaborPrice"}},
}

var bomColumns = []column{
	{name: "Diseño", aliases: []string{"Design"}},
	{name: "Insumo", aliases: []string{"Material"}},
	{name: "Unidad", aliases: []string{"Unit"}},
	{name: "ReglaCantidad", aliases: []string{"Regla", "QuantityRule", "Rule"}},
	{name: "Parametro", aliases: []string{"Parameter"}},
	{name: "DependeDeSeleccion", aliases: []string{"RequiereSeleccion", "RequiresSelection"}},
	{name: "Observaciones", aliases: []string{"Notas", "Notes"}, optional: true},
}

var catalogColumns = []column{
	{name: "Insumo", aliases: []string{"Material"}},
	{name: "Unidad", aliases: []string{"Unit"}},
	{name: "Ref", aliases: []string{"Referencia", "Reference"}},
	{name: "Color"},
	{name: "PVP", aliases: []string{"Precio", "Price"}},
	{name: "Notas", aliases: []string{"Observaciones", "Notes"}, optional: true},
}

var fabricColumns = []column{
	{name: "Tipo", aliases: []string{"Tipo de tela", "Type"}},
	{name: "Ref", aliases: []string{"Referencia", "Reference"}},
	{name: "Color"},
	{name: "PVP", aliases: []string{"Precio", "Price"}},
}

type designTable struct {
	designs map[string]quote.Design
	order   []string
}

func parseDesigns(content []byte) (designTable, error) {
	t, err := readTable(TableDesigns, content, designColumns)
	if err != nil {
		return designTable{}, err
	}

	out := designTable{designs: map[string]quote.Design{}}
	for i, row := range t.rows {
		rowNo := t.rowNos[i]
		id := t.cell(row, "Diseño")
		if id == "" {
			return designTable{}, t.fail(rowNo, "Diseño", fmt.Errorf("%w: blank design name", quote.ErrInvalidValue))
		}
		key := util.NormalizeKey(id)
		if _, dup := out.designs[key]; dup {
			err := t.fail(rowNo, "Diseño", fmt.Errorf("%w: design listed twice", quote.ErrInvalidValue))
			err.Design = id
			return designTable{}, err
		}

		mult, err := util.ParseDecimal(t.cell(row, "Multiplicador"))
		if err != nil || !mult.IsPositive() {
			lerr := t.fail(rowNo, "Multiplicador", fmt.Errorf("%w: multiplier must be a positive number, got %q", quote.ErrInvalidValue, t.cell(row, "Multiplicador")))
			lerr.Design = id
			return designTable{}, lerr
		}

		labor := decimal.Zero
		if raw := t.cell(row, "PVP M.O."); raw != "" {
			labor, err = util.ParseDecimal(raw)
			if err != nil || labor.IsNegative() {
				lerr := t.fail(rowNo, "PVP M.O.", fmt.Errorf("%w: labor price must be a non-negative number, got %q", quote.ErrInvalidValue, raw))
				lerr.Design = id
				return designTable{}, lerr
			}
		}

		out.designs[key] = quote.Design{
			ID:              id,
			Categories:      util.SplitTags(t.cell(row, "Tipo")),
			WidthMultiplier: mult,
			LaborUnitPrice:  labor,
		}
		out.order = append(out.order, key)
	}
	return out, nil
}

func parseBOM(content []byte) (map[string][]quote.BOMRule, error) {
	t, err := readTable(TableBOM, content, bomColumns)
	if err != nil {
		return nil, err
	}

	out := map[string][]quote.BOMRule{}
	seen := map[[2]string]int{}
	for i, row := range t.rows {
		rowNo := t.rowNos[i]
		design := t.cell(row, "Diseño")
		material := t.cell(row, "Insumo")
		fail := func(col string, err error) error {
			lerr := t.fail(rowNo, col, err)
			lerr.Design = design
			lerr.Material = material
			return lerr
		}

		if design == "" {
			return nil, fail("Diseño", fmt.Errorf("%w: blank design name", quote.ErrInvalidValue))
		}
		if material == "" {
			return nil, fail("Insumo", fmt.Errorf("%w: blank material name", quote.ErrInvalidValue))
		}

		dkey, mkey := util.NormalizeKey(design), util.NormalizeKey(material)
		if first, dup := seen[[2]string{dkey, mkey}]; dup {
			return nil, fail("Insumo", fmt.Errorf("%w: already declared at row %d", quote.ErrDuplicateRule, first))
		}
		seen[[2]string{dkey, mkey}] = rowNo

		unit, err := quote.ParseUnit(t.cell(row, "Unidad"))
		if err != nil {
			return nil, fail("Unidad", err)
		}
		param := t.cell(row, "Parametro")
		rule, err := quote.ParseRule(t.cell(row, "ReglaCantidad"), param)
		if err != nil {
			return nil, fail("ReglaCantidad", err)
		}
		requires, ok := util.ParseYesNo(t.cell(row, "DependeDeSeleccion"))
		if !ok {
			return nil, fail("DependeDeSeleccion", fmt.Errorf("%w: expected SI or NO, got %q", quote.ErrInvalidValue, t.cell(row, "DependeDeSeleccion")))
		}

		out[dkey] = append(out[dkey], quote.BOMRule{
			DesignID:          design,
			Material:          material,
			Unit:              unit,
			Rule:              rule,
			Parameter:         param,
			RequiresSelection: requires,
			Notes:             t.cell(row, "Observaciones"),
		})
	}
	return out, nil
}

// parseCatalog groups variants by material in sheet order. A price that
// cannot be read is recorded as zero and reported as a warning.
func parseCatalog(content []byte) (map[string]quote.CatalogEntry, []string, error) {
	t, err := readTable(TableCatalog, content, catalogColumns)
	if err != nil {
		return nil, nil, err
	}

	out := map[string]quote.CatalogEntry{}
	var warnings []string
	for i, row := range t.rows {
		rowNo := t.rowNos[i]
		material := t.cell(row, "Insumo")
		if material == "" {
			lerr := t.fail(rowNo, "Insumo", fmt.Errorf("%w: blank material name", quote.ErrInvalidValue))
			return nil, nil, lerr
		}
		unit, err := quote.ParseUnit(t.cell(row, "Unidad"))
		if err != nil {
			lerr := t.fail(rowNo, "Unidad", err)
			lerr.Material = material
			return nil, nil, lerr
		}

		price, err := util.ParseDecimal(t.cell(row, "PVP"))
		if err != nil || price.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("%s row=%d material=%s: price %q is not usable, recorded as 0", TableCatalog, rowNo, material, t.cell(row, "PVP")))
			price = decimal.Zero
		}

		key := util.NormalizeKey(material)
		entry, ok := out[key]
		if !ok {
			entry = quote.CatalogEntry{Material: material, Unit: unit}
		} else if entry.Unit != unit {
			warnings = append(warnings, fmt.Sprintf("%s row=%d material=%s: unit %s overrides %s", TableCatalog, rowNo, material, unit, entry.Unit))
			entry.Unit = unit
		}
		entry.Variants = append(entry.Variants, quote.Variant{
			Ref:       t.cell(row, "Ref"),
			Color:     t.cell(row, "Color"),
			UnitPrice: price,
		})
		out[key] = entry
	}
	return out, warnings, nil
}

func parseFabrics(content []byte) (quote.FabricCatalog, error) {
	t, err := readTable(TableFabrics, content, fabricColumns)
	if err != nil {
		return quote.FabricCatalog{}, err
	}

	var out quote.FabricCatalog
	for i, row := range t.rows {
		rowNo := t.rowNos[i]
		for _, col := range []string{"Tipo", "Ref", "Color"} {
			if t.cell(row, col) == "" {
				return quote.FabricCatalog{}, t.fail(rowNo, col, fmt.Errorf("%w: blank %s", quote.ErrInvalidValue, col))
			}
		}
		raw := t.cell(row, "PVP")
		price, err := util.ParseDecimal(raw)
		if err != nil || price.IsNegative() {
			lerr := t.fail(rowNo, "PVP", fmt.Errorf("%w: price must be a non-negative number, got %q", quote.ErrInvalidValue, raw))
			lerr.Material = t.cell(row, "Ref")
			return quote.FabricCatalog{}, lerr
		}
		out.Add(t.cell(row, "Tipo"), t.cell(row, "Ref"), quote.FabricVariant{Color: t.cell(row, "Color"), UnitPrice: price})
	}
	return out, nil
}
