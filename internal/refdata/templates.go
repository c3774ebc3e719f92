package refdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Template file names written by WriteTemplates.
const (
	DesignsFile = "disenos.xlsx"
	BOMFile     = "bom.xlsx"
	CatalogFile = "catalogo.xlsx"
	FabricsFile = "telas.xlsx"
)

type template struct {
	file    string
	sheet   string
	columns []column
	sample  [][]any
	widths  []float64
}

func templates() []template {
	fabrics := [][]any{}
	for _, t := range DefaultFabrics().Types {
		for _, r := range t.References {
			for _, v := range r.Variants {
				fabrics = append(fabrics, []any{t.Name, r.Ref, v.Color, v.UnitPrice.IntPart()})
			}
		}
	}

	return []template{
		{
			file: DesignsFile, sheet: "Disenos", columns: designColumns,
			sample: [][]any{{"Ondas", "Clasica, Moderna", 2.5, 5000}},
			widths: []float64{24, 28, 14, 12},
		},
		{
			file: BOMFile, sheet: "BOM", columns: bomColumns,
			sample: [][]any{
				{"Ondas", "TELA 1", "MT", "MT_ANCHO_X_MULT", "", "SI", "Tela principal"},
				{"Ondas", "OJALES", "UND", "UND_OJALES_PAR", "0.14", "NO", ""},
				{"Ondas", "CINTA", "MT", "FIJO", "2", "NO", ""},
			},
			widths: []float64{20, 20, 8, 20, 10, 20, 30},
		},
		{
			file: CatalogFile, sheet: "Catalogo", columns: catalogColumns,
			sample: [][]any{{"OJALES", "UND", "OJ-01", "PLATA", 500, ""}},
			widths: []float64{24, 8, 14, 14, 12, 30},
		},
		{
			file: FabricsFile, sheet: "Telas", columns: fabricColumns,
			sample: fabrics,
			widths: []float64{14, 30, 14, 12},
		},
	}
}

// WriteTemplates writes the four reference workbooks with their headers
// and one worked example each. Existing files are left alone unless
// overwrite is set. It returns the paths written.
func WriteTemplates(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, tpl := range templates() {
		path := filepath.Join(dir, tpl.file)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := tpl.write(path); err != nil {
			return written, fmt.Errorf("write template %s: %w", tpl.file, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (tpl template) write(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), tpl.sheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return err
	}

	for i, c := range tpl.columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(tpl.sheet, cell, c.name)
		_ = f.SetCellStyle(tpl.sheet, cell, cell, bold)
	}
	for r, row := range tpl.sample {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(tpl.sheet, cell, v)
		}
	}
	for i, w := range tpl.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(tpl.sheet, col, col, w)
	}

	return f.SaveAs(path)
}
