package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"megatex/internal"
)

const (
	summarySheet = "Cotizacion"
	detailSheet  = "Detalle"
)

// QuoteXLSX renders a quotation as a workbook with a summary sheet (one
// row per quoted curtain plus totals) and a per-material detail sheet.
func QuoteXLSX(doc internal.QuoteDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#0050B4"}},
	})
	if err != nil {
		return nil, err
	}

	set := func(sheet string, col, row int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if s, ok := value.(string); ok {
			value = sanitizeCell(s)
		}
		_ = f.SetCellValue(sheet, cell, value)
	}
	styleRow := func(sheet string, row, cols, style int) {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(cols, row)
		_ = f.SetCellStyle(sheet, first, last, style)
	}

	q := doc.Quote
	set(summarySheet, 1, 1, doc.CompanyName)
	styleRow(summarySheet, 1, 1, bold)
	set(summarySheet, 1, 2, "Cotización #")
	set(summarySheet, 2, 2, q.Number)
	set(summarySheet, 1, 3, "Fecha")
	set(summarySheet, 2, 3, doc.IssuedAt)
	set(summarySheet, 1, 4, "Cliente")
	set(summarySheet, 2, 4, q.Client.Name)
	set(summarySheet, 3, 4, "Cédula/NIT")
	set(summarySheet, 4, 4, q.Client.IDNumber)
	set(summarySheet, 1, 5, "Teléfono")
	set(summarySheet, 2, 5, q.Client.Phone)
	set(summarySheet, 3, 5, "Correo")
	set(summarySheet, 4, 5, q.Client.Email)
	set(summarySheet, 1, 6, "Dirección")
	set(summarySheet, 2, 6, q.Client.Address)
	set(summarySheet, 1, 7, "Vendedor")
	set(summarySheet, 2, 7, q.Seller.Name)
	set(summarySheet, 3, 7, "Teléfono vendedor")
	set(summarySheet, 4, 7, q.Seller.Phone)

	headers := []string{"#", "Diseño", "Tipo", "Ancho (m)", "Ancho cortina (m)", "Alto (m)", "Cant.", "Tela", "Total"}
	const headerRow = 9
	for i, h := range headers {
		set(summarySheet, i+1, headerRow, h)
	}
	styleRow(summarySheet, headerRow, len(headers), header)

	r := headerRow + 1
	for _, item := range doc.Items {
		set(summarySheet, 1, r, item.Position)
		set(summarySheet, 2, r, item.Design)
		set(summarySheet, 3, r, item.Category)
		set(summarySheet, 4, r, item.Width)
		set(summarySheet, 5, r, item.Result.EffectiveWidth.InexactFloat64())
		set(summarySheet, 6, r, item.Height)
		set(summarySheet, 7, r, item.Quantity)
		set(summarySheet, 8, r, item.FabricLabel)
		set(summarySheet, 9, r, item.Result.Total.InexactFloat64())
		r++
	}

	r++
	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal", doc.Summary.SubtotalBeforeTax.InexactFloat64()},
		{fmt.Sprintf("IVA (%s%%)", doc.TaxRate.Shift(2).String()), doc.Summary.TaxAmount.InexactFloat64()},
		{"Total", doc.Summary.Total.InexactFloat64()},
	}
	for _, t := range totals {
		set(summarySheet, 8, r, t.label)
		set(summarySheet, 9, r, t.value)
		styleRow(summarySheet, r, 9, bold)
		r++
	}

	detailHeaders := []string{"#", "Diseño", "Insumo", "Unidad", "Cant. por cortina", "Cant. total", "Precio unitario", "Total", "Origen"}
	for i, h := range detailHeaders {
		set(detailSheet, i+1, 1, h)
	}
	styleRow(detailSheet, 1, len(detailHeaders), header)
	r = 2
	for _, item := range doc.Items {
		for _, line := range item.Result.Lines {
			set(detailSheet, 1, r, item.Position)
			set(detailSheet, 2, r, item.Design)
			set(detailSheet, 3, r, line.Label)
			set(detailSheet, 4, r, string(line.Unit))
			set(detailSheet, 5, r, line.QuantityPerUnit.InexactFloat64())
			set(detailSheet, 6, r, line.QuantityTotal.InexactFloat64())
			set(detailSheet, 7, r, line.UnitPrice.InexactFloat64())
			set(detailSheet, 8, r, line.LineTotal.InexactFloat64())
			set(detailSheet, 9, r, string(line.Source))
			r++
		}
		for _, w := range item.Result.Warnings {
			set(detailSheet, 1, r, item.Position)
			set(detailSheet, 2, r, item.Design)
			set(detailSheet, 3, r, "AVISO: "+w.String())
			r++
		}
	}

	for sheet, widths := range map[string][]float64{
		summarySheet: {6, 22, 16, 12, 18, 10, 8, 36, 16},
		detailSheet:  {6, 22, 36, 8, 18, 12, 16, 16, 12},
	} {
		for i, w := range widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetColWidth(sheet, col, col, w)
		}
	}

	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportQuoteXLSX writes the workbook to outputPath, creating its
// directory.
func ExportQuoteXLSX(doc internal.QuoteDocument, outputPath string) error {
	content, err := QuoteXLSX(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, content, 0o644)
}

// sanitizeCell keeps user-typed names from being read as formulas.
func sanitizeCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}
