package refdata

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"megatex/internal/quote"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

var (
	designRows = [][]any{
		{"Diseño", "Tipo", "Multiplicador", "PVP M.O."},
		{"Ondas", "Clasica, Moderna", 2.5, 5000},
		{"Pliegue Romano", "Clasica", "2,0", ""},
	}
	bomRows = [][]any{
		{"Diseño", "Insumo", "Unidad", "ReglaCantidad", "Parametro", "DependeDeSeleccion", "Observaciones"},
		{"Ondas", "TELA 1", "MT", "MT_ANCHO_X_MULT", "", "SI", ""},
		{"Ondas", "OJALES", "UND", "UND_OJALES_PAR", "0,14", "NO", "plata"},
		{"Ondas", "RIEL", "MT", "MT_ANCHO_X_MULT", "", "SI", ""},
		{},
		{"Pliegue Romano", "TELA 1", "MT", "MT_ANCHO_X_MULT", "1.1", "SI", ""},
		{"Fantasma", "CINTA", "MT", "FIJO", "2", "NO", ""},
	}
	catalogRows = [][]any{
		{"Insumo", "Unidad", "Ref", "Color", "PVP"},
		{"OJALES", "UND", "OJ-1", "PLATA", 500},
		{"OJALES", "UND", "OJ-2", "ORO", "consultar"},
		{"RIEL", "MT", "R-ALU", "BLANCO", "12.000"},
	}
)

func TestParseBuildsSnapshot(t *testing.T) {
	ref, warnings, err := Parse(mkXLSX(designRows), mkXLSX(bomRows), mkXLSX(catalogRows), nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(ref.DesignOrder) != 2 || ref.DesignOrder[0] != "ONDAS" || ref.DesignOrder[1] != "PLIEGUE ROMANO" {
		t.Fatalf("design order=%v", ref.DesignOrder)
	}
	ondas := ref.Designs["ONDAS"]
	if !ondas.WidthMultiplier.Equal(decimal.RequireFromString("2.5")) || !ondas.LaborUnitPrice.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("ondas=%+v", ondas)
	}
	if len(ondas.Categories) != 2 || ondas.Categories[1] != "Moderna" {
		t.Fatalf("categories=%v", ondas.Categories)
	}
	romano := ref.Designs["PLIEGUE ROMANO"]
	if !romano.WidthMultiplier.Equal(decimal.NewFromInt(2)) || !romano.LaborUnitPrice.IsZero() {
		t.Fatalf("romano=%+v", romano)
	}

	rules := ref.Rules["ONDAS"]
	if len(rules) != 3 || rules[1].Rule.Kind() != quote.RuleEyeletPairs || rules[1].Notes != "plata" || !rules[0].RequiresSelection {
		t.Fatalf("rules=%+v", rules)
	}

	ojales := ref.Materials["OJALES"]
	if len(ojales.Variants) != 2 || !ojales.Variants[1].UnitPrice.IsZero() {
		t.Fatalf("ojales=%+v", ojales)
	}
	if !ref.Materials["RIEL"].Variants[0].UnitPrice.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("riel=%+v", ref.Materials["RIEL"])
	}
	if _, ok := ref.Fabrics.Lookup("Loneta", "NATALIA", "CAMEL"); !ok {
		t.Fatal("default fabric catalog not applied")
	}

	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, "consultar") || !strings.Contains(joined, "design=Fantasma") {
		t.Fatalf("warnings=%v", warnings)
	}

	res, err := quote.Compute(ref, quote.Selection{
		Design:   "ondas",
		Width:    1.2,
		Quantity: 1,
		Fabrics:  map[string]quote.FabricChoice{"TELA 1": {Type: "Loneta", Ref: "NATALIA", Color: "MARFIL"}},
	}, quote.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	// 114000 fabric + 11000 eyelets + 36000 rail + 15000 labor
	if !res.Total.Equal(decimal.NewFromInt(176000)) {
		t.Fatalf("total=%s lines=%+v", res.Total, res.Lines)
	}
}

func TestParseLoadErrors(t *testing.T) {
	bomWith := func(row []any) [][]any {
		return [][]any{bomRows[0], bomRows[1], row}
	}

	cases := []struct {
		name    string
		designs [][]any
		bom     [][]any
		want    error
		table   string
		column  string
		row     int
	}{
		{
			name:    "missing design column",
			designs: [][]any{{"Diseño", "Tipo", "PVP M.O."}, {"Ondas", "Clasica", 5000}},
			bom:     bomRows,
			want:    quote.ErrMissingColumn, table: TableDesigns, column: "Multiplicador",
		},
		{
			name:    "zero multiplier",
			designs: [][]any{designRows[0], {"Ondas", "Clasica", 0, 5000}},
			bom:     bomRows,
			want:    quote.ErrInvalidValue, table: TableDesigns, column: "Multiplicador", row: 2,
		},
		{
			name:    "unknown rule",
			designs: designRows,
			bom:     bomWith([]any{"Ondas", "BORLA", "UND", "UND_BORLA", "", "NO", ""}),
			want:    quote.ErrUnknownRule, table: TableBOM, column: "ReglaCantidad", row: 3,
		},
		{
			name:    "unknown unit",
			designs: designRows,
			bom:     bomWith([]any{"Ondas", "BORLA", "KG", "FIJO", "1", "NO", ""}),
			want:    quote.ErrUnknownUnit, table: TableBOM, column: "Unidad", row: 3,
		},
		{
			name:    "duplicate material",
			designs: designRows,
			bom:     bomWith([]any{"ondas", "tela 1", "MT", "FIJO", "1", "NO", ""}),
			want:    quote.ErrDuplicateRule, table: TableBOM, column: "Insumo", row: 3,
		},
		{
			name:    "bad selection flag",
			designs: designRows,
			bom:     bomWith([]any{"Ondas", "BORLA", "UND", "FIJO", "1", "QUIZAS", ""}),
			want:    quote.ErrInvalidValue, table: TableBOM, column: "DependeDeSeleccion", row: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(mkXLSX(tc.designs), mkXLSX(tc.bom), nil, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
			var lerr *quote.LoadError
			if !errors.As(err, &lerr) {
				t.Fatalf("expected LoadError, got %T", err)
			}
			if lerr.Table != tc.table || lerr.Column != tc.column || lerr.Row != tc.row {
				t.Fatalf("unexpected location: %+v", lerr)
			}
		})
	}
}

func TestParseHeaderAliases(t *testing.T) {
	designs := mkXLSX([][]any{
		{"DISENO", "tipo", "multiplicador ", "Pvp M.O"},
		{"Ondas", "Clasica", 2, 1000},
	})
	bom := mkXLSX([][]any{
		{"diseño", "INSUMO", "unidad", "Regla Cantidad", "Parámetro", "Depende de selección"},
		{"Ondas", "CINTA", "mts", "fijo", "3", "no"},
	})
	ref, _, err := Parse(designs, bom, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := ref.Rules["ONDAS"][0]; got.Unit != quote.UnitLength || got.Rule.Kind() != quote.RuleFixed {
		t.Fatalf("rule=%+v", got)
	}
}

func TestParseFabricsSheet(t *testing.T) {
	fabrics := mkXLSX([][]any{
		{"Tipo", "Ref", "Color", "PVP"},
		{"Lino", "TOSCANA", "ARENA", 52000},
		{"Lino", "TOSCANA", "GRIS", 52000},
	})
	ref, _, err := Parse(mkXLSX(designRows), mkXLSX(bomRows), nil, fabrics)
	if err != nil {
		t.Fatal(err)
	}
	if len(ref.Fabrics.Types) != 1 || len(ref.Fabrics.Types[0].References[0].Variants) != 2 {
		t.Fatalf("fabrics=%+v", ref.Fabrics)
	}
	if _, ok := ref.Fabrics.Lookup("Loneta", "NATALIA", "CAMEL"); ok {
		t.Fatal("fabrics sheet must replace the built-in list")
	}

	bad := mkXLSX([][]any{{"Tipo", "Ref", "Color", "PVP"}, {"Lino", "TOSCANA", "ARENA", "n/a"}})
	if _, _, err := Parse(mkXLSX(designRows), mkXLSX(bomRows), nil, bad); !errors.Is(err, quote.ErrInvalidValue) {
		t.Fatalf("expected invalid fabric price error, got %v", err)
	}
}

func TestIndex(t *testing.T) {
	ref, _, err := Parse(mkXLSX(designRows), mkXLSX(bomRows), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	idx := BuildIndex(ref)
	if got := idx.Categories(); len(got) != 2 || got[0] != "Clasica" || got[1] != "Moderna" {
		t.Fatalf("categories=%v", got)
	}
	if got := idx.Designs("clasica"); len(got) != 2 || got[0] != "Ondas" || got[1] != "Pliegue Romano" {
		t.Fatalf("designs=%v", got)
	}
	if got := idx.CategoriesOf("PLIEGUE ROMANO"); len(got) != 1 || got[0] != "Clasica" {
		t.Fatalf("categoriesOf=%v", got)
	}
	if idx.Designs("Infantil") != nil {
		t.Fatal("unknown category must be empty")
	}
}

func writeFixtures(t *testing.T, dir string) Paths {
	t.Helper()
	paths := Paths{
		Designs: filepath.Join(dir, DesignsFile),
		BOM:     filepath.Join(dir, BOMFile),
		Catalog: filepath.Join(dir, CatalogFile),
		Fabrics: filepath.Join(dir, FabricsFile),
	}
	for path, rows := range map[string][][]any{paths.Designs: designRows, paths.BOM: bomRows, paths.Catalog: catalogRows} {
		if err := os.WriteFile(path, mkXLSX(rows), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func TestLoadOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixtures(t, dir)
	if err := os.Remove(paths.Catalog); err != nil {
		t.Fatal(err)
	}
	ref, _, err := Load(paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(ref.Materials) != 0 {
		t.Fatalf("missing catalog must load empty, got %d entries", len(ref.Materials))
	}

	paths.BOM = filepath.Join(dir, "nope.xlsx")
	_, _, err = Load(paths)
	var lerr *quote.LoadError
	if !errors.As(err, &lerr) || lerr.Table != TableBOM {
		t.Fatalf("expected bom LoadError, got %v", err)
	}
}

func TestHolderKeepsSnapshotOnFailedReload(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixtures(t, dir)

	h, err := NewHolder(paths)
	if err != nil {
		t.Fatal(err)
	}
	first := h.Current()
	if h.Changed() {
		t.Fatal("fresh snapshot must not be stale")
	}

	broken := [][]any{bomRows[0], {"Ondas", "TELA 1", "MT", "MT_ALTO", "", "SI", ""}}
	if err := os.WriteFile(paths.BOM, mkXLSX(broken), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(paths.BOM, future, future); err != nil {
		t.Fatal(err)
	}
	if !h.Changed() {
		t.Fatal("modified workbook not detected")
	}

	if _, err := h.Reload(); !errors.Is(err, quote.ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
	if h.Current().Data != first.Data {
		t.Fatal("failed reload replaced the snapshot")
	}
	if h.Changed() {
		t.Fatal("failed generation must not be retried until files change again")
	}

	if err := os.WriteFile(paths.BOM, mkXLSX(bomRows), 0o644); err != nil {
		t.Fatal(err)
	}
	later := future.Add(time.Minute)
	if err := os.Chtimes(paths.BOM, later, later); err != nil {
		t.Fatal(err)
	}
	snap, err := h.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Data == first.Data || h.Current() != snap {
		t.Fatal("successful reload not published")
	}
}

func TestWriteTemplatesLoadable(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteTemplates(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 4 {
		t.Fatalf("written=%v", written)
	}
	again, err := WriteTemplates(dir, false)
	if err != nil || len(again) != 0 {
		t.Fatalf("existing templates overwritten: %v %v", again, err)
	}

	ref, _, err := Load(Paths{
		Designs: filepath.Join(dir, DesignsFile),
		BOM:     filepath.Join(dir, BOMFile),
		Catalog: filepath.Join(dir, CatalogFile),
		Fabrics: filepath.Join(dir, FabricsFile),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ref.Designs) != 1 || len(ref.Rules["ONDAS"]) != 3 {
		t.Fatalf("template snapshot=%+v", ref)
	}
	if _, ok := ref.Fabrics.Lookup("Velo", "LINK", "ACERO"); !ok {
		t.Fatal("fabric template must carry the built-in list")
	}
}
