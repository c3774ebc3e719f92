package refdata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"megatex/internal/quote"
	"megatex/internal/util"
)

// Paths locates the reference workbooks. Catalog and Fabrics are
// optional: a missing catalog is an empty catalog and a missing fabrics
// workbook falls back to DefaultFabrics.
type Paths struct {
	Designs string
	BOM     string
	Catalog string
	Fabrics string
}

func (p Paths) list() []string {
	return []string{p.Designs, p.BOM, p.Catalog, p.Fabrics}
}

// Load reads and cross-checks the four tables. The returned warnings are
// problems that do not prevent quoting, such as BOM rows for designs that
// are not in the designs table.
func Load(paths Paths) (*quote.ReferenceData, []string, error) {
	designContent, err := readRequired(TableDesigns, paths.Designs)
	if err != nil {
		return nil, nil, err
	}
	bomContent, err := readRequired(TableBOM, paths.BOM)
	if err != nil {
		return nil, nil, err
	}
	catalogContent, err := readOptional(TableCatalog, paths.Catalog)
	if err != nil {
		return nil, nil, err
	}
	fabricContent, err := readOptional(TableFabrics, paths.Fabrics)
	if err != nil {
		return nil, nil, err
	}

	return Parse(designContent, bomContent, catalogContent, fabricContent)
}

// Parse builds a snapshot from workbook contents. A nil catalog or
// fabrics workbook takes the same defaults as a missing file.
func Parse(designs, bom, catalog, fabrics []byte) (*quote.ReferenceData, []string, error) {
	dt, err := parseDesigns(designs)
	if err != nil {
		return nil, nil, err
	}
	rules, err := parseBOM(bom)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	materials := map[string]quote.CatalogEntry{}
	if catalog != nil {
		var catalogWarnings []string
		materials, catalogWarnings, err = parseCatalog(catalog)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, catalogWarnings...)
	}

	fabricCatalog := DefaultFabrics()
	if fabrics != nil {
		fabricCatalog, err = parseFabrics(fabrics)
		if err != nil {
			return nil, nil, err
		}
	}

	var orphans []string
	for key, rs := range rules {
		if _, ok := dt.designs[key]; !ok {
			orphans = append(orphans, fmt.Sprintf("%s design=%s: %d BOM rows for a design that is not in the designs table", TableBOM, rs[0].DesignID, len(rs)))
		}
	}
	sort.Strings(orphans)
	warnings = append(warnings, orphans...)
	for _, key := range dt.order {
		if len(rules[key]) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s design=%s: design has no BOM rows", TableDesigns, dt.designs[key].ID))
		}
		for _, r := range rules[key] {
			if r.RequiresSelection && !quote.IsFabricSlot(r.Material) {
				if _, ok := materials[util.NormalizeKey(r.Material)]; !ok {
					warnings = append(warnings, fmt.Sprintf("%s design=%s material=%s: requires a selection but is not in the catalog", TableBOM, r.DesignID, r.Material))
				}
			}
		}
	}

	return &quote.ReferenceData{
		Designs:     dt.designs,
		DesignOrder: dt.order,
		Rules:       rules,
		Materials:   materials,
		Fabrics:     fabricCatalog,
	}, warnings, nil
}

func readRequired(table, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &quote.LoadError{Table: table, Err: fmt.Errorf("%w: no workbook path configured", quote.ErrInvalidValue)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &quote.LoadError{Table: table, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return content, nil
}

func readOptional(table, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &quote.LoadError{Table: table, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return content, nil
}
