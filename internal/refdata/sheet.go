package refdata

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"megatex/internal/quote"
)

// column is a header the loader looks for. Aliases are compared after
// folding case, accents and punctuation, so "Diseño", "DISENO" and
// "diseno " all match.
type column struct {
	name     string
	aliases  []string
	optional bool
}

type table struct {
	name   string
	index  map[string]int
	rows   [][]string
	rowNos []int
}

func headerKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// readTable reads the first sheet of an xlsx workbook, locates the
// header row and checks every required column is present.
func readTable(name string, content []byte, columns []column) (*table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &quote.LoadError{Table: name, Err: fmt.Errorf("%w: not a readable xlsx workbook: %v", quote.ErrInvalidValue, err)}
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, &quote.LoadError{Table: name, Err: fmt.Errorf("%w: %v", quote.ErrInvalidValue, err)}
	}

	headerRow := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		for _, c := range columns {
			if !c.optional {
				return nil, &quote.LoadError{Table: name, Column: c.name, Err: quote.ErrMissingColumn}
			}
		}
		return &table{name: name, index: map[string]int{}}, nil
	}

	found := map[string]int{}
	for i, cell := range rows[headerRow] {
		key := headerKey(cell)
		if key == "" {
			continue
		}
		if _, dup := found[key]; !dup {
			found[key] = i
		}
	}

	t := &table{name: name, index: map[string]int{}}
	var missing []string
	for _, c := range columns {
		idx := -1
		for _, alias := range append([]string{c.name}, c.aliases...) {
			if i, ok := found[headerKey(alias)]; ok {
				idx = i
				break
			}
		}
		if idx < 0 {
			if !c.optional {
				missing = append(missing, c.name)
			}
			continue
		}
		t.index[c.name] = idx
	}
	if len(missing) > 0 {
		return nil, &quote.LoadError{
			Table:  name,
			Column: strings.Join(missing, ","),
			Err:    fmt.Errorf("%w (expected %s)", quote.ErrMissingColumn, columnNames(columns)),
		}
	}

	for i := headerRow + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		t.rows = append(t.rows, rows[i])
		t.rowNos = append(t.rowNos, i+1)
	}
	return t, nil
}

// cell returns the trimmed value of a column, "" when the row is short
// or the column is absent.
func (t *table) cell(row []string, col string) string {
	idx, ok := t.index[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(row[idx], "\u00A0", " "))
}

func (t *table) fail(row int, col string, err error) *quote.LoadError {
	return &quote.LoadError{Table: t.name, Row: row, Column: col, Err: err}
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func columnNames(columns []column) string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if !c.optional {
			names = append(names, c.name)
		}
	}
	return strings.Join(names, ", ")
}
