// Package table holds the in-memory representation of a tabular dataset
// and the readers/writers that move it between CSV, XLSX and memory.
package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// Column describes one column of a Table.
type Column struct {
	Name string
	Kind Kind
}

// Table is a fully materialized dataset. Cells are stored as trimmed
// strings; the empty string marks a missing value. Numeric cells are
// normalized to strconv-parseable form during inference.
type Table struct {
	Cols []Column
	Rows [][]string
}

// Options controls parsing and inference behavior.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the filename (.tsv -> tab).
	Delimiter rune
	// MissingValues are cell tokens treated as missing in addition to "".
	MissingValues []string
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// SheetName selects an XLSX sheet by name; empty means use SheetIndex.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet index (Sheet1 == 1).
	SheetIndex int
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxCategories caps the distinct values a column may have and still be
	// classified categorical. 0 uses the default of 1000.
	MaxCategories int
}

// DefaultOptions returns the parsing defaults used across the project.
func DefaultOptions() Options {
	return Options{
		MissingValues: []string{"NA"},
		SheetIndex:    1,
	}
}

func (o Options) maxCategories() int {
	if o.MaxCategories > 0 {
		return o.MaxCategories
	}
	return 1000
}

func (o Options) isMissing(v string) bool {
	if v == "" {
		return true
	}
	for _, tok := range o.MissingValues {
		if v == tok {
			return true
		}
	}
	return false
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) {
	return len(t.Rows), len(t.Cols)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// NumericColumn parses column j into floats. ok[i] is false where the cell
// is missing. Call only on columns inferred as KindNumeric.
func (t *Table) NumericColumn(j int) (vals []float64, ok []bool) {
	vals = make([]float64, len(t.Rows))
	ok = make([]bool, len(t.Rows))
	for i, row := range t.Rows {
		if j >= len(row) || row[j] == "" {
			continue
		}
		f, err := strconv.ParseFloat(row[j], 64)
		if err != nil {
			continue
		}
		vals[i] = f
		ok[i] = true
	}
	return vals, ok
}

// SetCell writes a cell, growing the row if the table was ragged.
func (t *Table) SetCell(i, j int, v string) {
	if j >= len(t.Rows[i]) {
		tmp := make([]string, len(t.Cols))
		copy(tmp, t.Rows[i])
		t.Rows[i] = tmp
	}
	t.Rows[i][j] = v
}

// Cell returns the cell at (i, j), or "" when the row is short.
func (t *Table) Cell(i, j int) string {
	if j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	cp := &Table{Cols: append([]Column(nil), t.Cols...)}
	cp.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cp.Rows[i] = append([]string(nil), row...)
	}
	return cp
}

// Head returns up to n rows as records keyed by column name.
func (t *Table) Head(n int) []map[string]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]string, len(t.Cols))
		for j, c := range t.Cols {
			rec[c.Name] = t.Cell(i, j)
		}
		out = append(out, rec)
	}
	return out
}

// infer classifies every column and canonicalizes cells.
//
// A column is numeric when every non-missing cell parses as a number under
// the configured locale, datetime when every non-missing cell parses as a
// timestamp, categorical when its distinct values stay short and below the
// cardinality cap, and text otherwise. Numeric cells are rewritten in
// canonical strconv form so later passes can use strconv.ParseFloat
// directly. Missing tokens are rewritten to "".
func (t *Table) infer(opt Options) {
	ncol := len(t.Cols)
	type acc struct {
		nonNull int
		numeric int
		dt      int
		unique  map[string]struct{}
		long    bool
	}
	accs := make([]acc, ncol)
	for j := range accs {
		accs[j].unique = make(map[string]struct{})
	}

	for i, row := range t.Rows {
		for j := 0; j < ncol && j < len(row); j++ {
			v := strings.TrimSpace(row[j])
			if opt.isMissing(v) {
				v = ""
			}
			t.Rows[i][j] = v
			if v == "" {
				continue
			}
			a := &accs[j]
			a.nonNull++
			if _, ok := parseNumeric(v, opt); ok {
				a.numeric++
			} else if _, ok := parseTimeMaybe(v); ok {
				a.dt++
			}
			if len(a.unique) <= opt.maxCategories() {
				a.unique[v] = struct{}{}
			}
			if len(v) > 64 {
				a.long = true
			}
		}
	}

	for j := range t.Cols {
		a := &accs[j]
		switch {
		case a.nonNull == 0:
			t.Cols[j].Kind = KindUnknown
		case a.numeric == a.nonNull:
			t.Cols[j].Kind = KindNumeric
		case a.dt == a.nonNull:
			t.Cols[j].Kind = KindDatetime
		case !a.long && len(a.unique) <= opt.maxCategories():
			t.Cols[j].Kind = KindCategorical
		default:
			t.Cols[j].Kind = KindText
		}
	}

	// Canonicalize numeric cells so "1.000,5" and "1000.5" compare equal.
	for j, c := range t.Cols {
		if c.Kind != KindNumeric {
			continue
		}
		for i := range t.Rows {
			v := t.Cell(i, j)
			if v == "" {
				continue
			}
			if x, ok := parseNumeric(v, opt); ok {
				t.SetCell(i, j, FormatFloat(x))
			}
		}
	}
}

// FormatFloat renders a float the way cleaned cells are stored: shortest
// representation that round-trips, integers without a decimal point.
func FormatFloat(x float64) string {
	if x == math.Trunc(x) && math.Abs(x) < 1e15 {
		return strconv.FormatInt(int64(x), 10)
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric parses a cell under the configured (or auto-detected)
// decimal/thousands separators. Percent signs are stripped.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
