package clean

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

// ---------------------------------------------------------------------------
// impute
// ---------------------------------------------------------------------------

// imputeStep fills missing cells: numeric columns get the column mean
// (rounded when the column is integer-valued), categorical and text columns
// get the most frequent value. Datetime columns and columns with no values
// at all are left alone.
type imputeStep struct{}

func (imputeStep) Name() string { return "impute" }

func (imputeStep) Apply(t *table.Table) (StepReport, error) {
	rep := StepReport{CellsChanged: map[string]int{}}
	for j, col := range t.Cols {
		switch col.Kind {
		case table.KindNumeric:
			vals, ok := t.NumericColumn(j)
			var sum float64
			var n int
			integer := true
			for i := range vals {
				if !ok[i] {
					continue
				}
				sum += vals[i]
				n++
				if vals[i] != math.Trunc(vals[i]) {
					integer = false
				}
			}
			if n == 0 {
				rep.Notes = append(rep.Notes, fmt.Sprintf("column %q is entirely missing", col.Name))
				continue
			}
			fill := sum / float64(n)
			if integer {
				fill = math.Round(fill)
			}
			filled := table.FormatFloat(fill)
			for i := range t.Rows {
				if t.Cell(i, j) == "" {
					t.SetCell(i, j, filled)
					rep.CellsChanged[col.Name]++
				}
			}
		case table.KindCategorical, table.KindText:
			mode, found := columnMode(t, j)
			if !found {
				rep.Notes = append(rep.Notes, fmt.Sprintf("column %q is entirely missing", col.Name))
				continue
			}
			for i := range t.Rows {
				if t.Cell(i, j) == "" {
					t.SetCell(i, j, mode)
					rep.CellsChanged[col.Name]++
				}
			}
		}
	}
	if len(rep.CellsChanged) == 0 {
		rep.CellsChanged = nil
	}
	return rep, nil
}

// columnMode returns the most frequent non-missing value, ties broken by
// first occurrence in the column.
func columnMode(t *table.Table, j int) (string, bool) {
	counts := map[string]int{}
	first := map[string]int{}
	for i := range t.Rows {
		v := t.Cell(i, j)
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			first[v] = i
		}
		counts[v]++
	}
	best := ""
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && first[v] < first[best]) {
			best = v
			bestN = n
		}
	}
	return best, bestN > 0
}

// ---------------------------------------------------------------------------
// deduplicate
// ---------------------------------------------------------------------------

// dedupeStep drops exact duplicate rows, keeping the first occurrence.
type dedupeStep struct{}

func (dedupeStep) Name() string { return "deduplicate" }

func (dedupeStep) Apply(t *table.Table) (StepReport, error) {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return StepReport{RowsRemoved: removed}, nil
}

// ---------------------------------------------------------------------------
// clip outliers
// ---------------------------------------------------------------------------

// clipOutliersStep replaces numeric cells outside the IQR whiskers
// [Q1 - f*IQR, Q3 + f*IQR] with the rounded column median.
type clipOutliersStep struct {
	factor float64
}

func (clipOutliersStep) Name() string { return "clip_outliers" }

func (s clipOutliersStep) Apply(t *table.Table) (StepReport, error) {
	rep := StepReport{CellsChanged: map[string]int{}}
	for j, col := range t.Cols {
		if col.Kind != table.KindNumeric {
			continue
		}
		vals, ok := t.NumericColumn(j)
		sorted := make([]float64, 0, len(vals))
		for i := range vals {
			if ok[i] {
				sorted = append(sorted, vals[i])
			}
		}
		if len(sorted) < 4 {
			continue
		}
		sort.Float64s(sorted)
		q1 := Quantile(sorted, 0.25)
		q3 := Quantile(sorted, 0.75)
		iqr := q3 - q1
		lower := q1 - s.factor*iqr
		upper := q3 + s.factor*iqr
		replacement := table.FormatFloat(math.Round(Quantile(sorted, 0.5)))
		for i := range t.Rows {
			if !ok[i] {
				continue
			}
			if vals[i] < lower || vals[i] > upper {
				t.SetCell(i, j, replacement)
				rep.CellsChanged[col.Name]++
			}
		}
	}
	if len(rep.CellsChanged) == 0 {
		rep.CellsChanged = nil
	}
	return rep, nil
}

// ---------------------------------------------------------------------------
// scale
// ---------------------------------------------------------------------------

// scaleStep standardizes numeric columns to (x - mean) / std using the
// population standard deviation. Zero-variance columns are centered only.
type scaleStep struct{}

func (scaleStep) Name() string { return "scale" }

func (scaleStep) Apply(t *table.Table) (StepReport, error) {
	rep := StepReport{}
	for j, col := range t.Cols {
		if col.Kind != table.KindNumeric {
			continue
		}
		vals, ok := t.NumericColumn(j)
		var sum float64
		var n int
		for i := range vals {
			if ok[i] {
				sum += vals[i]
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		var sq float64
		for i := range vals {
			if ok[i] {
				d := vals[i] - mean
				sq += d * d
			}
		}
		std := math.Sqrt(sq / float64(n))
		for i := range t.Rows {
			if !ok[i] {
				continue
			}
			x := vals[i] - mean
			if std > 0 {
				x /= std
			}
			t.SetCell(i, j, table.FormatFloat(x))
		}
		rep.Columns = append(rep.Columns, col.Name)
	}
	return rep, nil
}

// ---------------------------------------------------------------------------
// one-hot encode
// ---------------------------------------------------------------------------

// encodeStep one-hot encodes categorical columns with drop-first: the
// lexicographically first category has no indicator column. Indicator
// columns are named <col>_<category> and appended after the existing
// columns; the source columns are removed.
type encodeStep struct{}

func (encodeStep) Name() string { return "encode" }

func (encodeStep) Apply(t *table.Table) (StepReport, error) {
	rep := StepReport{}
	var catIdx []int
	for j, col := range t.Cols {
		if col.Kind == table.KindCategorical {
			catIdx = append(catIdx, j)
		}
	}
	if len(catIdx) == 0 {
		return rep, nil
	}

	type encoded struct {
		name   string
		srcCol int
		value  string
	}
	var newCols []encoded
	for _, j := range catIdx {
		set := map[string]struct{}{}
		for i := range t.Rows {
			if v := t.Cell(i, j); v != "" {
				set[v] = struct{}{}
			}
		}
		cats := make([]string, 0, len(set))
		for v := range set {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		// drop-first: skip cats[0]
		for _, v := range cats[1:] {
			newCols = append(newCols, encoded{
				name:   t.Cols[j].Name + "_" + v,
				srcCol: j,
				value:  v,
			})
		}
	}

	keep := make([]int, 0, len(t.Cols)-len(catIdx))
	catSet := map[int]struct{}{}
	for _, j := range catIdx {
		catSet[j] = struct{}{}
	}
	for j := range t.Cols {
		if _, drop := catSet[j]; !drop {
			keep = append(keep, j)
		}
	}

	cols := make([]table.Column, 0, len(keep)+len(newCols))
	for _, j := range keep {
		cols = append(cols, t.Cols[j])
	}
	for _, nc := range newCols {
		cols = append(cols, table.Column{Name: nc.name, Kind: table.KindNumeric})
		rep.Columns = append(rep.Columns, nc.name)
	}

	rows := make([][]string, len(t.Rows))
	for i := range t.Rows {
		row := make([]string, 0, len(cols))
		for _, j := range keep {
			row = append(row, t.Cell(i, j))
		}
		for _, nc := range newCols {
			if t.Cell(i, nc.srcCol) == nc.value {
				row = append(row, "1")
			} else {
				row = append(row, "0")
			}
		}
		rows[i] = row
	}
	t.Cols = cols
	t.Rows = rows
	return rep, nil
}

// ---------------------------------------------------------------------------
// integer restore
// ---------------------------------------------------------------------------

// restoreIntegersStep reformats numeric columns whose remaining values are
// all whole numbers so they render without a decimal point.
type restoreIntegersStep struct{}

func (restoreIntegersStep) Name() string { return "restore_integers" }

func (restoreIntegersStep) Apply(t *table.Table) (StepReport, error) {
	rep := StepReport{}
	for j, col := range t.Cols {
		if col.Kind != table.KindNumeric {
			continue
		}
		vals, ok := t.NumericColumn(j)
		whole := false
		for i := range vals {
			if !ok[i] {
				continue
			}
			if vals[i] != math.Trunc(vals[i]) {
				whole = false
				break
			}
			whole = true
		}
		if !whole {
			continue
		}
		for i := range t.Rows {
			if ok[i] {
				t.SetCell(i, j, table.FormatFloat(vals[i]))
			}
		}
		rep.Columns = append(rep.Columns, col.Name)
	}
	return rep, nil
}

// Quantile returns the q-quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
