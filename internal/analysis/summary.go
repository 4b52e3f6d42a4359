// Package analysis profiles a dataset: per-column statistics, duplicates,
// outliers, correlations and the chart payloads the web UI renders.
package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

// Options controls profiling behavior.
type Options struct {
	// SampleRows determines how many example rows to include (default 5).
	SampleRows int
	// TopValues caps the listed categorical values per column (default 8).
	TopValues int
	// HistogramBins is the number of equal-width bins (default 10).
	HistogramBins int
	// IQRFactor is the whisker multiplier for outlier counting (default 1.5).
	IQRFactor float64
	// Correlations enables the Pearson matrix across numeric columns.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:    5,
		TopValues:     8,
		HistogramBins: 10,
		IQRFactor:     1.5,
		Correlations:  true,
	}
}

// Summary is the profile of one dataset.
type Summary struct {
	Name       string          `json:"name,omitempty"`
	Rows       int             `json:"rows"`
	Cols       int             `json:"cols"`
	Duplicates int             `json:"duplicates"`
	Columns    []ColumnSummary `json:"columns"`
	Corr       *CorrMatrix     `json:"correlations,omitempty"`
	Samples    [][]string      `json:"samples,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string     `json:"name"`
	Kind    table.Kind `json:"kind"`
	NonNull int        `json:"non_null"`
	Missing int        `json:"missing"`
	Unique  int        `json:"unique"`

	// Numeric stats.
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Std    float64 `json:"std,omitempty"`
	Q1     float64 `json:"q1,omitempty"`
	Median float64 `json:"median,omitempty"`
	Q3     float64 `json:"q3,omitempty"`
	// Outliers counts cells outside the IQR whiskers.
	Outliers  int       `json:"outliers,omitempty"`
	Histogram []HistBin `json:"histogram,omitempty"`

	// Categorical detail.
	TopValues []CategoryCount `json:"top_values,omitempty"`
	// CaseVariants lists values that differ only by letter case,
	// e.g. ["usa", "USA"].
	CaseVariants [][]string `json:"case_variants,omitempty"`
}

// HistBin is one equal-width histogram bucket.
type HistBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// CategoryCount is one categorical value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix is a symmetric Pearson correlation matrix over numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Summarize profiles the table.
func Summarize(t *table.Table, opt Options) *Summary {
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	if opt.HistogramBins <= 0 {
		opt.HistogramBins = 10
	}
	if opt.IQRFactor <= 0 {
		opt.IQRFactor = 1.5
	}

	s := &Summary{}
	s.Rows, s.Cols = t.Shape()
	s.Duplicates = countDuplicates(t)

	var numIdx []int
	for j, col := range t.Cols {
		cs := ColumnSummary{Name: col.Name, Kind: col.Kind}
		uniq := map[string]int{}
		for i := range t.Rows {
			v := t.Cell(i, j)
			if v == "" {
				cs.Missing++
				continue
			}
			cs.NonNull++
			uniq[v]++
		}
		cs.Unique = len(uniq)

		switch col.Kind {
		case table.KindNumeric:
			numIdx = append(numIdx, j)
			summarizeNumeric(t, j, opt, &cs)
		case table.KindCategorical, table.KindText:
			summarizeCategorical(uniq, opt, &cs)
		}
		s.Columns = append(s.Columns, cs)
	}

	if opt.Correlations && len(numIdx) >= 2 {
		s.Corr = correlate(t, numIdx)
	}

	n := opt.SampleRows
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	for i := 0; i < n; i++ {
		s.Samples = append(s.Samples, append([]string(nil), t.Rows[i]...))
	}
	return s
}

func countDuplicates(t *table.Table) int {
	seen := make(map[string]struct{}, len(t.Rows))
	dups := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func summarizeNumeric(t *table.Table, j int, opt Options, cs *ColumnSummary) {
	vals, ok := t.NumericColumn(j)
	xs := make([]float64, 0, len(vals))
	for i := range vals {
		if ok[i] {
			xs = append(xs, vals[i])
		}
	}
	if len(xs) == 0 {
		return
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	cs.Mean = mean
	if len(xs) > 1 {
		cs.Std = math.Sqrt(sq / float64(len(xs)-1))
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	cs.Min = sorted[0]
	cs.Max = sorted[len(sorted)-1]
	cs.Q1 = quantile(sorted, 0.25)
	cs.Median = quantile(sorted, 0.5)
	cs.Q3 = quantile(sorted, 0.75)

	iqr := cs.Q3 - cs.Q1
	lower := cs.Q1 - opt.IQRFactor*iqr
	upper := cs.Q3 + opt.IQRFactor*iqr
	for _, x := range xs {
		if x < lower || x > upper {
			cs.Outliers++
		}
	}

	cs.Histogram = histogram(sorted, opt.HistogramBins)
}

func histogram(sorted []float64, bins int) []HistBin {
	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	if lo == hi {
		return []HistBin{{Low: lo, High: hi, Count: len(sorted)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]HistBin, bins)
	for b := range out {
		out[b].Low = lo + float64(b)*width
		out[b].High = lo + float64(b+1)*width
	}
	out[bins-1].High = hi
	for _, x := range sorted {
		b := int((x - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		out[b].Count++
	}
	return out
}

func summarizeCategorical(uniq map[string]int, opt Options, cs *ColumnSummary) {
	tops := make([]CategoryCount, 0, len(uniq))
	for v, n := range uniq {
		tops = append(tops, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > opt.TopValues {
		tops = tops[:opt.TopValues]
	}
	cs.TopValues = tops

	// Values that collide under case folding signal inconsistent entry.
	folded := map[string][]string{}
	for v := range uniq {
		k := strings.ToLower(v)
		folded[k] = append(folded[k], v)
	}
	keys := make([]string, 0, len(folded))
	for k, vs := range folded {
		if len(vs) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		vs := folded[k]
		sort.Strings(vs)
		cs.CaseVariants = append(cs.CaseVariants, vs)
	}
}

// correlate builds the Pearson matrix using pairwise-complete observations.
func correlate(t *table.Table, numIdx []int) *CorrMatrix {
	n := len(numIdx)
	cols := make([][]float64, n)
	oks := make([][]bool, n)
	names := make([]string, n)
	for a, j := range numIdx {
		cols[a], oks[a] = t.NumericColumn(j)
		names[a] = t.Cols[j].Name
	}
	mat := make([][]float64, n)
	for a := range mat {
		mat[a] = make([]float64, n)
		mat[a][a] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(cols[a], oks[a], cols[b], oks[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

// quantile returns the q-quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
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

func pearson(x []float64, okx []bool, y []float64, oky []bool) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range x {
		if !okx[i] || !oky[i] {
			continue
		}
		n++
		sumX += x[i]
		sumY += y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
		sumXY += x[i] * y[i]
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
