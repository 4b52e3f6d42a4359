package clean

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

var pipelineCSV = strings.Join([]string{
	"id,age,city,score",
	"1,25,NYC,10",
	"2,,LA,12",
	"3,35,NYC,11",
	"3,35,NYC,11",
	"4,30,,200",
	"5,28,LA,13",
}, "\n")

func loadTable(t *testing.T, csv string) *table.Table {
	t.Helper()
	tab, err := table.ReadCSV(strings.NewReader(csv), table.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tab
}

func cellFloat(t *testing.T, tab *table.Table, i, j int) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(tab.Cell(i, j), 64)
	if err != nil {
		t.Fatalf("cell (%d,%d) = %q is not numeric: %v", i, j, tab.Cell(i, j), err)
	}
	return f
}

// standardize mirrors the scale step: center on the mean, divide by the
// population standard deviation.
func standardize(xs []float64) []float64 {
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
	std := math.Sqrt(sq / float64(len(xs)))
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x - mean
		if std > 0 {
			out[i] /= std
		}
	}
	return out
}

func TestPipelineEndToEnd(t *testing.T) {
	tab := loadTable(t, pipelineCSV)
	rep, err := NewPipeline(DefaultOptions()).Run(tab)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.RowsBefore != 6 || rep.RowsAfter != 5 {
		t.Errorf("rows %d -> %d, want 6 -> 5", rep.RowsBefore, rep.RowsAfter)
	}
	if rep.ColsBefore != 4 || rep.ColsAfter != 4 {
		t.Errorf("cols %d -> %d, want 4 -> 4", rep.ColsBefore, rep.ColsAfter)
	}

	byStep := map[string]StepReport{}
	for _, s := range rep.Steps {
		byStep[s.Step] = s
	}

	// Mean age over 25,35,35,30,28 is 30.6, rounded to 31 for an
	// integer-valued column; the mode city is NYC.
	imp := byStep["impute"]
	if imp.CellsChanged["age"] != 1 || imp.CellsChanged["city"] != 1 {
		t.Errorf("impute cells_changed = %v, want age=1 city=1", imp.CellsChanged)
	}

	if byStep["deduplicate"].RowsRemoved != 1 {
		t.Errorf("deduplicate removed %d rows, want 1", byStep["deduplicate"].RowsRemoved)
	}

	// score 200 lies outside [Q1-1.5*IQR, Q3+1.5*IQR] = [8, 16] and is
	// replaced with the rounded median 12.
	if byStep["clip_outliers"].CellsChanged["score"] != 1 {
		t.Errorf("clip_outliers cells_changed = %v, want score=1", byStep["clip_outliers"].CellsChanged)
	}

	wantScaled := []string{"id", "age", "score"}
	if got := byStep["scale"].Columns; strings.Join(got, ",") != strings.Join(wantScaled, ",") {
		t.Errorf("scale columns = %v, want %v", got, wantScaled)
	}
	if got := byStep["encode"].Columns; len(got) != 1 || got[0] != "city_NYC" {
		t.Errorf("encode columns = %v, want [city_NYC]", got)
	}

	wantCols := []string{"id", "age", "score", "city_NYC"}
	if got := tab.ColumnNames(); strings.Join(got, ",") != strings.Join(wantCols, ",") {
		t.Fatalf("columns = %v, want %v", got, wantCols)
	}

	// Post-impute, post-dedupe, post-clip values per column.
	wantID := standardize([]float64{1, 2, 3, 4, 5})
	wantAge := standardize([]float64{25, 31, 35, 30, 28})
	wantScore := standardize([]float64{10, 12, 11, 12, 13})
	for i := 0; i < 5; i++ {
		if got := cellFloat(t, tab, i, 0); math.Abs(got-wantID[i]) > 1e-12 {
			t.Errorf("id[%d] = %v, want %v", i, got, wantID[i])
		}
		if got := cellFloat(t, tab, i, 1); math.Abs(got-wantAge[i]) > 1e-12 {
			t.Errorf("age[%d] = %v, want %v", i, got, wantAge[i])
		}
		if got := cellFloat(t, tab, i, 2); math.Abs(got-wantScore[i]) > 1e-12 {
			t.Errorf("score[%d] = %v, want %v", i, got, wantScore[i])
		}
	}

	// city was NYC,LA,NYC,NYC,LA after dedupe; LA is the dropped first
	// category.
	wantNYC := []string{"1", "0", "1", "1", "0"}
	for i, want := range wantNYC {
		if got := tab.Cell(i, 3); got != want {
			t.Errorf("city_NYC[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestImputeFractionalMean(t *testing.T) {
	tab := loadTable(t, "x,tag\n1.5,a\n2.5,b\n,c\n")
	rep, err := imputeStep{}.Apply(tab)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.CellsChanged["x"] != 1 {
		t.Fatalf("impute cells_changed = %v, want x=1", rep.CellsChanged)
	}
	// Mean 2.0 fills the gap; the column is not integer-valued so no
	// rounding applies.
	if got := tab.Cell(2, 0); got != "2" {
		t.Errorf("imputed cell = %q, want 2", got)
	}
}

func TestImputeAllMissingColumn(t *testing.T) {
	tab := &table.Table{
		Cols: []table.Column{{Name: "b", Kind: table.KindNumeric}},
		Rows: [][]string{{""}, {""}},
	}
	rep, err := imputeStep{}.Apply(tab)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(rep.Notes) != 1 || !strings.Contains(rep.Notes[0], `"b"`) {
		t.Errorf("impute notes = %v, want all-missing note for b", rep.Notes)
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	tab := loadTable(t, "a,b\n1,x\n1,x\n2,y\n1,x\n")
	rep, err := dedupeStep{}.Apply(tab)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.RowsRemoved != 2 {
		t.Errorf("removed = %d, want 2", rep.RowsRemoved)
	}
	if rows, _ := tab.Shape(); rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	if got := tab.Cell(0, 1); got != "x" {
		t.Errorf("first kept row b = %q, want x", got)
	}
}

func TestClipSkipsTinyColumns(t *testing.T) {
	tab := loadTable(t, "x\n1\n2\n1000\n")
	rep, err := clipOutliersStep{factor: 1.5}.Apply(tab)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(rep.CellsChanged) != 0 {
		t.Errorf("cells_changed = %v, want none for a 3-value column", rep.CellsChanged)
	}
}

func TestColumnModeTieBreak(t *testing.T) {
	tab := loadTable(t, "c\nb\na\nb\na\n")
	mode, ok := columnMode(tab, 0)
	if !ok || mode != "b" {
		t.Fatalf("mode = %q (ok=%v), want b by first occurrence", mode, ok)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 11, 12, 13, 200}
	cases := []struct {
		q, want float64
	}{
		{0, 10},
		{0.25, 11},
		{0.5, 12},
		{0.75, 13},
		{1, 200},
	}
	for _, c := range cases {
		if got := Quantile(sorted, c.q); got != c.want {
			t.Errorf("Quantile(%v) = %v, want %v", c.q, got, c.want)
		}
	}
	if got := Quantile([]float64{1, 2}, 0.5); got != 1.5 {
		t.Errorf("interpolated median = %v, want 1.5", got)
	}
	if got := Quantile(nil, 0.5); got != 0 {
		t.Errorf("empty quantile = %v, want 0", got)
	}
}

func TestEncodeSingleCategoryDropsColumn(t *testing.T) {
	tab := loadTable(t, "x,c\n1,only\n2,only\n3,only\n")
	rep, err := encodeStep{}.Apply(tab)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(rep.Columns) != 0 {
		t.Errorf("encode columns = %v, want none", rep.Columns)
	}
	if got := tab.ColumnNames(); strings.Join(got, ",") != "x" {
		t.Errorf("columns = %v, want [x]", got)
	}
}
