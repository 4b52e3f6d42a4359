package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

var summaryCSV = strings.Join([]string{
	"country,gdp,pop,pop2,note",
	"USA,100,10,20,a",
	"usa,200,20,40,b",
	"Canada,300,30,60,c",
	"Canada,400,40,80,d",
	"Canada,400,40,80,d",
	"Mexico,5000,35,70,e",
}, "\n")

func loadSummaryTable(t *testing.T) *table.Table {
	t.Helper()
	tab, err := table.ReadCSV(strings.NewReader(summaryCSV), table.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tab
}

func columnByName(t *testing.T, s *Summary, name string) ColumnSummary {
	t.Helper()
	for _, c := range s.Columns {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not in summary", name)
	return ColumnSummary{}
}

func TestSummarize(t *testing.T) {
	s := Summarize(loadSummaryTable(t), DefaultOptions())

	if s.Rows != 6 || s.Cols != 5 {
		t.Fatalf("shape = (%d, %d), want (6, 5)", s.Rows, s.Cols)
	}
	if s.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", s.Duplicates)
	}

	country := columnByName(t, s, "country")
	if country.Kind != table.KindCategorical {
		t.Errorf("country kind = %s, want categorical", country.Kind)
	}
	if country.Unique != 4 {
		t.Errorf("country unique = %d, want 4", country.Unique)
	}
	if len(country.TopValues) == 0 || country.TopValues[0].Value != "Canada" || country.TopValues[0].Count != 3 {
		t.Errorf("country top values = %v, want Canada(3) first", country.TopValues)
	}
	if len(country.CaseVariants) != 1 || strings.Join(country.CaseVariants[0], "/") != "USA/usa" {
		t.Errorf("country case variants = %v, want [[USA usa]]", country.CaseVariants)
	}

	gdp := columnByName(t, s, "gdp")
	if gdp.Min != 100 || gdp.Max != 5000 {
		t.Errorf("gdp min/max = %v/%v, want 100/5000", gdp.Min, gdp.Max)
	}
	if gdp.Median != 350 {
		t.Errorf("gdp median = %v, want 350", gdp.Median)
	}
	if gdp.Outliers != 1 {
		t.Errorf("gdp outliers = %d, want 1", gdp.Outliers)
	}
	total := 0
	for _, b := range gdp.Histogram {
		total += b.Count
	}
	if total != gdp.NonNull {
		t.Errorf("histogram counts sum to %d, want %d", total, gdp.NonNull)
	}

	if s.Corr == nil {
		t.Fatal("expected a correlation matrix")
	}
	pi, p2i := -1, -1
	for i, n := range s.Corr.Columns {
		switch n {
		case "pop":
			pi = i
		case "pop2":
			p2i = i
		}
	}
	if pi < 0 || p2i < 0 {
		t.Fatalf("corr columns = %v, want pop and pop2", s.Corr.Columns)
	}
	if r := s.Corr.Values[pi][p2i]; math.Abs(r-1) > 1e-9 {
		t.Errorf("corr(pop, pop2) = %v, want 1", r)
	}
	if r := s.Corr.Values[pi][pi]; r != 1 {
		t.Errorf("corr diagonal = %v, want 1", r)
	}

	if len(s.Samples) != 5 {
		t.Errorf("samples = %d rows, want 5", len(s.Samples))
	}
}

func TestSummarizeMissingCells(t *testing.T) {
	csv := "x,y\n1,a\n,b\n3,\n"
	tab, err := table.ReadCSV(strings.NewReader(csv), table.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	s := Summarize(tab, DefaultOptions())
	x := columnByName(t, s, "x")
	if x.NonNull != 2 || x.Missing != 1 {
		t.Errorf("x non-null/missing = %d/%d, want 2/1", x.NonNull, x.Missing)
	}
	y := columnByName(t, s, "y")
	if y.Missing != 1 || y.Unique != 2 {
		t.Errorf("y missing/unique = %d/%d, want 1/2", y.Missing, y.Unique)
	}
}

func TestHistogram(t *testing.T) {
	sorted := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	bins := histogram(sorted, 5)
	if len(bins) != 5 {
		t.Fatalf("bins = %d, want 5", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != len(sorted) {
		t.Errorf("counts sum to %d, want %d", total, len(sorted))
	}
	// The maximum lands in the last bin, not one past it.
	if bins[4].Count != 3 {
		t.Errorf("last bin count = %d, want 3", bins[4].Count)
	}
	if bins[4].High != 10 {
		t.Errorf("last bin high = %v, want 10", bins[4].High)
	}

	single := histogram([]float64{5, 5, 5}, 10)
	if len(single) != 1 || single[0].Count != 3 {
		t.Errorf("constant column histogram = %v, want one bin of 3", single)
	}
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	okAll := []bool{true, true, true, true}
	inv := []float64{4, 3, 2, 1}
	if r := pearson(x, okAll, inv, okAll); math.Abs(r+1) > 1e-9 {
		t.Errorf("pearson inverse = %v, want -1", r)
	}
	flat := []float64{2, 2, 2, 2}
	if r := pearson(x, okAll, flat, okAll); r != 0 {
		t.Errorf("pearson constant = %v, want 0", r)
	}
	// Pairwise-complete: rows where either side is missing are skipped.
	okPart := []bool{true, true, false, true}
	if r := pearson(x, okPart, x, okAll); math.Abs(r-1) > 1e-9 {
		t.Errorf("pearson pairwise = %v, want 1", r)
	}
}

func TestMarkdownSections(t *testing.T) {
	s := Summarize(loadSummaryTable(t), DefaultOptions())
	s.Name = "countries.csv"
	md := s.Markdown()

	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: countries.csv",
		"Duplicate rows: 1",
		"[SCHEMA]",
		"[FORMATTING]",
		"case inconsistency: USA / usa",
		"[CORRELATIONS]",
		"[SAMPLE ROWS]",
		"outliers: 1 outside IQR whiskers",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
