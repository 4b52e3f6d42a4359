package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Markdown renders a compact report suitable for terminals or docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", s.Cols))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n\n", s.Duplicates))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Columns {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)",
			safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique))
		switch {
		case c.Kind == "numeric" && c.NonNull > 0:
			b.WriteString(fmt.Sprintf(", min %.4g, max %.4g, mean %.4g, std %.4g",
				c.Min, c.Max, c.Mean, c.Std))
			if c.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d outside IQR whiskers", c.Outliers))
			}
		case len(c.TopValues) > 0:
			b.WriteString(", top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	var inconsistent []ColumnSummary
	for _, c := range s.Columns {
		if len(c.CaseVariants) > 0 {
			inconsistent = append(inconsistent, c)
		}
	}
	if len(inconsistent) > 0 {
		b.WriteString("\n[FORMATTING]\n")
		for _, c := range inconsistent {
			for _, vs := range c.CaseVariants {
				b.WriteString(fmt.Sprintf("- %s: case inconsistency: %s\n",
					safeName(c.Name), strings.Join(vs, " / ")))
			}
		}
	}

	if s.Corr != nil && len(s.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			a, b string
			r    float64
		}
		var pairs []pr
		n := len(s.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{s.Corr.Columns[i], s.Corr.Columns[j], s.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].r), math.Abs(pairs[j].r)
			if ai == aj {
				return pairs[i].a+pairs[i].b < pairs[j].a+pairs[j].b
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.a, p.b, p.r))
		}
	}

	if len(s.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range s.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range s.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range s.Samples {
			b.WriteString("| ")
			for i := range s.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
