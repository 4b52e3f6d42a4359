package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CleanSheetLabs/cleansheet/internal/clean"
	"github.com/CleanSheetLabs/cleansheet/internal/table"
	"github.com/CleanSheetLabs/cleansheet/internal/utils"
)

var (
	cleanOutputPath string
	cleanDelimiter  string
	cleanMaxRows    int
	cleanSheetName  string
	cleanSheetIndex int
	cleanIQRFactor  float64
	cleanMissing    []string
	cleanQuiet      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Run the cleaning pipeline over a CSV/TSV/XLSX file",
	Long: `Clean reads a tabular file, applies the fixed pipeline
(impute -> deduplicate -> clip outliers -> scale -> one-hot encode) and
writes the cleaned table as CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := tableOptionsFromFlags()
		if err != nil {
			return err
		}

		t, err := table.ReadFile(path, opt)
		if err != nil {
			return err
		}
		rows, cols := t.Shape()
		if !cleanQuiet {
			fmt.Fprintf(os.Stderr, "✓ Loaded %s (%d rows, %d columns)\n", path, rows, cols)
		}

		factor := cleanIQRFactor
		if factor <= 0 {
			factor = ensureConfig().IQRFactor
		}
		report, err := clean.NewPipeline(clean.Options{IQRFactor: factor}).Run(t)
		if err != nil {
			return err
		}

		if !cleanQuiet {
			printReport(report)
		}

		if cleanOutputPath == "" {
			var buf bytes.Buffer
			if err := t.WriteCSV(&buf); err != nil {
				return err
			}
			fmt.Print(buf.String())
			return nil
		}
		var buf bytes.Buffer
		if err := t.WriteCSV(&buf); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(cleanOutputPath, buf.Bytes()); err != nil {
			return err
		}
		if !cleanQuiet {
			fmt.Printf("✓ Wrote cleaned data to %s\n", cleanOutputPath)
		}
		return nil
	},
}

func printReport(rep *clean.Report) {
	fmt.Fprintf(os.Stderr, "✓ Pipeline: %d -> %d rows, %d -> %d columns\n",
		rep.RowsBefore, rep.RowsAfter, rep.ColsBefore, rep.ColsAfter)
	for _, s := range rep.Steps {
		switch {
		case s.RowsRemoved > 0:
			fmt.Fprintf(os.Stderr, "  • %s: removed %d duplicate row(s)\n", s.Step, s.RowsRemoved)
		case len(s.CellsChanged) > 0:
			names := make([]string, 0, len(s.CellsChanged))
			for n := range s.CellsChanged {
				names = append(names, n)
			}
			sort.Strings(names)
			parts := make([]string, 0, len(names))
			for _, n := range names {
				parts = append(parts, fmt.Sprintf("%s=%d", n, s.CellsChanged[n]))
			}
			fmt.Fprintf(os.Stderr, "  • %s: %s\n", s.Step, strings.Join(parts, ", "))
		case len(s.Columns) > 0:
			fmt.Fprintf(os.Stderr, "  • %s: %s\n", s.Step, strings.Join(s.Columns, ", "))
		}
		for _, note := range s.Notes {
			fmt.Fprintf(os.Stderr, "  ⚠ %s: %s\n", s.Step, note)
		}
	}
}

func tableOptionsFromFlags() (table.Options, error) {
	opt := table.DefaultOptions()
	c := ensureConfig()
	if len(c.MissingValues) > 0 {
		opt.MissingValues = c.MissingValues
	}
	if len(cleanMissing) > 0 {
		opt.MissingValues = cleanMissing
	}
	opt.MaxRows = c.MaxRows
	if cleanMaxRows > 0 {
		opt.MaxRows = cleanMaxRows
	}
	opt.SheetName = cleanSheetName
	if cleanSheetIndex > 0 {
		opt.SheetIndex = cleanSheetIndex
	}
	switch cleanDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", cleanDelimiter)
	}
	return opt, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutputPath, "output", "o", "", "path for the cleaned CSV (stdout if omitted)")
	cleanCmd.Flags().StringVar(&cleanDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	cleanCmd.Flags().IntVar(&cleanMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	cleanCmd.Flags().StringVar(&cleanSheetName, "sheet-name", "", "XLSX: sheet name to read")
	cleanCmd.Flags().IntVar(&cleanSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cleanCmd.Flags().Float64Var(&cleanIQRFactor, "iqr-factor", 0, "IQR whisker multiplier for outlier clipping (default from config)")
	cleanCmd.Flags().StringSliceVar(&cleanMissing, "missing", nil, "tokens treated as missing values (repeatable)")
	cleanCmd.Flags().BoolVarP(&cleanQuiet, "quiet", "q", false, "suppress progress output")
}
