package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CleanSheetLabs/cleansheet/internal/analysis"
	"github.com/CleanSheetLabs/cleansheet/internal/clean"
	"github.com/CleanSheetLabs/cleansheet/internal/table"
	"github.com/CleanSheetLabs/cleansheet/internal/utils"
)

var (
	summarizeJSON    bool
	summarizeCleaned bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Profile a CSV/TSV/XLSX file without modifying it",
	Long: `Summarize reads a tabular file and prints a profile: column types,
missing values, duplicates, outliers, correlations and sample rows.
With --cleaned the profile describes the table after the cleaning
pipeline instead of the raw input.`,
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

		if summarizeCleaned {
			c := ensureConfig()
			if _, err := clean.NewPipeline(clean.Options{IQRFactor: c.IQRFactor}).Run(t); err != nil {
				return err
			}
		}

		anaOpt := analysis.DefaultOptions()
		anaOpt.SampleRows = ensureConfig().SampleRows
		anaOpt.IQRFactor = ensureConfig().IQRFactor
		sum := analysis.Summarize(t, anaOpt)
		sum.Name = filepath.Base(path)

		if summarizeJSON {
			b, err := utils.PrettyJSON(sum)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Print(sum.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "emit the profile as JSON instead of markdown")
	summarizeCmd.Flags().BoolVar(&summarizeCleaned, "cleaned", false, "profile the table after running the cleaning pipeline")
	summarizeCmd.Flags().StringVar(&cleanDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	summarizeCmd.Flags().IntVar(&cleanMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	summarizeCmd.Flags().StringVar(&cleanSheetName, "sheet-name", "", "XLSX: sheet name to read")
	summarizeCmd.Flags().IntVar(&cleanSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	summarizeCmd.Flags().StringSliceVar(&cleanMissing, "missing", nil, "tokens treated as missing values (repeatable)")
}
