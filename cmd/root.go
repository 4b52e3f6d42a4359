package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/CleanSheetLabs/cleansheet/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "cleansheet",
	Short: "CleanSheet: clean tabular datasets from the CLI or over HTTP",
	Long: `CleanSheet ingests a CSV or XLSX dataset and runs a fixed cleaning
pipeline over it: missing-value imputation, duplicate removal, IQR outlier
clipping, standard scaling and one-hot encoding. Use it as a one-shot CLI
or run the bundled web service for upload/preview/download.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cleansheet/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// ensureConfig returns the loaded config, falling back to defaults.
func ensureConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	c, err := cfgpkg.Load(cfgFile)
	if err == nil {
		cfg = c
		return c
	}
	return &cfgpkg.Global{
		ListenAddr:     ":8080",
		MaxUploadBytes: 32 << 20,
		PreviewRows:    10,
		PreviewCols:    10,
		SampleRows:     5,
		MissingValues:  []string{"NA"},
		IQRFactor:      1.5,
		StoreCapacity:  16,
	}
}
