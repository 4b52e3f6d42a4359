package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/CleanSheetLabs/cleansheet/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cleansheet configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := ensureConfig()
		fmt.Printf("listen_addr: %s\n", c.ListenAddr)
		fmt.Printf("max_upload_bytes: %d\n", c.MaxUploadBytes)
		fmt.Printf("max_rows: %d\n", c.MaxRows)
		fmt.Printf("preview_rows: %d\n", c.PreviewRows)
		fmt.Printf("preview_cols: %d\n", c.PreviewCols)
		fmt.Printf("sample_rows: %d\n", c.SampleRows)
		fmt.Printf("missing_values: %s\n", strings.Join(c.MissingValues, ","))
		fmt.Printf("iqr_factor: %.3f\n", c.IQRFactor)
		fmt.Printf("store_capacity: %d\n", c.StoreCapacity)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := ensureConfig()
		switch key {
		case "listen_addr":
			c.ListenAddr = val
		case "max_upload_bytes":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid int for max_upload_bytes: %v", val)
			}
			c.MaxUploadBytes = n
		case "max_rows":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			c.MaxRows = n
		case "preview_rows":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid int for preview_rows: %v", val)
			}
			c.PreviewRows = n
		case "preview_cols":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid int for preview_cols: %v", val)
			}
			c.PreviewCols = n
		case "sample_rows":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid int for sample_rows: %v", val)
			}
			c.SampleRows = n
		case "missing_values":
			c.MissingValues = nil
			for _, tok := range strings.Split(val, ",") {
				if tok = strings.TrimSpace(tok); tok != "" {
					c.MissingValues = append(c.MissingValues, tok)
				}
			}
		case "iqr_factor":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for iqr_factor: %v", val)
			}
			c.IQRFactor = f
		case "store_capacity":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid int for store_capacity: %v", val)
			}
			c.StoreCapacity = n
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
