// Package config loads and persists cleansheet configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// ListenAddr is the HTTP bind address for `cleansheet serve`.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// MaxUploadBytes limits upload request bodies.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	// MaxRows limits rows read from an input file; 0 means unlimited.
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`
	// PreviewRows and PreviewCols are the /api/preview defaults.
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	PreviewCols int `mapstructure:"preview_cols" yaml:"preview_cols"`
	// SampleRows is how many example rows summaries include.
	SampleRows int `mapstructure:"sample_rows" yaml:"sample_rows"`
	// MissingValues are cell tokens treated as missing besides "".
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values"`
	// IQRFactor is the whisker multiplier for outlier handling.
	IQRFactor float64 `mapstructure:"iqr_factor" yaml:"iqr_factor"`
	// StoreCapacity is how many uploaded datasets the server keeps in memory.
	StoreCapacity int `mapstructure:"store_capacity" yaml:"store_capacity"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.cleansheet/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".cleansheet")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CLEANSHEET")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_bytes", int64(32<<20))
	v.SetDefault("max_rows", 0)
	v.SetDefault("preview_rows", 10)
	v.SetDefault("preview_cols", 10)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("missing_values", []string{"NA"})
	v.SetDefault("iqr_factor", 1.5)
	v.SetDefault("store_capacity", 16)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".cleansheet")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
