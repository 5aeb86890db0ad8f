package config

import (
	"os"

	"github.com/arkid15r/utiso-dorkbot/internal/logger"
)

// GlobalConfig contains all configuration sections for the application.
// Every field can be set from the YAML/JSON config file; command-line
// flags override file values.
type GlobalConfig struct {
	// Directory is the working directory holding the default database and
	// reports.
	Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
	// Database is a connection string: a bare path selects the embedded
	// SQLite backend, "postgresql://" and "phoenixdb://" select the
	// network backends.
	Database           string         `json:"database,omitempty" yaml:"database,omitempty"`
	ExternalBlocklists []string       `json:"external_blocklists,omitempty" yaml:"external_blocklists,omitempty"`
	LogConfig          logger.Config  `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	ReporterConfig     ReporterConfig `json:"reporter_config,omitempty" yaml:"reporter_config,omitempty"`
	ScanConfig         ScanConfig     `json:"scan_config,omitempty" yaml:"scan_config,omitempty"`
}

// ReporterConfig defines where scan reports are written.
type ReporterConfig struct {
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ScanConfig defines global scanning options.
type ScanConfig struct {
	// Count limits how many targets one scan invocation consumes;
	// -1 scans every unscanned target.
	Count int `json:"count,omitempty" yaml:"count,omitempty" validate:"min=-1"`
	// Random claims targets in random order.
	Random bool `json:"random,omitempty" yaml:"random,omitempty"`
}

// NewDefaultGlobalConfig creates a GlobalConfig with default values.
func NewDefaultGlobalConfig() *GlobalConfig {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &GlobalConfig{
		Directory:      cwd,
		LogConfig:      logger.NewDefaultConfig(),
		ReporterConfig: NewDefaultReporterConfig(),
		ScanConfig:     NewDefaultScanConfig(),
	}
}

// NewDefaultReporterConfig creates default reporter configuration.
func NewDefaultReporterConfig() ReporterConfig {
	return ReporterConfig{
		OutputDir: "reports",
	}
}

// NewDefaultScanConfig creates default scan configuration.
func NewDefaultScanConfig() ScanConfig {
	return ScanConfig{
		Count: -1,
	}
}
