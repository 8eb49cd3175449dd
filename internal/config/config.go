package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// LocalConfigFile is checked in the current directory before the global config
	LocalConfigFile = ".perfscope.yaml"
)

var (
	// ConfigDir is the global configuration directory (~/.perfscope)
	ConfigDir string

	// ConfigFile is the global configuration file
	ConfigFile string

	// ChartsDir is the default output directory for exported charts
	ChartsDir string
)

// Threshold holds the good/medium boundaries of one metric in milliseconds
type Threshold struct {
	Good   float64 `yaml:"good" json:"good"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// Thresholds groups the metric thresholds used for status coloring
type Thresholds struct {
	TTFB Threshold `yaml:"ttfb" json:"ttfb"`
	FCP  Threshold `yaml:"fcp" json:"fcp"`
	LCP  Threshold `yaml:"lcp" json:"lcp"`
}

// SlowConfig configures the slow-resource ranking
type SlowConfig struct {
	ThresholdMs float64 `yaml:"threshold_ms" json:"threshold_ms"`
	TopN        int     `yaml:"top_n" json:"top_n"`
}

// PaginationConfig configures the domain-detail table
type PaginationConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

// ClassificationConfig configures the resource classifier
type ClassificationConfig struct {
	OpaquePolicy string `yaml:"opaque_policy" json:"opaque_policy"` // strict, zero-uncached, falsy
}

// ValidationConfig configures the validation layer
type ValidationConfig struct {
	RequireTransferSize bool `yaml:"require_transfer_size" json:"require_transfer_size"`
}

// SourceConfig configures the live tab source
type SourceConfig struct {
	DevToolsURL  string        `yaml:"devtools_url" json:"devtools_url"`
	TabURLFilter string        `yaml:"tab_url_filter" json:"tab_url_filter"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// SyntheticConfig configures the synthetic data generator
type SyntheticConfig struct {
	Seed uint64 `yaml:"seed" json:"seed"` // 0 picks a random seed per pass
}

// Config is the effective perfscope configuration
type Config struct {
	Thresholds     Thresholds           `yaml:"thresholds" json:"thresholds"`
	Slow           SlowConfig           `yaml:"slow" json:"slow"`
	Pagination     PaginationConfig     `yaml:"pagination" json:"pagination"`
	BreakdownTopN  int                  `yaml:"breakdown_top_n" json:"breakdown_top_n"`
	Classification ClassificationConfig `yaml:"classification" json:"classification"`
	Validation     ValidationConfig     `yaml:"validation" json:"validation"`
	Source         SourceConfig         `yaml:"source" json:"source"`
	Synthetic      SyntheticConfig      `yaml:"synthetic" json:"synthetic"`
	LogLevel       string               `yaml:"log_level" json:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			TTFB: Threshold{Good: 200, Medium: 600},
			FCP:  Threshold{Good: 1800, Medium: 3000},
			LCP:  Threshold{Good: 2500, Medium: 4000},
		},
		Slow: SlowConfig{
			ThresholdMs: 40,
			TopN:        5,
		},
		Pagination: PaginationConfig{
			PageSize: 10,
		},
		BreakdownTopN: 10,
		Classification: ClassificationConfig{
			OpaquePolicy: "strict",
		},
		Source: SourceConfig{
			DevToolsURL: "http://127.0.0.1:9222",
			Timeout:     5 * time.Second,
		},
		LogLevel: "info",
	}
}

// Initialize sets up the configuration directory
// It creates ~/.perfscope/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	ConfigDir = filepath.Join(homeDir, ".perfscope")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	ChartsDir = filepath.Join(ConfigDir, "charts")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// GetConfigFilePath returns the config file path (local or global)
func GetConfigFilePath() string {
	if _, err := os.Stat(LocalConfigFile); err == nil {
		return LocalConfigFile
	}
	return ConfigFile
}

// Load reads a config file on top of the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for name, t := range map[string]Threshold{
		"ttfb": c.Thresholds.TTFB,
		"fcp":  c.Thresholds.FCP,
		"lcp":  c.Thresholds.LCP,
	} {
		if t.Good < 0 || t.Medium < 0 {
			return fmt.Errorf("%s thresholds cannot be negative", name)
		}
		if t.Good > t.Medium {
			return fmt.Errorf("%s good threshold (%.0f) exceeds medium threshold (%.0f)", name, t.Good, t.Medium)
		}
	}
	if c.Slow.ThresholdMs < 0 {
		return fmt.Errorf("slow threshold cannot be negative")
	}
	if c.Slow.TopN <= 0 {
		return fmt.Errorf("slow top_n must be greater than 0")
	}
	if c.Pagination.PageSize <= 0 {
		return fmt.Errorf("page size must be greater than 0")
	}
	if c.BreakdownTopN <= 0 {
		return fmt.Errorf("breakdown_top_n must be greater than 0")
	}
	switch c.Classification.OpaquePolicy {
	case "strict", "zero-uncached", "falsy":
	default:
		return fmt.Errorf("unknown opaque policy %q (expected strict, zero-uncached or falsy)", c.Classification.OpaquePolicy)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source timeout cannot be negative")
	}
	return nil
}

// GetSourceTimeout returns the live source timeout, defaulting to 5 seconds
func (c *Config) GetSourceTimeout() time.Duration {
	if c.Source.Timeout == 0 {
		return 5 * time.Second
	}
	return c.Source.Timeout
}
