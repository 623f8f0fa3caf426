// Package config provides unified configuration loading for demes.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/demes-dev/demes-go/internal/constants"
	"gopkg.in/yaml.v3"
)

// DemesConfig contains all demes tool configuration settings.
type DemesConfig struct {
	// Forward contains settings for forward-time iteration.
	Forward ForwardConfig `json:"forward" yaml:"forward"`

	// History contains settings for run recording.
	History HistoryConfig `json:"history" yaml:"history"`

	// Logging contains settings for operational and step-trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ForwardConfig configures forward-time iteration defaults.
type ForwardConfig struct {
	// Burnin is the default burn-in length in generations, used when a
	// command does not pass one explicitly.
	Burnin float64 `json:"burnin" yaml:"burnin"`
}

// HistoryConfig configures recording of forward runs.
type HistoryConfig struct {
	// Dir is the directory holding the run database and exports.
	// Supports ${VAR} syntax for env vars.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Format selects the default export format: "jsonl" or "arrow".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// LoggingConfig configures the tool's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables step tracing to trace.jsonl in the history directory.
	// "trace" additionally logs every generation to stderr.
	Level string `json:"level" yaml:"level"`
}

// Default returns a DemesConfig with sensible defaults.
func Default() *DemesConfig {
	return &DemesConfig{
		Forward: ForwardConfig{
			Burnin: constants.DefaultBurnin,
		},
		History: HistoryConfig{
			Dir:    constants.DefaultHistoryDirName,
			Format: "jsonl",
		},
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.demes/config.yaml -> environment variables
func Load() (*DemesConfig, error) {
	config := Default()

	// Try to load from default config file
	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".demes", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*DemesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in the history directory
	config.History.Dir = expandEnvVars(config.History.Dir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *DemesConfig) Validate() error {
	if math.IsNaN(c.Forward.Burnin) || math.IsInf(c.Forward.Burnin, 0) || c.Forward.Burnin < 0 {
		return fmt.Errorf("burnin must be finite and non-negative, got %v", c.Forward.Burnin)
	}

	validFormats := map[string]bool{"": true, "jsonl": true, "arrow": true}
	if !validFormats[c.History.Format] {
		return fmt.Errorf("invalid history format: %s (valid: jsonl, arrow, or empty for default)", c.History.Format)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *DemesConfig) {
	if v := os.Getenv("DEMES_BURNIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Forward.Burnin = f
		}
	}

	if v := os.Getenv("DEMES_HISTORY_DIR"); v != "" {
		config.History.Dir = v
	}

	if v := os.Getenv("DEMES_HISTORY_FORMAT"); v != "" {
		config.History.Format = v
	}

	if v := os.Getenv("DEMES_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
