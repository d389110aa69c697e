package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/cirrusconv/export"
)

// MaxBytesPerLine bounds the width of generated C arrays.
const MaxBytesPerLine = 256

var (
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid config")

	symbolPrefix = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)?$`)
)

// Config represents the cirrusconv configuration
type Config struct {
	SymbolPrefix string `yaml:"symbol_prefix"`
	BytesPerLine int    `yaml:"bytes_per_line"`
	Strict       bool   `yaml:"strict"`
	LogLevel     string `yaml:"log_level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		SymbolPrefix: "",
		BytesPerLine: export.DefaultBytesPerLine,
		Strict:       false,
		LogLevel:     "info",
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the values against their allowed ranges.
func (c *Config) Validate() error {
	if !symbolPrefix.MatchString(c.SymbolPrefix) {
		return fmt.Errorf("%w: symbol_prefix %q is not a C identifier", ErrInvalidConfig, c.SymbolPrefix)
	}

	if c.BytesPerLine < 1 || c.BytesPerLine > MaxBytesPerLine {
		return fmt.Errorf("%w: bytes_per_line %d outside [1, %d]", ErrInvalidConfig, c.BytesPerLine, MaxBytesPerLine)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Level returns the parsed log level, info if it does not parse.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return lvl
}

// ExportOptions returns the exporter options described by the config.
func (c *Config) ExportOptions(source string) export.Options {
	return export.Options{
		Prefix:       c.SymbolPrefix,
		BytesPerLine: c.BytesPerLine,
		Source:       source,
	}
}
