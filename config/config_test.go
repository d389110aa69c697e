package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "", config.SymbolPrefix)
	assert.Equal(t, 16, config.BytesPerLine)
	assert.False(t, config.Strict)
	assert.Equal(t, "info", config.LogLevel)
	assert.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cirrusconv.yaml")
		require.NoError(t, os.WriteFile(path, []byte("symbol_prefix: hap_\nstrict: true\n"), 0600))

		config, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "hap_", config.SymbolPrefix)
		assert.True(t, config.Strict)
		assert.Equal(t, 16, config.BytesPerLine)
		assert.Equal(t, logrus.InfoLevel, config.Level())

		opts := config.ExportOptions("in.json")
		assert.Equal(t, "hap_", opts.Prefix)
		assert.Equal(t, "in.json", opts.Source)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("bytes_per_line: [1"), 0600))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "range.yaml")
		require.NoError(t, os.WriteFile(path, []byte("bytes_per_line: 0\n"), 0600))

		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "prefix", modify: func(c *Config) { c.SymbolPrefix = "9bad-" }},
		{name: "bytes per line", modify: func(c *Config) { c.BytesPerLine = MaxBytesPerLine + 1 }},
		{name: "log level", modify: func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cirrusconv.yaml")

	config := DefaultConfig()
	config.SymbolPrefix = "amp_"
	config.BytesPerLine = 8
	config.LogLevel = "debug"

	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
	assert.Equal(t, logrus.DebugLevel, loaded.Level())
}
