// Command cirrusconv converts DSP firmware images, coefficient blobs, haptic
// waveform banks and WISCE register scripts into C source, JSON or binary.
package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/cirrusconv/config"
)

var (
	rootCmd = &cobra.Command{
		Use:   "cirrusconv",
		Short: "Convert DSP firmware, tuning and haptic waveform files",
		Long: `cirrusconv reads .wmfw firmware images, WMDR coefficient blobs,
haptic waveform banks (binary, JSON, PWLE strings, WAV or AIFF) and WISCE
register scripts, and writes them as C source, JSON or binary.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			logrus.SetLevel(cfg.Level())
			settings = cfg

			return nil
		},
	}

	configPath string
	settings   *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flags.Changed("prefix") {
		cfg.SymbolPrefix, _ = flags.GetString("prefix")
	}

	if flags.Changed("bytes-per-line") {
		cfg.BytesPerLine, _ = flags.GetInt("bytes-per-line")
	}

	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return cfg, nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}
