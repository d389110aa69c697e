package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/cirrusconv"
	"github.com/cwbudde/cirrusconv/config"
	"github.com/cwbudde/cirrusconv/export"
	"github.com/cwbudde/cirrusconv/waveform"
	"github.com/cwbudde/cirrusconv/wisce"
	"github.com/cwbudde/cirrusconv/wmfw"
)

type convertParams struct {
	input     string
	output    string
	format    string
	inputType string
	name      string
}

var convertFlags convertParams

var convertCmd = &cobra.Command{
	Use:   "convert -i <input> -f <format> [-o <output>]",
	Short: "Convert an input file to another format",
	Long: `Convert an input file to C source, JSON, binary, WISCE text, WAV or PWLE.

The input type is detected from magic bytes and the file extension unless
--type is given. Without -o the result is written to stdout.

Example:
  cirrusconv convert -i click.json -f c -o click.h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.OutOrStdout(), settings, convertFlags)
	},
}

func init() {
	flags := convertCmd.Flags()
	flags.StringVarP(&convertFlags.input, "input", "i", "", "input file")
	flags.StringVarP(&convertFlags.output, "output", "o", "", "output file (stdout when empty or -)")
	flags.StringVarP(&convertFlags.format, "format", "f", export.FormatC, "output format (json, c, bin, wisce, wav, pwle)")
	flags.StringVar(&convertFlags.inputType, "type", string(cirrusconv.TypeAuto), "input type")
	flags.StringVar(&convertFlags.name, "name", "", "waveform name for PWLE, WAV and AIFF inputs")
	flags.String("prefix", "", "prefix for generated C symbols")
	flags.Int("bytes-per-line", export.DefaultBytesPerLine, "bytes per line in C arrays")
	flags.Bool("strict", false, "reject chunks without a decoder")

	_ = convertCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(stdout io.Writer, cfg *config.Config, p convertParams) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	inputType := cirrusconv.InputType(p.inputType)
	if !validInputType(inputType) {
		return fmt.Errorf("%w: %q", cirrusconv.ErrUnknownInput, p.inputType)
	}

	buf, err := os.ReadFile(filepath.Clean(p.input))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"input": p.input,
		"bytes": len(buf),
		"type":  inputType,
	}).Debug("read input")

	out, doc, err := cirrusconv.Convert(
		p.input,
		buf,
		p.format,
		cirrusconv.LoadOptions{Type: inputType, Name: p.name, Strict: cfg.Strict},
		cfg.ExportOptions(filepath.Base(p.input)),
	)
	if err != nil {
		return err
	}

	if p.output == "" || p.output == "-" {
		if _, err := stdout.Write(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if err := os.WriteFile(p.output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.output, err)
	}

	fields := summarize(doc)
	fields["format"] = p.format
	fields["output_bytes"] = len(out)
	logrus.WithFields(fields).Infof("converted %s", p.input)

	return nil
}

func validInputType(t cirrusconv.InputType) bool {
	for _, known := range cirrusconv.InputTypes {
		if t == known {
			return true
		}
	}

	return false
}

// summarize returns the log fields describing a decoded document.
func summarize(doc export.Document) logrus.Fields {
	fields := logrus.Fields{"kind": doc.Kind()}

	switch d := doc.(type) {
	case *wmfw.Firmware:
		fields["records"] = len(d.Records)
		fields["algorithms"] = len(d.Algorithms())
		fields["payload_bytes"] = d.PayloadBytes()
	case *wmfw.Coefficients:
		fields["records"] = len(d.Records)
		fields["payload_bytes"] = d.PayloadBytes()
	case *waveform.Bank:
		fields["waveforms"] = len(d.Waveforms())
		fields["sections"] = d.SectionCount()
		fields["samples"] = d.SampleCount()
	case *wisce.Script:
		fields["writes"] = d.WriteCount()
		fields["delay_ms"] = d.DelayMs()
	}

	return fields
}
