package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/cirrusconv"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "List the chunks of a binary container",
	Long: `List tag, offset and size of every top level chunk in a .wmfw image,
a WMDR coefficient blob, a waveform bank, a binary script or a WAV file.
Payloads are not decoded.

Example:
  cirrusconv inspect haptics.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(w io.Writer, path string) error {
	buf, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	chunks, layout, err := cirrusconv.Inspect(path, buf)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}

	fmt.Fprintf(w, "%s: %s layout, %d chunks\n", path, layout.Name(), len(chunks))
	fmt.Fprintf(w, "%5s  %-24s %10s %10s\n", "ORDER", "TAG", "OFFSET", "SIZE")

	for _, c := range chunks {
		fmt.Fprintf(w, "%5d  %-24s %#10x %10d\n", c.Order, layout.TagName(c.Tag), c.Offset, c.Size)
	}

	logrus.WithField("chunks", len(chunks)).Debugf("inspected %s", path)

	return nil
}
