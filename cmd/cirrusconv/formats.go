package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/cirrusconv"
	"github.com/cwbudde/cirrusconv/export"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List input types and output formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		writeFormats(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func writeFormats(w io.Writer) {
	types := make([]string, 0, len(cirrusconv.InputTypes))
	for _, t := range cirrusconv.InputTypes {
		types = append(types, string(t))
	}

	fmt.Fprintf(w, "input types: %s\n", strings.Join(types, ", "))
	fmt.Fprintln(w, "output formats:")

	for _, kind := range export.Kinds() {
		fmt.Fprintf(w, "  %-13s %s\n", kind, strings.Join(export.Formats(kind), ", "))
	}
}
