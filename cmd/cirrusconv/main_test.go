package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/cirrusconv"
	"github.com/cwbudde/cirrusconv/config"
	"github.com/cwbudde/cirrusconv/export"
	"github.com/cwbudde/cirrusconv/waveform"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestRunConvert(t *testing.T) {
	t.Run("pwle string to C file", func(t *testing.T) {
		in := writeFile(t, "click.pwle", []byte("T0:100 L0:50 T1:200 L1:75\n"))
		out := filepath.Join(t.TempDir(), "click.h")

		err := runConvert(&bytes.Buffer{}, nil, convertParams{input: in, output: out, format: export.FormatC, inputType: "auto"})
		require.NoError(t, err)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "pwle_click_0_section = {")
		assert.Contains(t, string(data), "pwle_click_1_section = {")
		assert.Contains(t, string(data), "static const uint32_t pwle_click_size = 2;")
	})

	t.Run("script text to stdout", func(t *testing.T) {
		in := writeFile(t, "init.txt", []byte("0x3000 0x1\nDELAY 5\n"))

		var stdout bytes.Buffer
		err := runConvert(&stdout, nil, convertParams{input: in, format: export.FormatWISCE, inputType: "auto"})
		require.NoError(t, err)
		assert.Equal(t, "0x00003000 0x00000001\nDELAY 5\n", stdout.String())
	})

	t.Run("config prefix and forced type", func(t *testing.T) {
		in := writeFile(t, "buzz.dat", []byte(`{"name":"buzz","pcm":[{"sample_rate":8000,"samples":[0,127,-128,-1]}]}`))

		cfg := config.DefaultConfig()
		cfg.SymbolPrefix = "hap_"

		var stdout bytes.Buffer
		err := runConvert(&stdout, cfg, convertParams{input: in, output: "-", format: export.FormatC, inputType: "json"})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "hap_pcm_buzz_data_size = 4;")
	})
}

func TestRunConvertErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.h")

	t.Run("missing input", func(t *testing.T) {
		err := runConvert(&bytes.Buffer{}, nil, convertParams{input: filepath.Join(t.TempDir(), "nope.json"), output: out, format: "c", inputType: "auto"})
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		in := writeFile(t, "x.json", []byte("{}"))
		err := runConvert(&bytes.Buffer{}, nil, convertParams{input: in, output: out, format: "c", inputType: "midi"})
		assert.ErrorIs(t, err, cirrusconv.ErrUnknownInput)
	})

	t.Run("unsupported format", func(t *testing.T) {
		in := writeFile(t, "click.pwle", []byte("T0:100 L0:50"))
		err := runConvert(&bytes.Buffer{}, nil, convertParams{input: in, output: out, format: export.FormatWISCE, inputType: "auto"})
		assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), in)
	})

	t.Run("parse failure names the file", func(t *testing.T) {
		in := writeFile(t, "bad.txt", []byte("0x3000 0x1\nBOGUS\n"))
		err := runConvert(&bytes.Buffer{}, nil, convertParams{input: in, output: out, format: "c", inputType: "auto"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), in)
	})

	assert.NoFileExists(t, out)
}

func TestRunInspect(t *testing.T) {
	bank, err := waveform.ParsePWLE("T0:100 L0:50 T1:200 L1:75", "click")
	require.NoError(t, err)

	data, err := bank.Encode()
	require.NoError(t, err)

	in := writeFile(t, "click.hapt", data)

	var stdout bytes.Buffer
	require.NoError(t, runInspect(&stdout, in))

	text := stdout.String()
	assert.Contains(t, text, "RIFF layout, 3 chunks")
	assert.Contains(t, text, `"wave"`)
	assert.Contains(t, text, `"pwle"`)

	script := writeFile(t, "init.txt", []byte("0x3000 0x1\n"))
	assert.ErrorIs(t, runInspect(&bytes.Buffer{}, script), cirrusconv.ErrNotChunked)
}

func TestWriteFormats(t *testing.T) {
	var stdout bytes.Buffer
	writeFormats(&stdout)

	text := stdout.String()
	assert.Contains(t, text, "input types: auto, wmfw, wmdr")
	assert.Contains(t, text, "  script        json, c, bin, wisce\n")
	assert.Contains(t, text, "  bank          json, c, bin, wav, pwle\n")
}

func TestRootCommandFlags(t *testing.T) {
	in := writeFile(t, "buzz.json", []byte(`{"name":"buzz","pcm":[{"sample_rate":8000,"samples":[0,127,-128,-1]}]}`))
	out := filepath.Join(t.TempDir(), "buzz.h")

	rootCmd.SetArgs([]string{"convert", "-i", in, "-o", out, "-f", "c", "--prefix", "amp_", "--bytes-per-line", "2", "--log-level", "warn"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "amp_pcm_buzz_data[] = {\n    0x00, 0x7f,\n    0x80, 0xff,\n};")
	assert.Equal(t, "amp_", settings.SymbolPrefix)
	assert.Equal(t, "warn", settings.LogLevel)
}
