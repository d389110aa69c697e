package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/cirrusconv/waveform"
	"github.com/cwbudde/cirrusconv/wisce"
	"github.com/cwbudde/cirrusconv/wmfw"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatC     = "c"
	FormatBin   = "bin"
	FormatWISCE = "wisce"
	FormatWAV   = "wav"
	FormatPWLE  = "pwle"
)

// DefaultBytesPerLine is used when Options.BytesPerLine is not positive.
const DefaultBytesPerLine = 16

var (
	// ErrUnsupportedFormat is matched by UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrDuplicateSymbol is returned when a C symbol would be defined twice.
	ErrDuplicateSymbol = errors.New("duplicate C symbol")
)

// Document is a decoded input: an ordered record sequence with a header.
type Document interface {
	Kind() string
}

// Options tunes the rendered output.
type Options struct {
	// Prefix is prepended to every C symbol.
	Prefix string
	// BytesPerLine is the number of bytes per line of a C array.
	BytesPerLine int
	// Source names the input in generated comments.
	Source string
}

// UnsupportedFormatError is returned for a format the document kind cannot
// be rendered to.
type UnsupportedFormatError struct {
	Kind      string
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: cannot render %s as %q (supported: %s)",
		ErrUnsupportedFormat, e.Kind, e.Format, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

var formatTable = map[string][]string{
	"firmware":     {FormatJSON, FormatC, FormatBin},
	"coefficients": {FormatJSON, FormatC, FormatBin},
	"bank":         {FormatJSON, FormatC, FormatBin, FormatWAV, FormatPWLE},
	"script":       {FormatJSON, FormatC, FormatBin, FormatWISCE},
}

// Kinds returns the document kinds that can be exported.
func Kinds() []string {
	return []string{"firmware", "coefficients", "bank", "script"}
}

// Formats returns the output formats supported for a document kind.
func Formats(kind string) []string {
	return append([]string(nil), formatTable[kind]...)
}

type encoder interface {
	Encode() ([]byte, error)
}

// Export renders doc in the given format. The result is deterministic: equal
// documents and options give byte-identical output. Nothing is returned on
// error.
func Export(doc Document, format string, opts Options) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = DefaultBytesPerLine
	}

	if opts.Source == "" {
		opts.Source = "input"
	}

	supported, ok := formatTable[doc.Kind()]
	if !ok || !contains(supported, format) {
		return nil, &UnsupportedFormatError{Kind: doc.Kind(), Format: format, Supported: Formats(doc.Kind())}
	}

	switch format {
	case FormatBin:
		enc, ok := doc.(encoder)
		if !ok {
			return nil, &UnsupportedFormatError{Kind: doc.Kind(), Format: format, Supported: supported}
		}

		return enc.Encode()
	case FormatWISCE:
		s, ok := doc.(*wisce.Script)
		if !ok {
			return nil, &UnsupportedFormatError{Kind: doc.Kind(), Format: format, Supported: supported}
		}

		return s.Format(), nil
	case FormatWAV:
		b, ok := doc.(*waveform.Bank)
		if !ok {
			return nil, &UnsupportedFormatError{Kind: doc.Kind(), Format: format, Supported: supported}
		}

		return b.EncodeWAV()
	case FormatPWLE:
		b, ok := doc.(*waveform.Bank)
		if !ok {
			return nil, &UnsupportedFormatError{Kind: doc.Kind(), Format: format, Supported: supported}
		}

		return b.EncodePWLE()
	case FormatJSON:
		return renderJSON(doc)
	default:
		return renderC(doc, opts)
	}
}

func renderC(doc Document, opts Options) ([]byte, error) {
	r := &cRenderer{opts: opts, syms: symbolTable{}}

	var err error

	switch d := doc.(type) {
	case *wmfw.Firmware:
		err = r.firmware(d)
	case *wmfw.Coefficients:
		err = r.coefficients(d)
	case *waveform.Bank:
		err = r.bank(d)
	case *wisce.Script:
		err = r.script(d)
	default:
		err = &UnsupportedFormatError{Kind: doc.Kind(), Format: FormatC}
	}

	if err != nil {
		return nil, err
	}

	return []byte(r.b.String()), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
