package cirrusconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cwbudde/cirrusconv/chunk"
	"github.com/cwbudde/cirrusconv/export"
	"github.com/cwbudde/cirrusconv/waveform"
	"github.com/cwbudde/cirrusconv/wisce"
	"github.com/cwbudde/cirrusconv/wmfw"
)

// InputType names an input format.
type InputType string

// Input formats.
const (
	TypeAuto   InputType = "auto"
	TypeWMFW   InputType = "wmfw"
	TypeWMDR   InputType = "wmdr"
	TypeBank   InputType = "bank"
	TypeJSON   InputType = "json"
	TypePWLE   InputType = "pwle"
	TypeWAV    InputType = "wav"
	TypeAIFF   InputType = "aiff"
	TypeWISCE  InputType = "wisce"
	TypeScript InputType = "script"
)

// InputTypes lists the accepted values of LoadOptions.Type.
var InputTypes = []InputType{TypeAuto, TypeWMFW, TypeWMDR, TypeBank, TypeJSON, TypePWLE, TypeWAV, TypeAIFF, TypeWISCE, TypeScript}

var (
	// ErrUnknownInput is returned when the input type cannot be detected.
	ErrUnknownInput = errors.New("unknown input type")
	// ErrNotChunked is returned by Inspect for inputs that are not a chunk
	// container.
	ErrNotChunked = errors.New("input is not a chunk container")
)

var extensions = map[string]InputType{
	".wmfw":  TypeWMFW,
	".bin":   TypeWMDR,
	".hapt":  TypeBank,
	".json":  TypeJSON,
	".pwle":  TypePWLE,
	".wav":   TypeWAV,
	".aif":   TypeAIFF,
	".aiff":  TypeAIFF,
	".wisce": TypeWISCE,
	".txt":   TypeWISCE,
	".wscr":  TypeScript,
}

// Detect guesses the input type from the leading magic bytes, falling back
// to the file extension of name.
func Detect(name string, buf []byte) (InputType, error) {
	if len(buf) >= 4 {
		switch string(buf[:4]) {
		case string(wmfw.MagicFirmware[:]):
			return TypeWMFW, nil
		case string(wmfw.MagicCoefficients[:]):
			return TypeWMDR, nil
		}
	}

	if len(buf) >= 12 {
		form := string(buf[8:12])

		switch string(buf[:4]) {
		case "RIFF":
			switch form {
			case string(waveform.FormBank[:]):
				return TypeBank, nil
			case string(wisce.FormScript[:]):
				return TypeScript, nil
			case "WAVE":
				return TypeWAV, nil
			}
		case "FORM":
			if form == "AIFF" || form == "AIFC" {
				return TypeAIFF, nil
			}
		}
	}

	if t, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return t, nil
	}

	if trimmed := bytes.TrimSpace(buf); len(trimmed) > 0 && trimmed[0] == '{' {
		return TypeJSON, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownInput, name)
}

// LoadOptions controls how an input is decoded.
type LoadOptions struct {
	// Type forces the input type; empty or TypeAuto detects it.
	Type InputType
	// Name is the waveform name for PWLE, WAV and AIFF inputs. It defaults
	// to the base name of the input file.
	Name string
	// Strict rejects chunks without a decoder.
	Strict bool
}

// Load decodes buf into a document.
func Load(name string, buf []byte, opts LoadOptions) (export.Document, error) {
	t := opts.Type
	if t == "" || t == TypeAuto {
		var err error

		t, err = Detect(name, buf)
		if err != nil {
			return nil, err
		}
	}

	waveName := opts.Name
	if waveName == "" {
		waveName = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	var (
		doc export.Document
		err error
	)

	switch t {
	case TypeWMFW:
		doc, err = wmfw.ParseFirmware(buf, opts.Strict)
	case TypeWMDR:
		doc, err = wmfw.ParseCoefficients(buf, opts.Strict)
	case TypeBank:
		doc, err = waveform.ParseBank(buf, opts.Strict)
	case TypeJSON:
		doc, err = waveform.LoadJSON(buf)
	case TypePWLE:
		doc, err = waveform.ParsePWLE(string(buf), waveName)
	case TypeWAV:
		doc, err = waveform.ImportWAV(buf, waveName)
	case TypeAIFF:
		doc, err = waveform.ImportAIFF(buf, waveName)
	case TypeWISCE:
		doc, err = wisce.Parse(buf)
	case TypeScript:
		doc, err = wisce.ParseBinary(buf, opts.Strict)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInput, t)
	}

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Convert loads an input and exports it in one step.
func Convert(name string, buf []byte, format string, lopts LoadOptions, eopts export.Options) ([]byte, export.Document, error) {
	doc, err := Load(name, buf, lopts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	out, err := export.Export(doc, format, eopts)
	if err != nil {
		return nil, doc, fmt.Errorf("failed to export %s: %w", name, err)
	}

	return out, doc, nil
}

// Inspect lists the top level chunks of a binary container without decoding
// their payloads.
func Inspect(name string, buf []byte) ([]chunk.Chunk, chunk.Layout, error) {
	t, err := Detect(name, buf)
	if err != nil {
		return nil, nil, err
	}

	switch t {
	case TypeWMFW, TypeWMDR:
		layout := wmfw.RegionLayout
		if t == TypeWMDR {
			layout = wmfw.BlockLayout
		}

		if len(buf) < 8 {
			return nil, nil, &chunk.TruncatedInputError{What: "header length", Offset: 4, Declared: 4, Remaining: max(len(buf)-4, 0)}
		}

		hdrLen := binary.LittleEndian.Uint32(buf[4:8])
		if err := chunk.CheckRange("header length", int64(hdrLen), 8, int64(len(buf))); err != nil {
			return nil, nil, err
		}

		chunks, err := collect(chunk.NewParserAt(buf, layout, int(hdrLen)))

		return chunks, layout, err
	case TypeBank, TypeScript, TypeWAV:
		if len(buf) < 12 {
			return nil, nil, &chunk.TruncatedInputError{What: "RIFF form header", Declared: 12, Remaining: len(buf)}
		}

		var form [4]byte
		copy(form[:], buf[8:12])

		body, err := chunk.OpenForm(buf, form)
		if err != nil {
			return nil, nil, err
		}

		chunks, err := collect(chunk.NewParserAt(buf[:12+len(body)], chunk.RIFF, 12))

		return chunks, chunk.RIFF, err
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrNotChunked, t)
	}
}

func collect(p *chunk.Parser) ([]chunk.Chunk, error) {
	var chunks []chunk.Chunk

	for {
		c, err := p.Next()
		if err != nil {
			return chunks, p.Err()
		}

		chunks = append(chunks, c)
	}
}
