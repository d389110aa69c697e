package wmfw

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/cirrusconv/chunk"
)

const coeffFixedHeader = 16

// MagicCoefficients starts every WMDR coefficient (.bin) file.
var MagicCoefficients = [4]byte{'W', 'M', 'D', 'R'}

var blockTypes = []uint32{
	TypeADSP1DM, TypeADSP2ZM, TypeADSP2XM, TypeADSP2YM,
	TypeHaloXM, TypeHaloYM, TypeHaloPM, TypeAbsolute,
	TypeBlockName, TypeBlockInfo, TypeBlockMeta,
}

var blockRegistry = newBlockRegistry()

func newBlockRegistry() *chunk.Registry {
	var handlers []chunk.Handler

	for _, t := range blockTypes {
		switch t {
		case TypeBlockName, TypeBlockInfo, TypeBlockMeta:
			handlers = append(handlers, textHandler{tag: t})
		default:
			handlers = append(handlers, memoryHandler{tag: t})
		}
	}

	return chunk.MustRegistry(BlockLayout, blockTypes, handlers...)
}

// CoefficientsHeader is the fixed part of a WMDR file.
type CoefficientsHeader struct {
	Version uint32
	Core    uint32
	// Extra holds header bytes past the fixed fields.
	Extra []byte
}

// Coefficients is a parsed WMDR coefficient file.
type Coefficients struct {
	Header  CoefficientsHeader
	Records []chunk.Record
}

func (c *Coefficients) Kind() string { return "coefficients" }

// ParseCoefficients decodes a WMDR coefficient file.
func ParseCoefficients(buf []byte, strict bool) (*Coefficients, error) {
	if len(buf) < coeffFixedHeader {
		return nil, &chunk.TruncatedInputError{What: "WMDR header", Declared: coeffFixedHeader, Remaining: len(buf)}
	}

	if !bytes.Equal(buf[:4], MagicCoefficients[:]) {
		return nil, fmt.Errorf("%w: %q is not a WMDR file", ErrBadMagic, buf[:4])
	}

	f := chunk.NewFields(buf[4:], 4)
	hdrLen := f.U32LE("header length")

	var hdr CoefficientsHeader
	hdr.Version = f.U32LE("version")
	hdr.Core = f.U32LE("core")

	if err := chunk.CheckRange("header length", int64(hdrLen), coeffFixedHeader, int64(len(buf))); err != nil {
		return nil, err
	}

	if extra := int(hdrLen) - coeffFixedHeader; extra > 0 {
		hdr.Extra = f.Bytes("header extension", extra)
	}

	if err := f.Err(); err != nil {
		return nil, err
	}

	records, err := blockRegistry.DecodeAt(buf, int(hdrLen), strict)
	if err != nil {
		return nil, err
	}

	return &Coefficients{Header: hdr, Records: records}, nil
}

// Encode serializes the coefficient file.
func (c *Coefficients) Encode() ([]byte, error) {
	var buf bytes.Buffer

	w := chunk.NewWriter(&buf, BlockLayout)

	var b chunk.Builder
	b.Bytes(MagicCoefficients[:])
	b.U32LE(uint32(coeffFixedHeader + len(c.Header.Extra)))
	b.U32LE(c.Header.Version)
	b.U32LE(c.Header.Core)
	b.Bytes(c.Header.Extra)

	if _, err := w.Write(b.Data()); err != nil {
		return nil, fmt.Errorf("failed to write WMDR header: %w", err)
	}

	err := blockRegistry.EncodeAll(w, c.Records)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// PayloadBytes returns the summed payload size of the data blocks.
func (c *Coefficients) PayloadBytes() int {
	return payloadBytes(c.Records)
}
