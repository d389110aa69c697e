package wmfw

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/cirrusconv/chunk"
)

// Target cores.
const (
	CoreADSP1 = 1
	CoreADSP2 = 2
	CoreHalo  = 4
)

const (
	firmwareFixedHeader = 12
	firmwareFooterSize  = 12
)

var (
	// MagicFirmware starts every .wmfw file.
	MagicFirmware = [4]byte{'W', 'M', 'F', 'W'}

	// ErrBadMagic is returned when a file does not start with the expected magic.
	ErrBadMagic = errors.New("bad magic")
)

var regionTypes = []uint32{
	TypeADSP1PM, TypeADSP1DM, TypeADSP2ZM, TypeADSP2XM, TypeADSP2YM,
	TypeHaloPM, TypeHaloXM, TypeHaloYM, TypeAbsolute,
	TypeAlgorithm, TypeMetadata, TypeNameText, TypeInfoText,
}

var (
	regionRegistryFixed  = newRegionRegistry(firstStringFormat - 1)
	regionRegistryString = newRegionRegistry(firstStringFormat)
)

func newRegionRegistry(version uint8) *chunk.Registry {
	handlers := []chunk.Handler{algorithmHandler{version: version}}

	for _, t := range regionTypes {
		switch t {
		case TypeAlgorithm:
		case TypeMetadata, TypeNameText, TypeInfoText:
			handlers = append(handlers, textHandler{tag: t})
		default:
			handlers = append(handlers, memoryHandler{tag: t})
		}
	}

	return chunk.MustRegistry(RegionLayout, regionTypes, handlers...)
}

func regionRegistry(version uint8) *chunk.Registry {
	if version < firstStringFormat {
		return regionRegistryFixed
	}

	return regionRegistryString
}

// FirmwareHeader is the fixed part of a .wmfw file in front of the regions.
type FirmwareHeader struct {
	APIRevision uint16
	Core        uint8
	// Version is the file format version.
	Version uint8
	// Sizes holds the memory size words of the target core.
	Sizes     []uint32
	Timestamp uint64
	Checksum  uint32
}

// Firmware is a parsed .wmfw file.
type Firmware struct {
	Header  FirmwareHeader
	Records []chunk.Record
}

func (fw *Firmware) Kind() string { return "firmware" }

// CoreName returns a readable name of the target core.
func (h FirmwareHeader) CoreName() string {
	switch h.Core {
	case CoreADSP1:
		return "adsp1"
	case CoreADSP2:
		return "adsp2"
	case CoreHalo:
		return "halo"
	default:
		return fmt.Sprintf("core_%d", h.Core)
	}
}

// ParseFirmware decodes a .wmfw image. With strict set, regions of unknown
// type fail the parse instead of being kept opaque.
func ParseFirmware(buf []byte, strict bool) (*Firmware, error) {
	if len(buf) < firmwareFixedHeader+firmwareFooterSize {
		return nil, &chunk.TruncatedInputError{
			What:      "WMFW header",
			Declared:  firmwareFixedHeader + firmwareFooterSize,
			Remaining: len(buf),
		}
	}

	if !bytes.Equal(buf[:4], MagicFirmware[:]) {
		return nil, fmt.Errorf("%w: %q is not a WMFW file", ErrBadMagic, buf[:4])
	}

	f := chunk.NewFields(buf[4:], 4)
	hdrLen := f.U32LE("header length")

	var hdr FirmwareHeader
	hdr.APIRevision = f.U16LE("api revision")
	hdr.Core = f.U8("core")
	hdr.Version = f.U8("format version")

	if err := chunk.CheckRange("header length", int64(hdrLen), firmwareFixedHeader+firmwareFooterSize, int64(len(buf))); err != nil {
		return nil, err
	}

	sizesLen := int(hdrLen) - firmwareFixedHeader - firmwareFooterSize
	if sizesLen%4 != 0 {
		return nil, &chunk.FieldRangeError{Field: "header length alignment", Value: int64(hdrLen), Min: 0, Max: int64(hdrLen - hdrLen%4)}
	}

	for i := 0; i < sizesLen/4; i++ {
		hdr.Sizes = append(hdr.Sizes, f.U32LE("memory size"))
	}

	hdr.Timestamp = f.U64LE("timestamp")
	hdr.Checksum = f.U32LE("checksum")

	if err := f.Err(); err != nil {
		return nil, err
	}

	records, err := regionRegistry(hdr.Version).DecodeAt(buf, int(hdrLen), strict)
	if err != nil {
		return nil, err
	}

	return &Firmware{Header: hdr, Records: records}, nil
}

// Encode serializes the firmware back into .wmfw form.
func (fw *Firmware) Encode() ([]byte, error) {
	var buf bytes.Buffer

	w := chunk.NewWriter(&buf, RegionLayout)

	var b chunk.Builder
	b.Bytes(MagicFirmware[:])
	b.U32LE(uint32(firmwareFixedHeader + 4*len(fw.Header.Sizes) + firmwareFooterSize))
	b.U16LE(fw.Header.APIRevision)
	b.U8(fw.Header.Core)
	b.U8(fw.Header.Version)

	for _, s := range fw.Header.Sizes {
		b.U32LE(s)
	}

	b.U64LE(fw.Header.Timestamp)
	b.U32LE(fw.Header.Checksum)

	if _, err := w.Write(b.Data()); err != nil {
		return nil, fmt.Errorf("failed to write WMFW header: %w", err)
	}

	err := regionRegistry(fw.Header.Version).EncodeAll(w, fw.Records)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Algorithms returns the algorithm blocks in file order.
func (fw *Firmware) Algorithms() []Algorithm {
	var algs []Algorithm

	for _, rec := range fw.Records {
		if alg, ok := rec.(Algorithm); ok {
			algs = append(algs, alg)
		}
	}

	return algs
}

// PayloadBytes returns the summed payload size of the memory regions.
func (fw *Firmware) PayloadBytes() int {
	return payloadBytes(fw.Records)
}

func payloadBytes(records []chunk.Record) int {
	n := 0

	for _, rec := range records {
		if r, ok := rec.(MemoryRegion); ok {
			n += len(r.Data)
		}
	}

	return n
}
