package wmfw

import (
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/cirrusconv/chunk"
)

// Region and block types. WMDR text blocks use the region text type shifted
// left by 8.
const (
	TypeADSP1PM   = 0x02
	TypeADSP1DM   = 0x03
	TypeADSP2ZM   = 0x04
	TypeADSP2XM   = 0x05
	TypeADSP2YM   = 0x06
	TypeHaloPM    = 0x10
	TypeHaloXM    = 0x11
	TypeHaloYM    = 0x12
	TypeAbsolute  = 0xf0
	TypeAlgorithm = 0xf2
	TypeMetadata  = 0xfc
	TypeNameText  = 0xfe
	TypeInfoText  = 0xff
	TypeBlockName = TypeNameText << 8
	TypeBlockInfo = TypeInfoText << 8
	TypeBlockMeta = TypeMetadata << 8
)

var typeNames = map[uint32]string{
	TypeADSP1PM:   "pm",
	TypeADSP1DM:   "dm",
	TypeADSP2ZM:   "zm",
	TypeADSP2XM:   "xm",
	TypeADSP2YM:   "ym",
	TypeHaloPM:    "pm_packed",
	TypeHaloXM:    "xm_packed",
	TypeHaloYM:    "ym_packed",
	TypeAbsolute:  "absolute",
	TypeAlgorithm: "algorithm",
	TypeMetadata:  "metadata",
	TypeNameText:  "name",
	TypeInfoText:  "info",
	TypeBlockName: "name",
	TypeBlockInfo: "info",
	TypeBlockMeta: "metadata",
}

// TypeName returns a short name for a region or block type.
func TypeName(t uint32) string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("type_0x%x", t)
}

var (
	// RegionLayout is the chunk layout of WMFW firmware regions: a little
	// endian word holding a 24-bit offset and an 8-bit type, then a little
	// endian length. Regions are not padded.
	RegionLayout chunk.Layout = regionLayout{}
	// BlockLayout is the chunk layout of WMDR coefficient blocks. Payloads
	// are padded to four bytes.
	BlockLayout chunk.Layout = blockLayout{}
)

type regionLayout struct{}

func (regionLayout) Name() string    { return "WMFW" }
func (regionLayout) HeaderSize() int { return 8 }
func (regionLayout) Align() int      { return 1 }

func (regionLayout) ReadHeader(b []byte) chunk.Header {
	word := binary.LittleEndian.Uint32(b[0:4])

	return chunk.Header{
		Tag:   word >> 24,
		Attrs: chunk.Attrs{Offset: word & 0xffffff},
		Size:  binary.LittleEndian.Uint32(b[4:8]),
	}
}

func (regionLayout) PutHeader(b []byte, h chunk.Header) {
	binary.LittleEndian.PutUint32(b[0:4], h.Tag<<24|h.Attrs.Offset&0xffffff)
	binary.LittleEndian.PutUint32(b[4:8], h.Size)
}

func (regionLayout) CheckHeader(h chunk.Header) error {
	if err := chunk.CheckRange("region type", h.Tag, 0, 0xff); err != nil {
		return err
	}

	return chunk.CheckRange("region offset", h.Attrs.Offset, 0, 0xffffff)
}

func (regionLayout) TagName(tag uint32) string {
	return fmt.Sprintf("0x%02x (%s)", tag, TypeName(tag))
}

type blockLayout struct{}

func (blockLayout) Name() string    { return "WMDR" }
func (blockLayout) HeaderSize() int { return 20 }
func (blockLayout) Align() int      { return 4 }

func (blockLayout) ReadHeader(b []byte) chunk.Header {
	return chunk.Header{
		Tag: uint32(binary.LittleEndian.Uint16(b[2:4])),
		Attrs: chunk.Attrs{
			Offset:     uint32(binary.LittleEndian.Uint16(b[0:2])),
			AlgID:      binary.LittleEndian.Uint32(b[4:8]),
			AlgVersion: binary.LittleEndian.Uint32(b[8:12]),
			SampleRate: binary.LittleEndian.Uint32(b[12:16]),
		},
		Size: binary.LittleEndian.Uint32(b[16:20]),
	}
}

func (blockLayout) PutHeader(b []byte, h chunk.Header) {
	binary.LittleEndian.PutUint16(b[0:2], uint16(h.Attrs.Offset))
	binary.LittleEndian.PutUint16(b[2:4], uint16(h.Tag))
	binary.LittleEndian.PutUint32(b[4:8], h.Attrs.AlgID)
	binary.LittleEndian.PutUint32(b[8:12], h.Attrs.AlgVersion)
	binary.LittleEndian.PutUint32(b[12:16], h.Attrs.SampleRate)
	binary.LittleEndian.PutUint32(b[16:20], h.Size)
}

func (blockLayout) CheckHeader(h chunk.Header) error {
	if err := chunk.CheckRange("block type", h.Tag, 0, 0xffff); err != nil {
		return err
	}

	return chunk.CheckRange("block offset", h.Attrs.Offset, 0, 0xffff)
}

func (blockLayout) TagName(tag uint32) string {
	return fmt.Sprintf("0x%04x (%s)", tag, TypeName(tag))
}
