package wmfw

import (
	"fmt"
	"math"

	"github.com/cwbudde/cirrusconv/chunk"
)

// Fixed string sizes of the algorithm block in format versions before 3.
const (
	maxAlgName        = 256
	maxAlgDescr       = 256
	maxCoeffName      = 64
	maxCoeffDescr     = 256
	firstStringFormat = 3
)

// Coefficient descriptor header sizes. The size word counts from the end of
// the fixed format header in both encodings, so a version 3 size includes
// its own slot.
const (
	coeffHeaderFixed  = 8
	coeffHeaderSlots  = 12
	coeffSizeBaseSlot = coeffHeaderSlots - coeffHeaderFixed
)

// MemoryRegion is a block of DSP memory contents, either a WMFW region or a
// WMDR coefficient block.
type MemoryRegion struct {
	Type  uint32
	Attrs chunk.Attrs
	Data  []byte
}

func (r MemoryRegion) Tag() uint32 { return r.Type }

func (r MemoryRegion) Kind() string {
	if r.Type == TypeAbsolute {
		return "absolute"
	}

	return "memory"
}

// Text is a name, info or metadata string.
type Text struct {
	Type  uint32
	Attrs chunk.Attrs
	Text  string
}

func (t Text) Tag() uint32  { return t.Type }
func (t Text) Kind() string { return "text" }

// Coefficient describes one firmware control of an algorithm.
type Coefficient struct {
	Offset      uint16
	MemType     uint16
	Name        string
	FullName    string
	Description string
	CtlType     uint16
	Flags       uint16
	Length      uint32
	// Extra holds descriptor bytes past the known fields.
	Extra []byte
}

// Algorithm is the description block of one firmware algorithm.
type Algorithm struct {
	Offset       uint32
	ID           uint32
	Name         string
	Description  string
	Coefficients []Coefficient
	// Tail holds bytes after the last coefficient descriptor.
	Tail []byte
}

func (a Algorithm) Tag() uint32  { return TypeAlgorithm }
func (a Algorithm) Kind() string { return "algorithm" }

type memoryHandler struct {
	tag uint32
}

func (h memoryHandler) Tag() uint32 { return h.tag }

func (h memoryHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	return MemoryRegion{Type: c.Tag, Attrs: c.Attrs, Data: append([]byte(nil), c.Data...)}, nil
}

func (h memoryHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	rec, ok := r.(MemoryRegion)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: memory handler got %s record", chunk.ErrRecordType, r.Kind())
	}

	return chunk.New(rec.Type, rec.Attrs, append([]byte(nil), rec.Data...)), nil
}

type textHandler struct {
	tag uint32
}

func (h textHandler) Tag() uint32 { return h.tag }

func (h textHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	return Text{Type: c.Tag, Attrs: c.Attrs, Text: string(c.Data)}, nil
}

func (h textHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	rec, ok := r.(Text)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: text handler got %s record", chunk.ErrRecordType, r.Kind())
	}

	return chunk.New(rec.Type, rec.Attrs, []byte(rec.Text)), nil
}

// algorithmHandler decodes algorithm blocks. The string encoding depends on
// the file format version.
type algorithmHandler struct {
	version uint8
}

func (h algorithmHandler) Tag() uint32 { return TypeAlgorithm }

func (h algorithmHandler) coeffHeaderSize() int {
	if h.version < firstStringFormat {
		return coeffHeaderFixed
	}

	return coeffHeaderSlots
}

func (h algorithmHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	f := chunk.NewFields(c.Data, c.Offset+RegionLayout.HeaderSize())
	alg := Algorithm{Offset: c.Attrs.Offset}

	var ncoeff uint32

	if h.version < firstStringFormat {
		alg.ID = f.U32LE("algorithm id")
		alg.Name = f.FixedString("algorithm name", maxAlgName)
		alg.Description = f.FixedString("algorithm description", maxAlgDescr)
		ncoeff = f.U32LE("coefficient count")
	} else {
		alg.ID = f.U32LE("algorithm id")
		alg.Name = alignedString(f, "algorithm name", 1)
		alg.Description = alignedString(f, "algorithm description", 2)
		ncoeff = f.U32LE("coefficient count")
	}

	if err := f.Err(); err != nil {
		return nil, err
	}

	// every descriptor needs at least its header
	if err := chunk.CheckRange("coefficient count", int64(ncoeff), 0, int64(f.Len()/h.coeffHeaderSize())); err != nil {
		return nil, err
	}

	for i := uint32(0); i < ncoeff; i++ {
		coeff, err := h.decodeCoefficient(f)
		if err != nil {
			return nil, err
		}

		alg.Coefficients = append(alg.Coefficients, coeff)
	}

	if f.Len() > 0 {
		alg.Tail = f.Rest()
	}

	return alg, f.Err()
}

func (h algorithmHandler) decodeCoefficient(f *chunk.Fields) (Coefficient, error) {
	var coeff Coefficient

	var bodyLen int

	if h.version < firstStringFormat {
		coeff.Offset = f.U16LE("coefficient offset")
		coeff.MemType = f.U16LE("coefficient type")
		bodyLen = int(f.U32LE("coefficient size"))
	} else {
		offset := f.U32LE("coefficient offset")
		memType := f.U32LE("coefficient type")
		size := f.U32LE("coefficient size")

		if err := f.Err(); err != nil {
			return coeff, err
		}

		if err := chunk.CheckRange("coefficient offset", offset, 0, 0xffff); err != nil {
			return coeff, err
		}

		if err := chunk.CheckRange("coefficient type", memType, 0, 0xffff); err != nil {
			return coeff, err
		}

		if err := chunk.CheckRange("coefficient size", size, coeffSizeBaseSlot, math.MaxUint32); err != nil {
			return coeff, err
		}

		coeff.Offset = uint16(offset)
		coeff.MemType = uint16(memType)
		bodyLen = int(size) - coeffSizeBaseSlot
	}

	body := f.Bytes("coefficient descriptor", bodyLen)

	if err := f.Err(); err != nil {
		return coeff, err
	}

	d := chunk.NewFields(body, 0)

	if h.version < firstStringFormat {
		coeff.Name = d.FixedString("coefficient name", maxCoeffName)
		coeff.Description = d.FixedString("coefficient description", maxCoeffDescr)
		coeff.CtlType = d.U16LE("coefficient control type")
		coeff.Flags = d.U16LE("coefficient flags")
		coeff.Length = d.U32LE("coefficient length")
	} else {
		coeff.Name = alignedString(d, "coefficient name", 1)
		coeff.FullName = alignedString(d, "coefficient full name", 1)
		coeff.Description = alignedString(d, "coefficient description", 2)
		coeff.CtlType = uint16(d.U32LE("coefficient control type"))
		coeff.Flags = uint16(d.U32LE("coefficient flags"))
		coeff.Length = d.U32LE("coefficient length")
	}

	if d.Len() > 0 {
		coeff.Extra = d.Rest()
	}

	return coeff, d.Err()
}

func (h algorithmHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	alg, ok := r.(Algorithm)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: algorithm handler got %s record", chunk.ErrRecordType, r.Kind())
	}

	var b chunk.Builder

	b.U32LE(alg.ID)

	if h.version < firstStringFormat {
		if err := b.FixedString("algorithm name", alg.Name, maxAlgName); err != nil {
			return chunk.Chunk{}, err
		}

		if err := b.FixedString("algorithm description", alg.Description, maxAlgDescr); err != nil {
			return chunk.Chunk{}, err
		}
	} else {
		if err := putAlignedString(&b, "algorithm name", alg.Name, 1); err != nil {
			return chunk.Chunk{}, err
		}

		if err := putAlignedString(&b, "algorithm description", alg.Description, 2); err != nil {
			return chunk.Chunk{}, err
		}
	}

	b.U32LE(uint32(len(alg.Coefficients)))

	for _, coeff := range alg.Coefficients {
		body, err := h.encodeCoefficient(coeff)
		if err != nil {
			return chunk.Chunk{}, fmt.Errorf("coefficient %q: %w", coeff.Name, err)
		}

		if h.version < firstStringFormat {
			b.U16LE(coeff.Offset)
			b.U16LE(coeff.MemType)
			b.U32LE(uint32(len(body)))
		} else {
			b.U32LE(uint32(coeff.Offset))
			b.U32LE(uint32(coeff.MemType))
			b.U32LE(uint32(len(body) + coeffSizeBaseSlot))
		}

		b.Bytes(body)
	}

	b.Bytes(alg.Tail)

	return chunk.New(TypeAlgorithm, chunk.Attrs{Offset: alg.Offset}, b.Data()), nil
}

func (h algorithmHandler) encodeCoefficient(coeff Coefficient) ([]byte, error) {
	var d chunk.Builder

	if h.version < firstStringFormat {
		if err := d.FixedString("coefficient name", coeff.Name, maxCoeffName); err != nil {
			return nil, err
		}

		if err := d.FixedString("coefficient description", coeff.Description, maxCoeffDescr); err != nil {
			return nil, err
		}

		d.U16LE(coeff.CtlType)
		d.U16LE(coeff.Flags)
		d.U32LE(coeff.Length)
	} else {
		strs := []struct {
			name   string
			s      string
			prefix int
		}{
			{"coefficient name", coeff.Name, 1},
			{"coefficient full name", coeff.FullName, 1},
			{"coefficient description", coeff.Description, 2},
		}

		for _, str := range strs {
			if err := putAlignedString(&d, str.name, str.s, str.prefix); err != nil {
				return nil, err
			}
		}

		d.U32LE(uint32(coeff.CtlType))
		d.U32LE(uint32(coeff.Flags))
		d.U32LE(coeff.Length)
	}

	d.Bytes(coeff.Extra)

	return d.Data(), nil
}

// Format version 3 stores integers in 4-byte slots and pads length prefixed
// strings (prefix included) to a multiple of four.
func alignedString(f *chunk.Fields, name string, prefix int) string {
	start := f.Pos()

	var s string
	if prefix == 1 {
		s = f.PString8(name)
	} else {
		s = f.PString16(name)
	}

	used := f.Pos() - start
	f.Skip(name+" padding", chunk.AlignUp(used, 4)-used)

	return s
}

func putAlignedString(b *chunk.Builder, name, s string, prefix int) error {
	start := b.Len()

	var err error
	if prefix == 1 {
		err = b.PString8(name, s)
	} else {
		err = b.PString16(name, s)
	}

	if err != nil {
		return err
	}

	used := b.Len() - start
	b.Bytes(make([]byte, chunk.AlignUp(used, 4)-used))

	return nil
}
