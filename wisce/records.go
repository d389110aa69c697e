package wisce

import (
	"fmt"

	"github.com/cwbudde/cirrusconv/chunk"
)

var (
	TagWrite = chunk.FourCC([4]byte{'w', 'r', 'e', 'g'})
	TagRMW   = chunk.FourCC([4]byte{'r', 'm', 'w', ' '})
	TagDelay = chunk.FourCC([4]byte{'d', 'l', 'a', 'y'})
)

// RegisterWrite sets a register to a value.
type RegisterWrite struct {
	Reg   uint32
	Value uint32
}

func (RegisterWrite) Tag() uint32  { return TagWrite }
func (RegisterWrite) Kind() string { return "register_write" }

// ReadModifyWrite replaces the bits of Mask in a register with Value.
type ReadModifyWrite struct {
	Reg   uint32
	Mask  uint32
	Value uint32
}

func (ReadModifyWrite) Tag() uint32  { return TagRMW }
func (ReadModifyWrite) Kind() string { return "read_modify_write" }

// Delay pauses the script.
type Delay struct {
	Ms uint32
}

func (Delay) Tag() uint32  { return TagDelay }
func (Delay) Kind() string { return "delay" }

// wordHandler encodes records made of n little endian words. encode reports
// false for records of another type.
type wordHandler struct {
	tag    uint32
	words  int
	decode func(w []uint32) chunk.Record
	encode func(r chunk.Record) ([]uint32, bool)
}

func (h wordHandler) Tag() uint32 { return h.tag }

func (h wordHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	if err := chunk.CheckRange("payload size", len(c.Data), 4*h.words, 4*h.words); err != nil {
		return nil, err
	}

	f := chunk.NewFields(c.Data, c.Offset+chunk.RIFF.HeaderSize())

	w := make([]uint32, h.words)
	for i := range w {
		w[i] = f.U32LE("word")
	}

	if err := f.Err(); err != nil {
		return nil, err
	}

	return h.decode(w), nil
}

func (h wordHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	words, ok := h.encode(r)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: %s handler got %s record", chunk.ErrRecordType, chunk.RIFF.TagName(h.tag), r.Kind())
	}

	var b chunk.Builder
	for _, w := range words {
		b.U32LE(w)
	}

	return chunk.New(h.tag, chunk.Attrs{}, b.Data()), nil
}

var handlers = []chunk.Handler{
	wordHandler{
		tag:    TagWrite,
		words:  2,
		decode: func(w []uint32) chunk.Record { return RegisterWrite{Reg: w[0], Value: w[1]} },
		encode: func(r chunk.Record) ([]uint32, bool) {
			rw, ok := r.(RegisterWrite)
			return []uint32{rw.Reg, rw.Value}, ok
		},
	},
	wordHandler{
		tag:    TagRMW,
		words:  3,
		decode: func(w []uint32) chunk.Record { return ReadModifyWrite{Reg: w[0], Mask: w[1], Value: w[2]} },
		encode: func(r chunk.Record) ([]uint32, bool) {
			rmw, ok := r.(ReadModifyWrite)
			return []uint32{rmw.Reg, rmw.Mask, rmw.Value}, ok
		},
	},
	wordHandler{
		tag:    TagDelay,
		words:  1,
		decode: func(w []uint32) chunk.Record { return Delay{Ms: w[0]} },
		encode: func(r chunk.Record) ([]uint32, bool) {
			d, ok := r.(Delay)
			return []uint32{d.Ms}, ok
		},
	},
}
