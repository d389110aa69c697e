package chunk

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/exp/constraints"
)

// AlignUp rounds val up to the next multiple of align.
func AlignUp[T constraints.Integer](val, align T) T {
	return (val + align - 1) / align * align
}

// CheckRange returns a FieldRangeError when v is outside [lo, hi].
func CheckRange[T constraints.Integer](field string, v, lo, hi T) error {
	if v < lo || v > hi {
		return &FieldRangeError{Field: field, Value: int64(v), Min: int64(lo), Max: int64(hi)}
	}

	return nil
}

// Fields is a cursor decoding fixed width fields from a payload. The first
// failed read is kept; later reads return zero values so callers can check
// Err once after a run of reads.
type Fields struct {
	b    []byte
	pos  int
	base int
	err  error
}

// NewFields creates a cursor over b. base is the absolute offset of b in its
// source buffer and only appears in error messages.
func NewFields(b []byte, base int) *Fields {
	return &Fields{b: b, base: base}
}

func (f *Fields) take(name string, n int) []byte {
	if f.err != nil {
		return nil
	}

	if n < 0 || n > len(f.b)-f.pos {
		f.err = &TruncatedInputError{What: name, Offset: f.base + f.pos, Declared: n, Remaining: len(f.b) - f.pos}
		return nil
	}

	out := f.b[f.pos : f.pos+n]
	f.pos += n

	return out
}

func (f *Fields) U8(name string) uint8 {
	b := f.take(name, 1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (f *Fields) I8(name string) int8 {
	return int8(f.U8(name))
}

func (f *Fields) U16LE(name string) uint16 {
	b := f.take(name, 2)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint16(b)
}

func (f *Fields) U32LE(name string) uint32 {
	b := f.take(name, 4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

func (f *Fields) U64LE(name string) uint64 {
	b := f.take(name, 8)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint64(b)
}

// Bytes returns a copy of the next n bytes.
func (f *Fields) Bytes(name string, n int) []byte {
	b := f.take(name, n)
	if b == nil {
		return nil
	}

	return append([]byte(nil), b...)
}

// FixedString reads an n byte, NUL padded string.
func (f *Fields) FixedString(name string, n int) string {
	b := f.take(name, n)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}

// PString8 reads a string prefixed by an 8-bit length.
func (f *Fields) PString8(name string) string {
	n := f.U8(name + " length")
	return string(f.take(name, int(n)))
}

// PString16 reads a string prefixed by a 16-bit little endian length.
func (f *Fields) PString16(name string) string {
	n := f.U16LE(name + " length")
	return string(f.take(name, int(n)))
}

// Rest returns a copy of everything not consumed yet.
func (f *Fields) Rest() []byte {
	if f.err != nil {
		return nil
	}

	return f.Bytes("remainder", len(f.b)-f.pos)
}

// Skip advances the cursor by n bytes.
func (f *Fields) Skip(name string, n int) {
	f.take(name, n)
}

// Len returns the number of unread bytes.
func (f *Fields) Len() int {
	return len(f.b) - f.pos
}

// Pos returns the cursor position relative to the start of the payload.
func (f *Fields) Pos() int {
	return f.pos
}

func (f *Fields) Err() error {
	return f.err
}

// Builder appends fixed width fields to a payload.
type Builder struct {
	b []byte
}

func (b *Builder) U8(v uint8) { b.b = append(b.b, v) }
func (b *Builder) I8(v int8)  { b.b = append(b.b, uint8(v)) }

func (b *Builder) U16LE(v uint16) {
	b.b = binary.LittleEndian.AppendUint16(b.b, v)
}

func (b *Builder) U32LE(v uint32) {
	b.b = binary.LittleEndian.AppendUint32(b.b, v)
}

func (b *Builder) U64LE(v uint64) {
	b.b = binary.LittleEndian.AppendUint64(b.b, v)
}

func (b *Builder) Bytes(v []byte) { b.b = append(b.b, v...) }

// FixedString writes s NUL padded to n bytes. A string longer than n is a
// FieldRangeError.
func (b *Builder) FixedString(name, s string, n int) error {
	if err := CheckRange(name+" length", len(s), 0, n); err != nil {
		return err
	}

	out := make([]byte, n)
	copy(out, s)
	b.b = append(b.b, out...)

	return nil
}

// PString8 writes s with an 8-bit length prefix.
func (b *Builder) PString8(name, s string) error {
	if err := CheckRange(name+" length", len(s), 0, 0xff); err != nil {
		return err
	}

	b.U8(uint8(len(s)))
	b.b = append(b.b, s...)

	return nil
}

// PString16 writes s with a 16-bit little endian length prefix.
func (b *Builder) PString16(name, s string) error {
	if err := CheckRange(name+" length", len(s), 0, 0xffff); err != nil {
		return err
	}

	b.U16LE(uint16(len(s)))
	b.b = append(b.b, s...)

	return nil
}

func (b *Builder) Len() int { return len(b.b) }

// Data returns the accumulated payload.
func (b *Builder) Data() []byte { return b.b }
