package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput is returned when a declared length runs past the end
	// of the buffer.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrMisalignedTrailingData is returned when bytes remain after the last
	// complete chunk but do not form a chunk header.
	ErrMisalignedTrailingData = errors.New("misaligned trailing data")
	// ErrUnknownChunkType is returned by strict decoding of an unmapped tag.
	ErrUnknownChunkType = errors.New("unknown chunk type")
	// ErrFieldRange is returned when a decoded numeric field is outside the
	// bounds documented for its format.
	ErrFieldRange = errors.New("field out of range")
	// ErrRecordType is returned when a handler is given a record of a type
	// it does not encode.
	ErrRecordType = errors.New("record type mismatch")
)

// TruncatedInputError reports a read that would run past the end of input.
type TruncatedInputError struct {
	// What names the element being read (a chunk tag or a field name).
	What      string
	Offset    int
	Declared  int
	Remaining int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s declares %d bytes, %d remaining",
		ErrTruncatedInput, e.Offset, e.What, e.Declared, e.Remaining)
}

func (e *TruncatedInputError) Is(target error) bool {
	return target == ErrTruncatedInput
}

// MisalignedTrailingDataError reports leftover bytes after the last chunk.
type MisalignedTrailingDataError struct {
	Offset   int
	Trailing int
	// HeaderSize is the number of bytes a complete chunk header needs.
	HeaderSize int
}

func (e *MisalignedTrailingDataError) Error() string {
	return fmt.Sprintf("%s at offset %d: %d bytes left, header needs %d",
		ErrMisalignedTrailingData, e.Offset, e.Trailing, e.HeaderSize)
}

func (e *MisalignedTrailingDataError) Is(target error) bool {
	return target == ErrMisalignedTrailingData
}

// UnknownChunkTypeError reports an unmapped tag when strict decoding is on.
type UnknownChunkTypeError struct {
	Layout string
	Tag    string
	Offset int
}

func (e *UnknownChunkTypeError) Error() string {
	return fmt.Sprintf("%s: %s chunk %s at offset %d", ErrUnknownChunkType, e.Layout, e.Tag, e.Offset)
}

func (e *UnknownChunkTypeError) Is(target error) bool {
	return target == ErrUnknownChunkType
}

// FieldRangeError reports a numeric field outside its documented bounds.
type FieldRangeError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("%s: %s = %d, valid range [%d, %d]", ErrFieldRange, e.Field, e.Value, e.Min, e.Max)
}

func (e *FieldRangeError) Is(target error) bool {
	return target == ErrFieldRange
}
