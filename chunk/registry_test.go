package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

var (
	tagCount = FourCC([4]byte{'c', 'n', 't', ' '})
	tagNote  = FourCC([4]byte{'n', 'o', 't', 'e'})
)

type countRecord struct {
	N uint32
}

func (countRecord) Tag() uint32  { return tagCount }
func (countRecord) Kind() string { return "count" }

type countHandler struct{}

func (countHandler) Tag() uint32 { return tagCount }

func (countHandler) Decode(c Chunk) (Record, error) {
	f := NewFields(c.Data, c.Offset+8)
	n := f.U32LE("count")

	if err := f.Err(); err != nil {
		return nil, err
	}

	return countRecord{N: n}, nil
}

func (countHandler) Encode(r Record) (Chunk, error) {
	rec := r.(countRecord)

	var b Builder
	b.U32LE(rec.N)

	return New(tagCount, Attrs{}, b.Data()), nil
}

func countPayload(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)

	return b
}

func TestRegistryDecodesKnownAndKeepsUnknown(t *testing.T) {
	reg := NewRegistry(RIFF, countHandler{})
	input := concat(riffChunk("cnt ", countPayload(1234)), riffChunk("note", []byte("hi!")))

	records, err := reg.DecodeAll(input, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	count, ok := records[0].(countRecord)
	if !ok || count.N != 1234 {
		t.Fatalf("unexpected first record: %#v", records[0])
	}

	opaque, ok := records[1].(Opaque)
	if !ok {
		t.Fatalf("expected opaque record, got %T", records[1])
	}

	if opaque.Tag() != tagNote || !bytes.Equal(opaque.Chunk.Data, []byte("hi!")) {
		t.Fatalf("opaque chunk mismatch: %+v", opaque.Chunk)
	}

	// opaque payloads do not alias the input
	input[20] = 'X'
	if opaque.Chunk.Data[0] != 'h' {
		t.Fatal("opaque payload aliases the source buffer")
	}
}

func TestRegistryStrictRejectsUnknown(t *testing.T) {
	reg := NewRegistry(RIFF, countHandler{})
	input := concat(riffChunk("cnt ", countPayload(1)), riffChunk("note", nil))

	_, err := reg.DecodeAll(input, true)
	if !errors.Is(err, ErrUnknownChunkType) {
		t.Fatalf("expected unknown chunk type, got %v", err)
	}

	var unknown *UnknownChunkTypeError
	if !errors.As(err, &unknown) || unknown.Offset != 12 {
		t.Fatalf("unexpected error details: %v", err)
	}
}

func TestRegistryHandlerErrorsAreWrapped(t *testing.T) {
	reg := NewRegistry(RIFF, countHandler{})

	_, err := reg.DecodeAll(riffChunk("cnt ", []byte{1, 2}), false)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected truncated input, got %v", err)
	}

	if !strings.Contains(err.Error(), `"cnt "`) {
		t.Fatalf("error does not name the chunk: %v", err)
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry(RIFF, countHandler{})
	input := concat(riffChunk("note", []byte{9}), riffChunk("cnt ", countPayload(7)))

	records, err := reg.DecodeAll(input, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var out bytes.Buffer
	if err := reg.EncodeAll(NewWriter(&out, RIFF), records); err != nil {
		t.Fatalf("encode: %v", err)
	}

	if !bytes.Equal(out.Bytes(), input) {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", out.Bytes(), input)
	}
}

func TestRegistryValidate(t *testing.T) {
	reg := NewRegistry(RIFF, countHandler{})

	if err := reg.Validate(tagCount); err != nil {
		t.Fatalf("validate: %v", err)
	}

	err := reg.Validate(tagCount, tagNote)
	if err == nil || !strings.Contains(err.Error(), `"note"`) {
		t.Fatalf("expected missing handler error for note, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected MustRegistry to panic")
		}
	}()

	MustRegistry(RIFF, []uint32{tagNote}, countHandler{})
}
