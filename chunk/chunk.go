package chunk

// Attrs holds the per-layout header fields that sit next to the tag and the
// length. Layouts that have no such fields leave it zero.
type Attrs struct {
	// Offset is the target memory offset (WMFW regions, WMDR blocks).
	Offset uint32
	// AlgID, AlgVersion and SampleRate only exist in WMDR block headers.
	AlgID      uint32
	AlgVersion uint32
	SampleRate uint32
}

// Chunk is one tagged, length-prefixed element of a container file.
type Chunk struct {
	Tag   uint32
	Attrs Attrs
	// Size mirrors len(Data).
	Size uint32
	Data []byte
	// Offset is the position of the chunk header in the source buffer.
	Offset int
	// Order is the chunk index in the source sequence.
	Order int
}

// New builds a chunk with Size set from the payload.
func New(tag uint32, attrs Attrs, data []byte) Chunk {
	return Chunk{Tag: tag, Attrs: attrs, Size: uint32(len(data)), Data: data}
}

func (c Chunk) Clone() Chunk {
	out := c
	out.Data = append([]byte(nil), c.Data...)

	return out
}

// Header is the decoded fixed-size chunk header.
type Header struct {
	Tag   uint32
	Attrs Attrs
	Size  uint32
}

// Layout describes how a container encodes its chunk headers.
type Layout interface {
	Name() string
	HeaderSize() int
	// Align is the payload alignment in bytes; 1 means no padding.
	Align() int
	ReadHeader(b []byte) Header
	PutHeader(b []byte, h Header)
	TagName(tag uint32) string
}

// HeaderChecker is implemented by layouts whose header fields are narrower
// than the Header values. CheckHeader reports a value that would not survive
// PutHeader.
type HeaderChecker interface {
	CheckHeader(h Header) error
}

// padding returns the number of zero bytes that follow a payload of size n.
func padding(layout Layout, n int) int {
	align := layout.Align()
	if align <= 1 {
		return 0
	}

	return AlignUp(n, align) - n
}
