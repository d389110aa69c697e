package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/go-audio/riff"
)

// RIFF is the layout of RIFF style chunks: FourCC tag, little endian size,
// payload padded to an even length.
var RIFF Layout = riffLayout{}

type riffLayout struct{}

func (riffLayout) Name() string    { return "RIFF" }
func (riffLayout) HeaderSize() int { return 8 }
func (riffLayout) Align() int      { return 2 }

func (riffLayout) ReadHeader(b []byte) Header {
	return Header{
		Tag:  binary.BigEndian.Uint32(b[0:4]),
		Size: binary.LittleEndian.Uint32(b[4:8]),
	}
}

func (riffLayout) PutHeader(b []byte, h Header) {
	binary.BigEndian.PutUint32(b[0:4], h.Tag)
	binary.LittleEndian.PutUint32(b[4:8], h.Size)
}

func (riffLayout) TagName(tag uint32) string {
	id := FourCCBytes(tag)
	for _, c := range id {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", tag)
		}
	}

	return strconv.Quote(string(id[:]))
}

// FourCC packs a four character code into a tag.
func FourCC(id [4]byte) uint32 {
	return binary.BigEndian.Uint32(id[:])
}

// FourCCBytes unpacks a tag into its four character code.
func FourCCBytes(tag uint32) [4]byte {
	var id [4]byte
	binary.BigEndian.PutUint32(id[:], tag)

	return id
}

// FormTag is the tag of the outer RIFF chunk.
var FormTag = FourCC(riff.RiffID)

// OpenForm checks the outer RIFF header of buf and returns the nested chunk
// area that follows the form type.
func OpenForm(buf []byte, form [4]byte) ([]byte, error) {
	p := NewParser(buf, RIFF)

	outer, err := p.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}

	if outer.Tag != FormTag {
		return nil, fmt.Errorf("%s - %w", RIFF.TagName(outer.Tag), riff.ErrFmtNotSupported)
	}

	if len(outer.Data) < 4 {
		return nil, &TruncatedInputError{What: "RIFF form type", Offset: 8, Declared: 4, Remaining: len(outer.Data)}
	}

	if !bytes.Equal(outer.Data[:4], form[:]) {
		return nil, fmt.Errorf("form %q - %w", outer.Data[:4], riff.ErrFmtNotSupported)
	}

	extra, err := p.Next()
	if err == nil {
		return nil, &MisalignedTrailingDataError{Offset: extra.Offset, Trailing: len(buf) - extra.Offset, HeaderSize: 8}
	}

	if err != io.EOF {
		return nil, err
	}

	return outer.Data[4:], nil
}

// WriteForm wraps body (already framed chunks) in a RIFF form.
func WriteForm(form [4]byte, body []byte) []byte {
	var buf bytes.Buffer

	w := NewWriter(&buf, RIFF)
	payload := make([]byte, 0, 4+len(body))
	payload = append(payload, form[:]...)
	payload = append(payload, body...)

	// bytes.Buffer writes cannot fail
	_ = w.WriteChunk(New(FormTag, Attrs{}, payload))

	return buf.Bytes()
}
