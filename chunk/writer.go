package chunk

import (
	"fmt"
	"io"
)

var zeroPad [8]byte

// Writer serializes chunks using a Layout.
type Writer struct {
	w      io.Writer
	layout Layout
	hdr    []byte

	written int
}

// NewWriter creates a chunk writer on top of w.
func NewWriter(w io.Writer, layout Layout) *Writer {
	return &Writer{w: w, layout: layout, hdr: make([]byte, layout.HeaderSize())}
}

// WriteChunk writes the chunk header, payload and alignment padding.
func (w *Writer) WriteChunk(c Chunk) error {
	if int(c.Size) != len(c.Data) {
		return &FieldRangeError{
			Field: w.layout.TagName(c.Tag) + " size",
			Value: int64(c.Size),
			Min:   int64(len(c.Data)),
			Max:   int64(len(c.Data)),
		}
	}

	if hc, ok := w.layout.(HeaderChecker); ok {
		if err := hc.CheckHeader(Header{Tag: c.Tag, Attrs: c.Attrs, Size: c.Size}); err != nil {
			return fmt.Errorf("%s chunk %s: %w", w.layout.Name(), w.layout.TagName(c.Tag), err)
		}
	}

	w.layout.PutHeader(w.hdr, Header{Tag: c.Tag, Attrs: c.Attrs, Size: c.Size})

	err := w.write(w.hdr)
	if err != nil {
		return fmt.Errorf("failed to write chunk header %s: %w", w.layout.TagName(c.Tag), err)
	}

	if len(c.Data) > 0 {
		err = w.write(c.Data)
		if err != nil {
			return fmt.Errorf("failed to write chunk payload %s: %w", w.layout.TagName(c.Tag), err)
		}
	}

	if pad := padding(w.layout, len(c.Data)); pad > 0 {
		err = w.write(zeroPad[:pad])
		if err != nil {
			return fmt.Errorf("failed to write chunk padding %s: %w", w.layout.TagName(c.Tag), err)
		}
	}

	return nil
}

// Write writes raw bytes (file headers) without chunk framing.
func (w *Writer) Write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	w.written += n

	return n, err
}

// Written returns the total number of bytes written.
func (w *Writer) Written() int {
	return w.written
}

func (w *Writer) write(b []byte) error {
	_, err := w.Write(b)
	return err
}
