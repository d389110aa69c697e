package chunk

import (
	"io"
)

// Parser walks a buffer of consecutive chunks. It is lazy and cannot be
// rewound; create a new Parser to read the buffer again.
type Parser struct {
	buf    []byte
	layout Layout
	pos    int
	order  int
	err    error
}

// NewParser creates a parser over buf. The buffer is not copied.
func NewParser(buf []byte, layout Layout) *Parser {
	return &Parser{buf: buf, layout: layout}
}

// NewParserAt creates a parser whose first chunk starts at offset. Bytes in
// front of offset (a file header) count as consumed.
func NewParserAt(buf []byte, layout Layout, offset int) *Parser {
	return &Parser{buf: buf, layout: layout, pos: min(max(offset, 0), len(buf))}
}

// Next returns the next chunk. It returns io.EOF once the cursor sits exactly
// at the end of the buffer. Any other error is sticky.
func (p *Parser) Next() (Chunk, error) {
	if p.err != nil {
		return Chunk{}, p.err
	}

	remaining := len(p.buf) - p.pos
	if remaining == 0 {
		p.err = io.EOF
		return Chunk{}, p.err
	}

	hdrSize := p.layout.HeaderSize()
	if remaining < hdrSize {
		p.err = &MisalignedTrailingDataError{Offset: p.pos, Trailing: remaining, HeaderSize: hdrSize}
		return Chunk{}, p.err
	}

	hdr := p.layout.ReadHeader(p.buf[p.pos : p.pos+hdrSize])

	start := p.pos + hdrSize
	if uint64(hdr.Size) > uint64(len(p.buf)-start) {
		p.err = &TruncatedInputError{
			What:      p.layout.Name() + " chunk " + p.layout.TagName(hdr.Tag),
			Offset:    p.pos,
			Declared:  int(hdr.Size),
			Remaining: len(p.buf) - start,
		}

		return Chunk{}, p.err
	}

	end := start + int(hdr.Size)

	c := Chunk{
		Tag:    hdr.Tag,
		Attrs:  hdr.Attrs,
		Size:   hdr.Size,
		Data:   p.buf[start:end:end],
		Offset: p.pos,
		Order:  p.order,
	}

	// a missing pad after the final chunk is accepted
	p.pos = min(end+padding(p.layout, int(hdr.Size)), len(p.buf))
	p.order++

	return c, nil
}

// Consumed returns the number of bytes read so far, padding included.
func (p *Parser) Consumed() int {
	return p.pos
}

// Err returns the first non-EOF error encountered by the parser.
func (p *Parser) Err() error {
	if p.err == io.EOF {
		return nil
	}

	return p.err
}

// ParseAll reads every chunk in buf.
func ParseAll(buf []byte, layout Layout) ([]Chunk, error) {
	p := NewParser(buf, layout)

	var chunks []Chunk

	for {
		c, err := p.Next()
		if err == io.EOF {
			return chunks, nil
		}

		if err != nil {
			return nil, err
		}

		chunks = append(chunks, c)
	}
}
