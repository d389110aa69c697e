package chunk

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var errNoHandler = errors.New("no handler registered")

// Record is the typed decoding of a chunk payload. Records are values and
// are not modified after decoding.
type Record interface {
	Tag() uint32
	// Kind names the record type, e.g. "pwle_section".
	Kind() string
}

// Opaque keeps a chunk whose tag has no decoder.
type Opaque struct {
	Chunk Chunk
}

func (o Opaque) Tag() uint32  { return o.Chunk.Tag }
func (o Opaque) Kind() string { return "opaque" }

// Handler decodes and encodes the chunks of one tag.
type Handler interface {
	Tag() uint32
	Decode(c Chunk) (Record, error)
	Encode(r Record) (Chunk, error)
}

// Registry maps tags to handlers for one layout.
type Registry struct {
	layout   Layout
	handlers map[uint32]Handler
}

// NewRegistry creates a registry for layout with the given handlers.
func NewRegistry(layout Layout, handlers ...Handler) *Registry {
	r := &Registry{layout: layout, handlers: make(map[uint32]Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}

	return r
}

// MustRegistry is like NewRegistry but panics if one of the known tags has
// no handler. It is meant for package level registries.
func MustRegistry(layout Layout, known []uint32, handlers ...Handler) *Registry {
	r := NewRegistry(layout, handlers...)

	err := r.Validate(known...)
	if err != nil {
		panic(err)
	}

	return r
}

// Register adds a handler, replacing any previous handler for its tag.
func (r *Registry) Register(h Handler) {
	if r == nil || h == nil {
		return
	}

	r.handlers[h.Tag()] = h
}

// Lookup returns the handler for tag.
func (r *Registry) Lookup(tag uint32) (Handler, bool) {
	if r == nil {
		return nil, false
	}

	h, ok := r.handlers[tag]

	return h, ok
}

// Validate checks that every known tag has a handler.
func (r *Registry) Validate(known ...uint32) error {
	var missing []string

	for _, tag := range known {
		if _, ok := r.handlers[tag]; !ok {
			missing = append(missing, r.layout.TagName(tag))
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s registry: %w for %s", r.layout.Name(), errNoHandler, strings.Join(missing, ", "))
	}

	return nil
}

// Decode dispatches c to its handler. Unmapped tags become Opaque records
// unless strict is set, in which case an UnknownChunkTypeError is returned.
func (r *Registry) Decode(c Chunk, strict bool) (Record, error) {
	h, ok := r.Lookup(c.Tag)
	if !ok {
		if strict {
			return nil, &UnknownChunkTypeError{Layout: r.layout.Name(), Tag: r.layout.TagName(c.Tag), Offset: c.Offset}
		}

		return Opaque{Chunk: c.Clone()}, nil
	}

	rec, err := h.Decode(c)
	if err != nil {
		return nil, fmt.Errorf("%s chunk %s at offset %d: %w", r.layout.Name(), r.layout.TagName(c.Tag), c.Offset, err)
	}

	return rec, nil
}

// DecodeAll parses buf and decodes every chunk in order.
func (r *Registry) DecodeAll(buf []byte, strict bool) ([]Record, error) {
	return r.DecodeAt(buf, 0, strict)
}

// DecodeAt is DecodeAll for chunks starting at offset.
func (r *Registry) DecodeAt(buf []byte, offset int, strict bool) ([]Record, error) {
	p := NewParserAt(buf, r.layout, offset)

	var records []Record

	for {
		c, err := p.Next()
		if err != nil {
			if p.Err() == nil {
				return records, nil
			}

			return nil, err
		}

		rec, err := r.Decode(c, strict)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}
}

// Encode turns a record back into a chunk.
func (r *Registry) Encode(rec Record) (Chunk, error) {
	if o, ok := rec.(Opaque); ok {
		return o.Chunk.Clone(), nil
	}

	h, ok := r.Lookup(rec.Tag())
	if !ok {
		return Chunk{}, &UnknownChunkTypeError{Layout: r.layout.Name(), Tag: r.layout.TagName(rec.Tag())}
	}

	c, err := h.Encode(rec)
	if err != nil {
		return Chunk{}, fmt.Errorf("%s chunk %s: %w", r.layout.Name(), r.layout.TagName(rec.Tag()), err)
	}

	return c, nil
}

// EncodeAll writes records as consecutive chunks.
func (r *Registry) EncodeAll(w *Writer, records []Record) error {
	for _, rec := range records {
		c, err := r.Encode(rec)
		if err != nil {
			return err
		}

		err = w.WriteChunk(c)
		if err != nil {
			return err
		}
	}

	return nil
}
