package waveform

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/cirrusconv/chunk"
)

// FormBank is the RIFF form type of a waveform bank.
var FormBank = [4]byte{'H', 'A', 'P', 'T'}

var bankRegistry = chunk.MustRegistry(chunk.RIFF,
	[]uint32{TagWave, TagPWLE, TagPCM},
	headerHandler{}, sectionHandler{}, pcmHandler{},
)

// Bank is an ordered sequence of waveform headers, PWLE sections and PCM
// blocks. A header starts a waveform; the records up to the next header
// belong to it.
type Bank struct {
	Records []chunk.Record
}

func (b *Bank) Kind() string { return "bank" }

// Waveform is one named entry of a bank.
type Waveform struct {
	Name     string
	Repeat   uint32
	Sections []PWLESection
	PCM      []PCMBlock
	// Other keeps opaque chunks in bank order.
	Other []chunk.Opaque
}

// SectionCount returns the number of PWLE sections.
func (w Waveform) SectionCount() int {
	return len(w.Sections)
}

// SampleCount returns the number of PCM samples over all blocks.
func (w Waveform) SampleCount() int {
	n := 0
	for _, blk := range w.PCM {
		n += len(blk.Data)
	}

	return n
}

// ParseBank decodes a RIFF "HAPT" waveform bank.
func ParseBank(buf []byte, strict bool) (*Bank, error) {
	body, err := chunk.OpenForm(buf, FormBank)
	if err != nil {
		return nil, fmt.Errorf("failed to open waveform bank: %w", err)
	}

	// decode in place so record offsets are absolute
	const bodyStart = 12

	records, err := bankRegistry.DecodeAt(buf[:bodyStart+len(body)], bodyStart, strict)
	if err != nil {
		return nil, err
	}

	return &Bank{Records: records}, nil
}

// Encode serializes the bank as a RIFF "HAPT" form.
func (b *Bank) Encode() ([]byte, error) {
	var body bytes.Buffer

	err := bankRegistry.EncodeAll(chunk.NewWriter(&body, chunk.RIFF), b.Records)
	if err != nil {
		return nil, err
	}

	return chunk.WriteForm(FormBank, body.Bytes()), nil
}

// Waveforms groups the records by header. Records in front of the first
// header form an unnamed waveform called "wave0".
func (b *Bank) Waveforms() []Waveform {
	var out []Waveform

	current := func() *Waveform {
		if len(out) == 0 {
			out = append(out, Waveform{Name: fmt.Sprintf("wave%d", len(out))})
		}

		return &out[len(out)-1]
	}

	for _, rec := range b.Records {
		switch r := rec.(type) {
		case Header:
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("wave%d", len(out))
			}

			out = append(out, Waveform{Name: name, Repeat: r.Repeat})
		case PWLESection:
			w := current()
			w.Sections = append(w.Sections, r)
		case PCMBlock:
			w := current()
			w.PCM = append(w.PCM, r)
		case chunk.Opaque:
			w := current()
			w.Other = append(w.Other, r)
		}
	}

	return out
}

// SectionCount returns the number of PWLE sections in the bank.
func (b *Bank) SectionCount() int {
	n := 0
	for _, w := range b.Waveforms() {
		n += w.SectionCount()
	}

	return n
}

// SampleCount returns the number of PCM samples in the bank.
func (b *Bank) SampleCount() int {
	n := 0
	for _, w := range b.Waveforms() {
		n += w.SampleCount()
	}

	return n
}
