package waveform

import (
	"fmt"
	"math"

	"github.com/cwbudde/cirrusconv/chunk"
)

var (
	// TagWave starts a waveform: repeat count and name.
	TagWave = chunk.FourCC([4]byte{'w', 'a', 'v', 'e'})
	// TagPWLE holds one PWLE section.
	TagPWLE = chunk.FourCC([4]byte{'p', 'w', 'l', 'e'})
	// TagPCM holds one block of signed 8-bit samples.
	TagPCM = chunk.FourCC([4]byte{'p', 'c', 'm', ' '})
)

// Section field limits.
const (
	DurationStepsPerMs  = 4
	FrequencyStepsPerHz = 8
	MaxDurationMs       = math.MaxUint16 / DurationStepsPerMs
	MinLevel            = -100
	MaxLevel            = 100
	MaxFrequencyHz      = 1000
	sectionSize         = 10
)

const (
	flagChirp = 1 << iota
	flagBraking
)

// Header starts a waveform in a bank.
type Header struct {
	Name   string
	Repeat uint32
}

func (Header) Tag() uint32  { return TagWave }
func (Header) Kind() string { return "wave" }

// PWLESection is one piecewise linear envelope section.
type PWLESection struct {
	// Duration in quarter milliseconds.
	Duration uint16
	// Level in percent of full scale, -100..100.
	Level int8
	// Frequency in eighths of a hertz; 0 plays at the resonant frequency.
	Frequency  uint16
	Chirp      bool
	Braking    bool
	HalfCycles uint16
}

func (PWLESection) Tag() uint32  { return TagPWLE }
func (PWLESection) Kind() string { return "pwle_section" }

// DurationMs returns the section duration in milliseconds.
func (s PWLESection) DurationMs() float64 {
	return float64(s.Duration) / DurationStepsPerMs
}

// FrequencyHz returns the section frequency in hertz.
func (s PWLESection) FrequencyHz() float64 {
	return float64(s.Frequency) / FrequencyStepsPerHz
}

// Validate checks the section against the documented field bounds.
func (s PWLESection) Validate() error {
	if err := chunk.CheckRange("pwle level", int(s.Level), MinLevel, MaxLevel); err != nil {
		return err
	}

	return chunk.CheckRange("pwle frequency", int(s.Frequency), 0, MaxFrequencyHz*FrequencyStepsPerHz)
}

// PCMBlock is a run of signed 8-bit samples.
type PCMBlock struct {
	SampleRate uint32
	// Data holds the samples as two's complement bytes.
	Data []byte
}

func (PCMBlock) Tag() uint32  { return TagPCM }
func (PCMBlock) Kind() string { return "pcm_block" }

// Samples returns the block as signed values.
func (b PCMBlock) Samples() []int8 {
	out := make([]int8, len(b.Data))
	for i, v := range b.Data {
		out[i] = int8(v)
	}

	return out
}

type headerHandler struct{}

func (headerHandler) Tag() uint32 { return TagWave }

func (headerHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	f := chunk.NewFields(c.Data, c.Offset+chunk.RIFF.HeaderSize())
	h := Header{Repeat: f.U32LE("repeat")}
	h.Name = string(f.Rest())

	return h, f.Err()
}

func (headerHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	h, ok := r.(Header)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: wave header handler got %s record", chunk.ErrRecordType, r.Kind())
	}

	var b chunk.Builder
	b.U32LE(h.Repeat)
	b.Bytes([]byte(h.Name))

	return chunk.New(TagWave, chunk.Attrs{}, b.Data()), nil
}

type sectionHandler struct{}

func (sectionHandler) Tag() uint32 { return TagPWLE }

func (sectionHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	if err := chunk.CheckRange("pwle section size", len(c.Data), sectionSize, sectionSize); err != nil {
		return nil, err
	}

	f := chunk.NewFields(c.Data, c.Offset+chunk.RIFF.HeaderSize())

	var s PWLESection
	s.Duration = f.U16LE("duration")
	s.Level = f.I8("level")
	flags := f.U8("flags")
	s.Frequency = f.U16LE("frequency")
	s.HalfCycles = f.U16LE("half cycles")
	reserved := f.U16LE("reserved")

	if err := f.Err(); err != nil {
		return nil, err
	}

	if err := chunk.CheckRange("pwle flags", int(flags), 0, flagChirp|flagBraking); err != nil {
		return nil, err
	}

	if err := chunk.CheckRange("pwle reserved", int(reserved), 0, 0); err != nil {
		return nil, err
	}

	s.Chirp = flags&flagChirp != 0
	s.Braking = flags&flagBraking != 0

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (sectionHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	s, ok := r.(PWLESection)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: pwle section handler got %s record", chunk.ErrRecordType, r.Kind())
	}

	if err := s.Validate(); err != nil {
		return chunk.Chunk{}, err
	}

	var flags uint8
	if s.Chirp {
		flags |= flagChirp
	}

	if s.Braking {
		flags |= flagBraking
	}

	var b chunk.Builder
	b.U16LE(s.Duration)
	b.I8(s.Level)
	b.U8(flags)
	b.U16LE(s.Frequency)
	b.U16LE(s.HalfCycles)
	b.U16LE(0)

	return chunk.New(TagPWLE, chunk.Attrs{}, b.Data()), nil
}

type pcmHandler struct{}

func (pcmHandler) Tag() uint32 { return TagPCM }

func (pcmHandler) Decode(c chunk.Chunk) (chunk.Record, error) {
	f := chunk.NewFields(c.Data, c.Offset+chunk.RIFF.HeaderSize())
	rate := f.U32LE("sample rate")
	count := f.U32LE("sample count")

	if err := f.Err(); err != nil {
		return nil, err
	}

	if err := chunk.CheckRange("pcm sample count", int64(count), int64(f.Len()), int64(f.Len())); err != nil {
		return nil, err
	}

	return PCMBlock{SampleRate: rate, Data: f.Rest()}, nil
}

func (pcmHandler) Encode(r chunk.Record) (chunk.Chunk, error) {
	blk, ok := r.(PCMBlock)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: pcm handler got %s record", chunk.ErrRecordType, r.Kind())
	}

	var b chunk.Builder
	b.U32LE(blk.SampleRate)
	b.U32LE(uint32(len(blk.Data)))
	b.Bytes(blk.Data)

	return chunk.New(TagPCM, chunk.Attrs{}, b.Data()), nil
}
