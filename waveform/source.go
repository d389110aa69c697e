package waveform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/cirrusconv/chunk"
)

var (
	// ErrEmptySource is returned when a description contains no waveform.
	ErrEmptySource = errors.New("no waveform in description")

	errBadToken = errors.New("malformed PWLE token")
	// ErrNotPWLE is returned when a waveform has content a PWLE string
	// cannot carry.
	ErrNotPWLE = errors.New("waveform is not pure PWLE")
)

// NewSection builds a PWLE section from physical units. Duration and
// frequency are rounded to the nearest step; values outside the field
// bounds fail with a FieldRangeError.
func NewSection(durationMs, level, frequencyHz float64, chirp, braking bool, halfCycles int) (PWLESection, error) {
	d := int64(math.Round(durationMs * DurationStepsPerMs))
	if err := chunk.CheckRange("pwle duration", d, 0, math.MaxUint16); err != nil {
		return PWLESection{}, err
	}

	l := int64(math.Round(level))
	if err := chunk.CheckRange("pwle level", l, MinLevel, MaxLevel); err != nil {
		return PWLESection{}, err
	}

	f := int64(math.Round(frequencyHz * FrequencyStepsPerHz))
	if err := chunk.CheckRange("pwle frequency", f, 0, MaxFrequencyHz*FrequencyStepsPerHz); err != nil {
		return PWLESection{}, err
	}

	if err := chunk.CheckRange("pwle half cycles", halfCycles, 0, math.MaxUint16); err != nil {
		return PWLESection{}, err
	}

	return PWLESection{
		Duration:   uint16(d),
		Level:      int8(l),
		Frequency:  uint16(f),
		Chirp:      chirp,
		Braking:    braking,
		HalfCycles: uint16(halfCycles),
	}, nil
}

type jsonSection struct {
	DurationMs  float64 `json:"duration_ms"`
	Level       float64 `json:"level"`
	FrequencyHz float64 `json:"frequency_hz"`
	Chirp       bool    `json:"chirp"`
	Braking     bool    `json:"braking"`
	HalfCycles  int     `json:"half_cycles"`
}

type jsonPCM struct {
	SampleRate uint32 `json:"sample_rate"`
	Samples    []int  `json:"samples"`
}

type jsonWaveform struct {
	Name   string        `json:"name"`
	Repeat uint32        `json:"repeat"`
	PWLE   []jsonSection `json:"pwle"`
	// PWLEString is an alternative to PWLE in the ParsePWLE syntax.
	PWLEString string    `json:"pwle_string"`
	PCM        []jsonPCM `json:"pcm"`
}

// jsonBank accepts either a list of waveforms or a single waveform object.
type jsonBank struct {
	Waveforms []jsonWaveform `json:"waveforms"`
	jsonWaveform
}

// LoadJSON reads a JSON waveform description:
//
//	{"waveforms": [{"name": "click", "repeat": 0,
//	  "pwle": [{"duration_ms": 100, "level": 50, "frequency_hz": 170}],
//	  "pcm": [{"sample_rate": 8000, "samples": [0, 127, -128, -1]}]}]}
//
// A single waveform object without the "waveforms" list is accepted too.
// Unknown keys are rejected.
func LoadJSON(buf []byte) (*Bank, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()

	var doc jsonBank
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode waveform JSON: %w", err)
	}

	waves := doc.Waveforms
	if len(waves) == 0 {
		single := doc.jsonWaveform
		if single.Name == "" && len(single.PWLE) == 0 && single.PWLEString == "" && len(single.PCM) == 0 {
			return nil, ErrEmptySource
		}

		waves = []jsonWaveform{single}
	}

	bank := &Bank{}

	for i, w := range waves {
		records, err := w.records(i)
		if err != nil {
			return nil, fmt.Errorf("waveform %d: %w", i, err)
		}

		bank.Records = append(bank.Records, records...)
	}

	return bank, nil
}

func (w jsonWaveform) records(index int) ([]chunk.Record, error) {
	name := w.Name
	if name == "" {
		name = fmt.Sprintf("wave%d", index)
	}

	records := []chunk.Record{Header{Name: name, Repeat: w.Repeat}}

	for i, s := range w.PWLE {
		sec, err := NewSection(s.DurationMs, s.Level, s.FrequencyHz, s.Chirp, s.Braking, s.HalfCycles)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}

		records = append(records, sec)
	}

	if w.PWLEString != "" {
		parsed, err := ParsePWLE(w.PWLEString, name)
		if err != nil {
			return nil, err
		}

		// the header of the parsed string is replaced by ours
		records = append(records, parsed.Records[1:]...)
	}

	for i, p := range w.PCM {
		data := make([]byte, len(p.Samples))

		for j, v := range p.Samples {
			if err := chunk.CheckRange(fmt.Sprintf("pcm %d sample %d", i, j), v, math.MinInt8, math.MaxInt8); err != nil {
				return nil, err
			}

			data[j] = byte(int8(v))
		}

		records = append(records, PCMBlock{SampleRate: p.SampleRate, Data: data})
	}

	return records, nil
}

type pendingSection struct {
	durationMs, level, frequencyHz float64
	chirp, braking                 bool
	halfCycles                     int
}

// ParsePWLE reads a PWLE string such as
//
//	RP:2 T0:100 L0:50 F0:170 C0:0 B0:0 H0:0 T1:200 L1:75
//
// T is the duration in ms, L the level in percent, F the frequency in Hz
// (0 for resonant), C the chirp flag, B the braking flag and H the half
// cycle count; the digits after the letter number the section. RP sets the
// repeat count. Tokens are separated by blanks or commas. Sections are
// emitted in index order and missing indices are an error.
func ParsePWLE(s, name string) (*Bank, error) {
	var (
		repeat   uint32
		sections = map[int]*pendingSection{}
	)

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	for _, tok := range fields {
		key, val, ok := strings.Cut(tok, ":")
		if !ok || key == "" || val == "" {
			return nil, fmt.Errorf("%w: %q", errBadToken, tok)
		}

		key = strings.ToUpper(key)

		if key == "RP" {
			n, err := strconv.ParseUint(val, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", errBadToken, tok, err)
			}

			repeat = uint32(n)

			continue
		}

		idx, err := strconv.Atoi(key[1:])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q", errBadToken, tok)
		}

		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", errBadToken, tok, err)
		}

		sec := sections[idx]
		if sec == nil {
			sec = &pendingSection{}
			sections[idx] = sec
		}

		switch key[0] {
		case 'T':
			sec.durationMs = v
		case 'L':
			sec.level = v
		case 'F':
			sec.frequencyHz = v
		case 'C':
			sec.chirp = v != 0
		case 'B':
			sec.braking = v != 0
		case 'H':
			sec.halfCycles = int(v)
		default:
			return nil, fmt.Errorf("%w: %q", errBadToken, tok)
		}
	}

	if len(sections) == 0 {
		return nil, ErrEmptySource
	}

	bank := &Bank{Records: []chunk.Record{Header{Name: name, Repeat: repeat}}}

	for i := 0; i < len(sections); i++ {
		p, ok := sections[i]
		if !ok {
			return nil, fmt.Errorf("%w: section %d missing", errBadToken, i)
		}

		sec, err := NewSection(p.durationMs, p.level, p.frequencyHz, p.chirp, p.braking, p.halfCycles)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}

		bank.Records = append(bank.Records, sec)
	}

	return bank, nil
}

// FormatPWLE renders the sections of w in the ParsePWLE syntax.
func FormatPWLE(w Waveform) string {
	parts := []string{"RP:" + strconv.FormatUint(uint64(w.Repeat), 10)}

	for i, s := range w.Sections {
		parts = append(parts,
			fmt.Sprintf("T%d:%s", i, strconv.FormatFloat(s.DurationMs(), 'f', -1, 64)),
			fmt.Sprintf("L%d:%d", i, s.Level),
			fmt.Sprintf("F%d:%s", i, strconv.FormatFloat(s.FrequencyHz(), 'f', -1, 64)),
			fmt.Sprintf("C%d:%d", i, boolInt(s.Chirp)),
			fmt.Sprintf("B%d:%d", i, boolInt(s.Braking)),
			fmt.Sprintf("H%d:%d", i, s.HalfCycles),
		)
	}

	return strings.Join(parts, " ")
}

// EncodePWLE writes one FormatPWLE line per waveform, in bank order. Each
// line parses back with ParsePWLE. Waveforms holding PCM blocks or opaque
// chunks, or no sections at all, are rejected.
func (b *Bank) EncodePWLE() ([]byte, error) {
	var out strings.Builder

	for _, w := range b.Waveforms() {
		if len(w.Sections) == 0 || len(w.PCM) > 0 || len(w.Other) > 0 {
			return nil, fmt.Errorf("%w: %q has %d sections, %d pcm blocks, %d other chunks",
				ErrNotPWLE, w.Name, len(w.Sections), len(w.PCM), len(w.Other))
		}

		out.WriteString(FormatPWLE(w))
		out.WriteByte('\n')
	}

	if out.Len() == 0 {
		return nil, ErrEmptySource
	}

	return []byte(out.String()), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
