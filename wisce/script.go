package wisce

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/cirrusconv/chunk"
)

// FormScript is the RIFF form type of a binary script.
var FormScript = [4]byte{'W', 'S', 'C', 'R'}

var (
	// ErrSyntax is returned for a script line that matches no statement.
	ErrSyntax = errors.New("syntax error")

	scriptRegistry = chunk.MustRegistry(chunk.RIFF, []uint32{TagWrite, TagRMW, TagDelay}, handlers...)
)

// LineError locates a parse failure in a text script.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Script is an ordered list of register writes, read-modify-writes and
// delays.
type Script struct {
	Records []chunk.Record
}

func (s *Script) Kind() string { return "script" }

// Parse reads a WISCE text script. Each line holds one statement:
//
//	0x3000 0x1        register write
//	WRITE 0x3000 0x1  register write
//	RMW 0x3000 0xff 0x12
//	DELAY 10          (or WAIT 10), milliseconds
//
// Numbers are decimal or 0x prefixed hex and must fit in 32 bits. Text from
// "#", ";" or "//" to the end of the line is a comment.
func Parse(text []byte) (*Script, error) {
	s := &Script{}

	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 4096), len(text)+1)

	for n := 1; sc.Scan(); n++ {
		line := sc.Text()

		rec, err := parseLine(stripComment(line))
		if err != nil {
			return nil, &LineError{Line: n, Text: strings.TrimSpace(line), Err: err}
		}

		if rec != nil {
			s.Records = append(s.Records, rec)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return s, nil
}

func stripComment(line string) string {
	for _, marker := range []string{"#", ";", "//"} {
		if i := strings.Index(line, marker); i >= 0 {
			line = line[:i]
		}
	}

	return line
}

func parseLine(line string) (chunk.Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}

	keyword := strings.ToUpper(fields[0])

	switch keyword {
	case "WRITE", "RMW", "DELAY", "WAIT":
		fields = fields[1:]
	default:
		keyword = "WRITE"
	}

	want := map[string]int{"WRITE": 2, "RMW": 3, "DELAY": 1, "WAIT": 1}[keyword]
	if len(fields) != want {
		return nil, fmt.Errorf("%w: %s takes %d operands, got %d", ErrSyntax, keyword, want, len(fields))
	}

	vals := make([]uint32, len(fields))

	for i, f := range fields {
		v, err := parseNumber(f)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	switch keyword {
	case "WRITE":
		return RegisterWrite{Reg: vals[0], Value: vals[1]}, nil
	case "RMW":
		return ReadModifyWrite{Reg: vals[0], Mask: vals[1], Value: vals[2]}, nil
	default:
		return Delay{Ms: vals[0]}, nil
	}
}

func parseNumber(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, &chunk.FieldRangeError{Field: s, Value: math.MaxInt64, Min: 0, Max: math.MaxUint32}
		}

		return 0, fmt.Errorf("%w: bad number %q", ErrSyntax, s)
	}

	if v > math.MaxUint32 {
		return 0, &chunk.FieldRangeError{Field: s, Value: int64(min(v, math.MaxInt64)), Min: 0, Max: math.MaxUint32}
	}

	return uint32(v), nil
}

// Format renders the script in canonical text form. Opaque records from a
// binary script become comments.
func (s *Script) Format() []byte {
	var b bytes.Buffer

	for _, rec := range s.Records {
		switch r := rec.(type) {
		case RegisterWrite:
			fmt.Fprintf(&b, "0x%08X 0x%08X\n", r.Reg, r.Value)
		case ReadModifyWrite:
			fmt.Fprintf(&b, "RMW 0x%08X 0x%08X 0x%08X\n", r.Reg, r.Mask, r.Value)
		case Delay:
			fmt.Fprintf(&b, "DELAY %d\n", r.Ms)
		case chunk.Opaque:
			fmt.Fprintf(&b, "# skipped chunk %s (%d bytes)\n", chunk.RIFF.TagName(r.Tag()), len(r.Chunk.Data))
		}
	}

	return b.Bytes()
}

// ParseBinary decodes a RIFF "WSCR" script.
func ParseBinary(buf []byte, strict bool) (*Script, error) {
	body, err := chunk.OpenForm(buf, FormScript)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}

	const bodyStart = 12

	records, err := scriptRegistry.DecodeAt(buf[:bodyStart+len(body)], bodyStart, strict)
	if err != nil {
		return nil, err
	}

	return &Script{Records: records}, nil
}

// Encode serializes the script as a RIFF "WSCR" form.
func (s *Script) Encode() ([]byte, error) {
	var body bytes.Buffer

	err := scriptRegistry.EncodeAll(chunk.NewWriter(&body, chunk.RIFF), s.Records)
	if err != nil {
		return nil, err
	}

	return chunk.WriteForm(FormScript, body.Bytes()), nil
}

// WriteCount returns the number of register writes, read-modify-writes
// included.
func (s *Script) WriteCount() int {
	n := 0

	for _, rec := range s.Records {
		switch rec.(type) {
		case RegisterWrite, ReadModifyWrite:
			n++
		}
	}

	return n
}

// DelayMs returns the summed delay of the script.
func (s *Script) DelayMs() uint64 {
	var total uint64

	for _, rec := range s.Records {
		if d, ok := rec.(Delay); ok {
			total += uint64(d.Ms)
		}
	}

	return total
}
