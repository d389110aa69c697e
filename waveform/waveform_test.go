package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/cirrusconv/chunk"
)

func sampleBank() *Bank {
	return &Bank{Records: []chunk.Record{
		Header{Name: "click", Repeat: 2},
		PWLESection{Duration: 400, Level: 50, Frequency: 1360},
		PWLESection{Duration: 800, Level: 75, Chirp: true, Braking: true, HalfCycles: 3},
		Header{Name: "buzz"},
		PCMBlock{SampleRate: 8000, Data: []byte{0x00, 0x7f, 0x80, 0xff}},
	}}
}

func TestBankRoundTrip(t *testing.T) {
	bank := sampleBank()

	encoded, err := bank.Encode()
	require.NoError(t, err)

	assert.Equal(t, []byte("RIFF"), encoded[:4])
	assert.Equal(t, []byte("HAPT"), encoded[8:12])

	parsed, err := ParseBank(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, bank.Records, parsed.Records)

	again, err := parsed.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, again)
}

func TestSectionLayout(t *testing.T) {
	c, err := sectionHandler{}.Encode(PWLESection{Duration: 400, Level: -50, Frequency: 1360, Chirp: true, HalfCycles: 0x0102})
	require.NoError(t, err)

	want := []byte{
		0x90, 0x01, // 100 ms
		0xce,       // -50
		0x01,       // chirp
		0x50, 0x05, // 170 Hz
		0x02, 0x01,
		0x00, 0x00,
	}
	assert.Equal(t, want, c.Data)
}

func TestSectionFieldRange(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "level", data: []byte{1, 0, 101, 0, 0, 0, 0, 0, 0, 0}},
		{name: "negative level", data: []byte{1, 0, 0x9b, 0, 0, 0, 0, 0, 0, 0}},
		{name: "frequency", data: []byte{1, 0, 10, 0, 0x41, 0x1f, 0, 0, 0, 0}},
		{name: "flags", data: []byte{1, 0, 10, 4, 0, 0, 0, 0, 0, 0}},
		{name: "reserved", data: []byte{1, 0, 10, 0, 0, 0, 0, 0, 1, 0}},
		{name: "size", data: []byte{1, 0, 10, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sectionHandler{}.Decode(chunk.New(TagPWLE, chunk.Attrs{}, tt.data))
			assert.ErrorIs(t, err, chunk.ErrFieldRange)
		})
	}

	_, err := sectionHandler{}.Encode(PWLESection{Level: 120})
	assert.ErrorIs(t, err, chunk.ErrFieldRange)
}

func TestPCMSampleCountMismatch(t *testing.T) {
	var b chunk.Builder
	b.U32LE(8000)
	b.U32LE(5)
	b.Bytes([]byte{1, 2, 3, 4})

	_, err := pcmHandler{}.Decode(chunk.New(TagPCM, chunk.Attrs{}, b.Data()))
	assert.ErrorIs(t, err, chunk.ErrFieldRange)
}

func TestBankUnknownChunk(t *testing.T) {
	bank := sampleBank()
	tag := chunk.FourCC([4]byte{'n', 'o', 't', 'e'})
	bank.Records = append(bank.Records, chunk.Opaque{Chunk: chunk.New(tag, chunk.Attrs{}, []byte("hi!"))})

	encoded, err := bank.Encode()
	require.NoError(t, err)

	parsed, err := ParseBank(encoded, false)
	require.NoError(t, err)

	opaque, ok := parsed.Records[len(parsed.Records)-1].(chunk.Opaque)
	require.True(t, ok)
	assert.Equal(t, []byte("hi!"), opaque.Chunk.Data)

	waves := parsed.Waveforms()
	require.Len(t, waves, 2)
	assert.Len(t, waves[1].Other, 1)

	_, err = ParseBank(encoded, true)
	assert.ErrorIs(t, err, chunk.ErrUnknownChunkType)
}

func TestBankTruncated(t *testing.T) {
	bank := &Bank{Records: []chunk.Record{
		Header{Name: "a"},
		PCMBlock{SampleRate: 8000, Data: []byte{1, 2, 3, 4}},
	}}

	encoded, err := bank.Encode()
	require.NoError(t, err)

	// keep the outer size consistent so the nested chunk is what is short
	short := append([]byte(nil), encoded[:len(encoded)-1]...)
	short[4]--

	_, err = ParseBank(short, false)
	assert.ErrorIs(t, err, chunk.ErrTruncatedInput)

	_, err = ParseBank(encoded[:len(encoded)-1], false)
	assert.ErrorIs(t, err, chunk.ErrTruncatedInput)
}

func TestBankWrongForm(t *testing.T) {
	_, err := ParseBank(chunk.WriteForm([4]byte{'W', 'A', 'V', 'E'}, nil), false)
	assert.Error(t, err)
}

func TestWaveforms(t *testing.T) {
	bank := sampleBank()
	bank.Records = append([]chunk.Record{PWLESection{Duration: 4, Level: 1}}, bank.Records...)

	waves := bank.Waveforms()
	require.Len(t, waves, 3)

	assert.Equal(t, "wave0", waves[0].Name)
	assert.Equal(t, 1, waves[0].SectionCount())
	assert.Equal(t, "click", waves[1].Name)
	assert.Equal(t, uint32(2), waves[1].Repeat)
	assert.Equal(t, 2, waves[1].SectionCount())
	assert.Equal(t, 4, waves[2].SampleCount())

	assert.Equal(t, 3, bank.SectionCount())
	assert.Equal(t, 4, bank.SampleCount())
}

func TestLoadJSON(t *testing.T) {
	src := `{"waveforms": [
		{"name": "click", "pwle": [
			{"duration_ms": 100, "level": 50},
			{"duration_ms": 200, "level": 75, "frequency_hz": 170.125, "chirp": true}
		]},
		{"name": "buzz", "repeat": 1, "pcm": [{"sample_rate": 8000, "samples": [0, 127, -128, -1]}]}
	]}`

	bank, err := LoadJSON([]byte(src))
	require.NoError(t, err)

	want := []chunk.Record{
		Header{Name: "click"},
		PWLESection{Duration: 400, Level: 50},
		PWLESection{Duration: 800, Level: 75, Frequency: 1361, Chirp: true},
		Header{Name: "buzz", Repeat: 1},
		PCMBlock{SampleRate: 8000, Data: []byte{0x00, 0x7f, 0x80, 0xff}},
	}
	assert.Equal(t, want, bank.Records)
}

func TestLoadJSONSingleWaveform(t *testing.T) {
	bank, err := LoadJSON([]byte(`{"name": "tap", "pwle_string": "T0:10 L0:-20"}`))
	require.NoError(t, err)

	assert.Equal(t, []chunk.Record{
		Header{Name: "tap"},
		PWLESection{Duration: 40, Level: -20},
	}, bank.Records)
}

func TestLoadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{name: "empty", src: `{}`, err: ErrEmptySource},
		{name: "level", src: `{"name": "x", "pwle": [{"duration_ms": 1, "level": 101}]}`, err: chunk.ErrFieldRange},
		{name: "frequency", src: `{"name": "x", "pwle": [{"duration_ms": 1, "frequency_hz": 1000.5}]}`, err: chunk.ErrFieldRange},
		{name: "duration", src: `{"name": "x", "pwle": [{"duration_ms": 20000}]}`, err: chunk.ErrFieldRange},
		{name: "sample", src: `{"name": "x", "pcm": [{"samples": [128]}]}`, err: chunk.ErrFieldRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON([]byte(tt.src))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := LoadJSON([]byte(`{"name": "x", "volume": 3}`))
	assert.Error(t, err)
}

func TestParsePWLE(t *testing.T) {
	bank, err := ParsePWLE("RP:3, T1:200 L1:75 F1:0 T0:100 L0:50 F0:170 C0:1 B0:1 H0:4", "fx")
	require.NoError(t, err)

	want := []chunk.Record{
		Header{Name: "fx", Repeat: 3},
		PWLESection{Duration: 400, Level: 50, Frequency: 1360, Chirp: true, Braking: true, HalfCycles: 4},
		PWLESection{Duration: 800, Level: 75},
	}
	assert.Equal(t, want, bank.Records)

	again, err := ParsePWLE(FormatPWLE(bank.Waveforms()[0]), "fx")
	require.NoError(t, err)
	assert.Equal(t, bank.Records, again.Records)
}

func TestParsePWLEErrors(t *testing.T) {
	for _, s := range []string{"", "T0", "X0:1", "T:1", "T0:abc", "T0:1 T2:1", "RP:-1"} {
		_, err := ParsePWLE(s, "x")
		assert.Error(t, err, s)
	}

	_, err := ParsePWLE("T0:1 L0:-101", "x")
	assert.ErrorIs(t, err, chunk.ErrFieldRange)
}

type mislabeledRecord struct{ tag uint32 }

func (r mislabeledRecord) Tag() uint32  { return r.tag }
func (r mislabeledRecord) Kind() string { return "mislabeled" }

func TestEncodeMismatchedRecord(t *testing.T) {
	for _, tag := range []uint32{TagWave, TagPWLE, TagPCM} {
		bank := &Bank{Records: []chunk.Record{Header{Name: "x"}, mislabeledRecord{tag: tag}}}

		_, err := bank.Encode()
		assert.ErrorIs(t, err, chunk.ErrRecordType)
	}
}

func TestEncodePWLE(t *testing.T) {
	out, err := sampleBank().EncodePWLE()
	assert.ErrorIs(t, err, ErrNotPWLE)
	assert.Nil(t, out)

	bank := &Bank{Records: sampleBank().Records[:3]}
	out, err = bank.EncodePWLE()
	require.NoError(t, err)
	assert.Equal(t, "RP:2 T0:100 L0:50 F0:170 C0:0 B0:0 H0:0 T1:200 L1:75 F1:0 C1:1 B1:1 H1:3\n", string(out))

	again, err := ParsePWLE(string(out), "click")
	require.NoError(t, err)
	assert.Equal(t, bank.Records, again.Records)
}
