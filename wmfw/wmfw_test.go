package wmfw

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/cirrusconv/chunk"
)

func sampleFirmware(version uint8) *Firmware {
	return &Firmware{
		Header: FirmwareHeader{
			APIRevision: 0x0102,
			Core:        CoreHalo,
			Version:     version,
			Sizes:       []uint32{0x1000, 0x2000, 0x3000, 0x4000},
			Timestamp:   0x0102030405060708,
			Checksum:    0xdeadbeef,
		},
		Records: []chunk.Record{
			Text{Type: TypeInfoText, Text: "haptics firmware"},
			Algorithm{
				ID:          0x1f0000,
				Name:        "VIBEGEN",
				Description: "waveform playback",
				Coefficients: []Coefficient{
					{Offset: 4, MemType: TypeHaloXM, Name: "GAIN", FullName: "VIBEGEN GAIN", Description: "output gain", CtlType: 0x1000, Flags: 0x3, Length: 4},
					{Offset: 8, MemType: TypeHaloYM, Name: "ENABLE", Length: 4},
				},
			},
			MemoryRegion{Type: TypeHaloXM, Attrs: chunk.Attrs{Offset: 0x2800}, Data: []byte{1, 2, 3, 4, 5, 6}},
			MemoryRegion{Type: TypeHaloPM, Attrs: chunk.Attrs{Offset: 0x10}, Data: []byte{9, 8, 7}},
		},
	}
}

func TestFirmwareRoundTrip(t *testing.T) {
	for _, version := range []uint8{2, 3} {
		fw := sampleFirmware(version)

		encoded, err := fw.Encode()
		require.NoError(t, err)

		parsed, err := ParseFirmware(encoded, true)
		require.NoError(t, err)

		if version < firstStringFormat {
			// fixed layout has no full name field
			alg := fw.Records[1].(Algorithm)
			alg.Coefficients[0].FullName = ""
		}

		assert.Equal(t, fw.Header, parsed.Header, "version %d", version)
		assert.Equal(t, fw.Records, parsed.Records, "version %d", version)

		again, err := parsed.Encode()
		require.NoError(t, err)
		assert.Equal(t, encoded, again, "version %d", version)
	}
}

func TestFirmwareHeaderLayout(t *testing.T) {
	encoded, err := sampleFirmware(3).Encode()
	require.NoError(t, err)

	assert.Equal(t, []byte("WMFW"), encoded[:4])
	// 12 fixed + 4 size words + 12 footer
	assert.Equal(t, []byte{40, 0, 0, 0}, encoded[4:8])
	// first region: info text with type in the top byte
	assert.Equal(t, []byte{0, 0, 0, TypeInfoText}, encoded[40:44])
}

func TestFirmwareUnknownRegionIsKept(t *testing.T) {
	fw := sampleFirmware(3)
	fw.Records = append(fw.Records, chunk.Opaque{Chunk: chunk.New(0x77, chunk.Attrs{Offset: 0x1234}, []byte{0xaa, 0xbb})})

	encoded, err := fw.Encode()
	require.NoError(t, err)

	parsed, err := ParseFirmware(encoded, false)
	require.NoError(t, err)

	opaque, ok := parsed.Records[len(parsed.Records)-1].(chunk.Opaque)
	require.True(t, ok)
	assert.Equal(t, uint32(0x77), opaque.Tag())
	assert.Equal(t, uint32(0x1234), opaque.Chunk.Attrs.Offset)
	assert.Equal(t, []byte{0xaa, 0xbb}, opaque.Chunk.Data)

	_, err = ParseFirmware(encoded, true)
	assert.ErrorIs(t, err, chunk.ErrUnknownChunkType)
}

func TestFirmwareTruncatedRegion(t *testing.T) {
	encoded, err := sampleFirmware(2).Encode()
	require.NoError(t, err)

	_, err = ParseFirmware(encoded[:len(encoded)-1], false)
	assert.ErrorIs(t, err, chunk.ErrTruncatedInput)
}

func TestFirmwareTrailingBytes(t *testing.T) {
	encoded, err := sampleFirmware(2).Encode()
	require.NoError(t, err)

	_, err = ParseFirmware(append(encoded, 0, 0, 0), false)
	assert.ErrorIs(t, err, chunk.ErrMisalignedTrailingData)
}

func TestFirmwareBadHeader(t *testing.T) {
	_, err := ParseFirmware([]byte("WMFX0000000000000000000000000000"), false)
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = ParseFirmware([]byte("WMFW"), false)
	assert.ErrorIs(t, err, chunk.ErrTruncatedInput)

	encoded, err := sampleFirmware(2).Encode()
	require.NoError(t, err)

	// header length pointing past the end of the file
	encoded[4] = 0xff
	encoded[5] = 0xff
	_, err = ParseFirmware(encoded, false)
	assert.ErrorIs(t, err, chunk.ErrFieldRange)
}

func TestAlgorithmCoefficientCountRange(t *testing.T) {
	var b chunk.Builder
	b.U32LE(1)
	require.NoError(t, putAlignedString(&b, "name", "ALG", 1))
	require.NoError(t, putAlignedString(&b, "description", "", 2))
	b.U32LE(1000)

	h := algorithmHandler{version: 3}
	_, err := h.Decode(chunk.New(TypeAlgorithm, chunk.Attrs{}, b.Data()))
	assert.ErrorIs(t, err, chunk.ErrFieldRange)
}

func TestAlignedStrings(t *testing.T) {
	var b chunk.Builder
	require.NoError(t, putAlignedString(&b, "a", "ABC", 1))
	require.NoError(t, putAlignedString(&b, "b", "ABCD", 2))
	require.NoError(t, putAlignedString(&b, "c", "", 1))

	// 1+3 | 2+4+2 pad | 1+3 pad
	assert.Equal(t, 16, b.Len())

	f := chunk.NewFields(b.Data(), 0)
	assert.Equal(t, "ABC", alignedString(f, "a", 1))
	assert.Equal(t, "ABCD", alignedString(f, "b", 2))
	assert.Equal(t, "", alignedString(f, "c", 1))
	require.NoError(t, f.Err())
	assert.Zero(t, f.Len())
}

func fixedString(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)

	return out
}

func TestFixedAlgorithmBlock(t *testing.T) {
	var b chunk.Builder
	b.U32LE(0x1f0000)
	b.Bytes(fixedString("VIBEGEN", 256))
	b.Bytes(fixedString("waveform playback", 256))
	b.U32LE(1)

	// 8 byte header, then 64 name + 256 description + ctl + flags + length
	b.U16LE(4)
	b.U16LE(TypeHaloXM)
	b.U32LE(328)
	b.Bytes(fixedString("GAIN", 64))
	b.Bytes(fixedString("output gain", 256))
	b.U16LE(0x1000)
	b.U16LE(0x3)
	b.U32LE(4)

	h := algorithmHandler{version: 2}

	rec, err := h.Decode(chunk.New(TypeAlgorithm, chunk.Attrs{Offset: 0x10}, b.Data()))
	require.NoError(t, err)

	want := Algorithm{
		Offset:      0x10,
		ID:          0x1f0000,
		Name:        "VIBEGEN",
		Description: "waveform playback",
		Coefficients: []Coefficient{
			{Offset: 4, MemType: TypeHaloXM, Name: "GAIN", Description: "output gain", CtlType: 0x1000, Flags: 0x3, Length: 4},
		},
	}
	assert.Equal(t, want, rec)

	c, err := h.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, b.Data(), c.Data)
}

func TestSlottedCoefficientHeader(t *testing.T) {
	want := []byte{
		1, 0, 0, 0, // algorithm id
		1, 'A', 0, 0, // name
		0, 0, 0, 0, // description
		1, 0, 0, 0, // coefficient count
		4, 0, 0, 0, // offset
		TypeHaloXM, 0, 0, 0, // type
		28, 0, 0, 0, // size, counted from the end of the type slot
		1, 'G', 0, 0, // name
		0, 0, 0, 0, // full name
		0, 0, 0, 0, // description
		0, 0x10, 0, 0, // control type
		0, 0, 0, 0, // flags
		4, 0, 0, 0, // length
	}

	alg := Algorithm{ID: 1, Name: "A", Coefficients: []Coefficient{
		{Offset: 4, MemType: TypeHaloXM, Name: "G", CtlType: 0x1000, Length: 4},
	}}

	h := algorithmHandler{version: 3}

	c, err := h.Encode(alg)
	require.NoError(t, err)
	assert.Equal(t, want, c.Data)

	rec, err := h.Decode(chunk.New(TypeAlgorithm, chunk.Attrs{}, want))
	require.NoError(t, err)
	assert.Equal(t, alg, rec)

	short := append([]byte(nil), want...)
	short[24] = 3
	_, err = h.Decode(chunk.New(TypeAlgorithm, chunk.Attrs{}, short))
	assert.ErrorIs(t, err, chunk.ErrFieldRange)

	wide := append([]byte(nil), want...)
	wide[18] = 1
	_, err = h.Decode(chunk.New(TypeAlgorithm, chunk.Attrs{}, wide))
	assert.ErrorIs(t, err, chunk.ErrFieldRange)
}

func TestEncodeRejectsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name   string
		encode func() ([]byte, error)
	}{
		{
			name: "wmdr block offset",
			encode: func() ([]byte, error) {
				c := sampleCoefficients()
				c.Records = append(c.Records, MemoryRegion{Type: TypeHaloXM, Attrs: chunk.Attrs{Offset: 0x12345}, Data: []byte{1, 2, 3, 4}})
				return c.Encode()
			},
		},
		{
			name: "wmdr block type",
			encode: func() ([]byte, error) {
				c := sampleCoefficients()
				c.Records = append(c.Records, chunk.Opaque{Chunk: chunk.New(0x10000, chunk.Attrs{}, nil)})
				return c.Encode()
			},
		},
		{
			name: "wmfw region offset",
			encode: func() ([]byte, error) {
				fw := sampleFirmware(3)
				fw.Records = append(fw.Records, MemoryRegion{Type: TypeHaloXM, Attrs: chunk.Attrs{Offset: 0x1234567}, Data: []byte{1}})
				return fw.Encode()
			},
		},
		{
			name: "wmfw region type",
			encode: func() ([]byte, error) {
				fw := sampleFirmware(3)
				fw.Records = append(fw.Records, chunk.Opaque{Chunk: chunk.New(0x1ff, chunk.Attrs{}, []byte{1})})
				return fw.Encode()
			},
		},
		{
			name: "fixed coefficient name",
			encode: func() ([]byte, error) {
				fw := sampleFirmware(2)
				fw.Records[1].(Algorithm).Coefficients[0].Name = strings.Repeat("G", maxCoeffName+1)
				return fw.Encode()
			},
		},
		{
			name: "length prefixed algorithm name",
			encode: func() ([]byte, error) {
				fw := sampleFirmware(3)
				alg := fw.Records[1].(Algorithm)
				alg.Name = strings.Repeat("A", 0x100)
				fw.Records[1] = alg
				return fw.Encode()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.encode()
			assert.ErrorIs(t, err, chunk.ErrFieldRange)
			assert.Nil(t, out)
		})
	}

	// the widest values still fit
	c := sampleCoefficients()
	c.Records = []chunk.Record{MemoryRegion{Type: TypeHaloXM, Attrs: chunk.Attrs{Offset: 0xffff}, Data: []byte{1, 2, 3, 4}}}
	encoded, err := c.Encode()
	require.NoError(t, err)

	parsed, err := ParseCoefficients(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xffff), parsed.Records[0].(MemoryRegion).Attrs.Offset)

	fw := sampleFirmware(2)
	alg := fw.Records[1].(Algorithm)
	alg.Coefficients[0].Name = strings.Repeat("G", maxCoeffName)
	_, err = fw.Encode()
	require.NoError(t, err)
}

func TestEncodeMismatchedRecord(t *testing.T) {
	fw := sampleFirmware(3)
	fw.Records = append(fw.Records, Text{Type: TypeHaloXM, Text: "not memory"})

	_, err := fw.Encode()
	assert.ErrorIs(t, err, chunk.ErrRecordType)

	c := sampleCoefficients()
	c.Records = append(c.Records, MemoryRegion{Type: TypeBlockName, Data: []byte{1}})

	_, err = c.Encode()
	assert.ErrorIs(t, err, chunk.ErrRecordType)
}

func sampleCoefficients() *Coefficients {
	return &Coefficients{
		Header: CoefficientsHeader{Version: 0x00030000, Core: CoreHalo},
		Records: []chunk.Record{
			Text{Type: TypeBlockInfo, Text: "tuning v1"},
			MemoryRegion{
				Type:  TypeHaloXM,
				Attrs: chunk.Attrs{Offset: 0x24, AlgID: 0x1f0000, AlgVersion: 0x010203, SampleRate: 48000},
				Data:  []byte{0, 0, 1, 0, 0, 2},
			},
			MemoryRegion{Type: TypeAbsolute, Attrs: chunk.Attrs{Offset: 0x2000}, Data: []byte{0, 0, 0, 1}},
		},
	}
}

func TestCoefficientsRoundTrip(t *testing.T) {
	coeffs := sampleCoefficients()

	encoded, err := coeffs.Encode()
	require.NoError(t, err)

	// blocks are padded to four bytes: 16 header + (20+12) + (20+8) + (20+4)
	assert.Len(t, encoded, 16+32+28+24)

	parsed, err := ParseCoefficients(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, coeffs.Header, parsed.Header)
	assert.Equal(t, coeffs.Records, parsed.Records)
	assert.Equal(t, 10, parsed.PayloadBytes())

	again, err := parsed.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, again)
}

func TestCoefficientsHeaderExtension(t *testing.T) {
	coeffs := sampleCoefficients()
	coeffs.Header.Extra = []byte{1, 2, 3, 4}

	encoded, err := coeffs.Encode()
	require.NoError(t, err)

	parsed, err := ParseCoefficients(encoded, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, parsed.Header.Extra)
}

func TestCoefficientsTruncated(t *testing.T) {
	coeffs := sampleCoefficients()
	coeffs.Records = append(coeffs.Records, MemoryRegion{Type: TypeHaloYM, Data: []byte{1}})

	encoded, err := coeffs.Encode()
	require.NoError(t, err)

	_, err = ParseCoefficients(encoded[:len(encoded)-1], false)
	require.NoError(t, err, "missing final pad is accepted")

	// three pad bytes and the only payload byte
	_, err = ParseCoefficients(encoded[:len(encoded)-4], false)
	assert.ErrorIs(t, err, chunk.ErrTruncatedInput)
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "xm_packed", TypeName(TypeHaloXM))
	assert.Equal(t, "info", TypeName(TypeBlockInfo))
	assert.Equal(t, "type_0x77", TypeName(0x77))
	assert.Equal(t, "halo", FirmwareHeader{Core: CoreHalo}.CoreName())
}
