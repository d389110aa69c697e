package waveform

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/riff"

	"github.com/cwbudde/cirrusconv/chunk"
)

var (
	// ErrPCMDataNotFound is returned when an audio file has no sample data.
	ErrPCMDataNotFound = errors.New("PCM data not found")

	errFmtNotFound = errors.New("fmt chunk not found before data")
)

type wavFormat struct {
	FormatTag     uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ImportWAV converts a WAV file into a single PCM waveform named name.
// Multichannel input is averaged to mono and every sample is rounded to
// signed 8-bit.
func ImportWAV(buf []byte, name string) (*Bank, error) {
	blk, err := decodeWAV(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to import wav: %w", err)
	}

	return singlePCM(name, blk), nil
}

// ImportAIFF converts an AIFF file like ImportWAV.
func ImportAIFF(buf []byte, name string) (*Bank, error) {
	d := aiff.NewDecoder(bytes.NewReader(buf))

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to import aiff: %w", err)
	}

	if len(pcm.Data) == 0 {
		return nil, fmt.Errorf("failed to import aiff: %w", ErrPCMDataNotFound)
	}

	blk, err := intBufferToPCM(pcm, int(d.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("failed to import aiff: %w", err)
	}

	return singlePCM(name, blk), nil
}

func singlePCM(name string, blk PCMBlock) *Bank {
	return &Bank{Records: []chunk.Record{Header{Name: name}, blk}}
}

func decodeWAV(buf []byte) (PCMBlock, error) {
	r := bytes.NewReader(buf)
	p := riff.New(r)

	id, _, err := p.IDnSize()
	if err != nil {
		return PCMBlock{}, fmt.Errorf("failed to read chunk ID and size: %w", err)
	}

	if id != riff.RiffID {
		return PCMBlock{}, fmt.Errorf("%s - %w", id, riff.ErrFmtNotSupported)
	}

	var form [4]byte
	if err := binary.Read(r, binary.BigEndian, &form); err != nil {
		return PCMBlock{}, fmt.Errorf("failed to read format: %w", err)
	}

	if form != riff.WavFormatID {
		return PCMBlock{}, fmt.Errorf("%s - %w", form, riff.ErrFmtNotSupported)
	}

	var format *wavFormat

	for {
		id, size, err := p.IDnSize()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return PCMBlock{}, ErrPCMDataNotFound
			}

			return PCMBlock{}, fmt.Errorf("error reading chunk header - %w", err)
		}

		if int64(size) > int64(r.Len()) {
			return PCMBlock{}, &chunk.TruncatedInputError{
				What:      fmt.Sprintf("wav chunk %q", id[:]),
				Offset:    int(r.Size()) - r.Len() - 8,
				Declared:  int(size),
				Remaining: r.Len(),
			}
		}

		c := &riff.Chunk{ID: id, Size: int(size), R: io.LimitReader(r, int64(size))}

		switch id {
		case riff.FmtID:
			format, err = decodeFmtChunk(c)
			if err != nil {
				return PCMBlock{}, err
			}
		case riff.DataFormatID:
			if format == nil {
				return PCMBlock{}, errFmtNotFound
			}

			data := make([]byte, size)
			if _, err := io.ReadFull(c, data); err != nil {
				return PCMBlock{}, fmt.Errorf("failed to read PCM data: %w", err)
			}

			return decodeSamples(format, data)
		}

		c.Drain()

		// the pad byte after an odd sized chunk is not counted in its size
		if size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return PCMBlock{}, fmt.Errorf("failed to skip pad byte: %w", err)
			}
		}
	}
}

func decodeFmtChunk(c *riff.Chunk) (*wavFormat, error) {
	f := &wavFormat{}

	var (
		avgBytesPerSec uint32
		blockAlign     uint16
	)

	if err := c.ReadLE(&f.FormatTag); err != nil {
		return nil, fmt.Errorf("failed to read wav format: %w", err)
	}

	if err := c.ReadLE(&f.NumChannels); err != nil {
		return nil, fmt.Errorf("failed to read channels: %w", err)
	}

	if err := c.ReadLE(&f.SampleRate); err != nil {
		return nil, fmt.Errorf("failed to read sample rate: %w", err)
	}

	if err := c.ReadLE(&avgBytesPerSec); err != nil {
		return nil, fmt.Errorf("failed to read avg bytes/sec: %w", err)
	}

	if err := c.ReadLE(&blockAlign); err != nil {
		return nil, fmt.Errorf("failed to read block align: %w", err)
	}

	if err := c.ReadLE(&f.BitsPerSample); err != nil {
		return nil, fmt.Errorf("failed to read bit depth: %w", err)
	}

	if f.FormatTag != wavFormatExtensible || c.Size < 40 {
		return f, nil
	}

	// cbSize, valid bits and channel mask precede the sub format GUID
	var ext struct {
		Size        uint16
		ValidBits   uint16
		ChannelMask uint32
		SubFormat   uint16
	}

	if err := c.ReadLE(&ext); err != nil {
		return nil, fmt.Errorf("failed to read fmt extension: %w", err)
	}

	f.FormatTag = ext.SubFormat

	return f, nil
}

func decodeSamples(f *wavFormat, data []byte) (PCMBlock, error) {
	if f.NumChannels < 1 {
		return PCMBlock{}, fmt.Errorf("invalid channel count %d", f.NumChannels)
	}

	decode, err := sampleDecodeFunc(int(f.BitsPerSample), f.FormatTag)
	if err != nil {
		return PCMBlock{}, fmt.Errorf("could not get sample decode func %w", err)
	}

	width := bytesPerSample(int(f.BitsPerSample))

	// a trailing partial sample is padding
	frames := make([]float32, len(data)/width)
	for i := range frames {
		frames[i] = decode(data[i*width : (i+1)*width])
	}

	// drop a trailing partial frame
	frames = frames[:len(frames)-len(frames)%int(f.NumChannels)]

	if len(frames) == 0 {
		return PCMBlock{}, ErrPCMDataNotFound
	}

	return PCMBlock{SampleRate: f.SampleRate, Data: downmix(frames, int(f.NumChannels))}, nil
}
