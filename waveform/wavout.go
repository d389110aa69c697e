package waveform

import (
	"bytes"
	"fmt"

	"github.com/go-audio/riff"

	"github.com/cwbudde/cirrusconv/chunk"
)

// EncodeWAV writes block as a mono 8-bit PCM WAV file. WAV stores 8-bit
// samples unsigned, so every sample is offset by 128.
func EncodeWAV(block PCMBlock) ([]byte, error) {
	if len(block.Data) == 0 {
		return nil, ErrPCMDataNotFound
	}

	var f chunk.Builder
	f.U16LE(wavFormatPCM)
	f.U16LE(1)
	f.U32LE(block.SampleRate)
	f.U32LE(block.SampleRate)
	f.U16LE(1)
	f.U16LE(8)

	samples := make([]byte, len(block.Data))
	for i, s := range block.Data {
		samples[i] = s ^ 0x80
	}

	var body bytes.Buffer

	w := chunk.NewWriter(&body, chunk.RIFF)
	if err := w.WriteChunk(chunk.New(chunk.FourCC(riff.FmtID), chunk.Attrs{}, f.Data())); err != nil {
		return nil, fmt.Errorf("error encoding the fmt chunk - %w", err)
	}

	if err := w.WriteChunk(chunk.New(chunk.FourCC(riff.DataFormatID), chunk.Attrs{}, samples)); err != nil {
		return nil, fmt.Errorf("error encoding the data chunk - %w", err)
	}

	return chunk.WriteForm(riff.WavFormatID, body.Bytes()), nil
}

// EncodeWAV writes the first PCM block of the bank as a WAV file.
func (b *Bank) EncodeWAV() ([]byte, error) {
	for _, r := range b.Records {
		if block, ok := r.(PCMBlock); ok {
			return EncodeWAV(block)
		}
	}

	return nil, fmt.Errorf("bank has no PCM block: %w", ErrPCMDataNotFound)
}
