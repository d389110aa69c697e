package waveform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatALaw       = 6
	wavFormatMuLaw      = 7
	wavFormatExtensible = 0xfffe

	scalePCMInt8  = 128.0
	scalePCMInt16 = 32768.0
	scalePCMInt24 = 8388608.0
	scalePCMInt32 = 2147483648.0
)

var (
	errUnhandledBitDepth    = errors.New("unhandled bit depth")
	errUnsupportedWavFormat = errors.New("unsupported wav format")
)

func clampFloat32(value, lo, hi float32) float32 {
	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// normalizePCMInt scales a signed sample of the given storage depth to [-1, 1).
func normalizePCMInt(sample int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(float64(sample) / scalePCMInt8)
	case 16:
		return float32(float64(sample) / scalePCMInt16)
	case 24:
		return float32(float64(sample) / scalePCMInt24)
	case 32:
		return float32(float64(sample) / scalePCMInt32)
	default:
		return 0
	}
}

// float32ToInt8 rounds a normalized sample to the signed 8-bit range,
// clamping anything outside it.
func float32ToInt8(value float32) int8 {
	scaled := math.Round(float64(clampFloat32(value, -1, 1)) * scalePCMInt8)

	return int8(max(min(scaled, math.MaxInt8), math.MinInt8))
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth-1)/8 + 1
}

// sampleDecodeFunc returns a function converting one little endian WAV
// sample to a normalized float. 8-bit PCM is unsigned, wider PCM is signed,
// A-law and mu-law are 8-bit G.711 codes.
func sampleDecodeFunc(bitsPerSample int, wavFormat uint16) (func([]byte) float32, error) {
	if wavFormat == wavFormatIEEEFloat {
		switch bitsPerSample {
		case 32:
			return func(b []byte) float32 {
				return clampFloat32(math.Float32frombits(binary.LittleEndian.Uint32(b)), -1, 1)
			}, nil
		case 64:
			return func(b []byte) float32 {
				return clampFloat32(float32(math.Float64frombits(binary.LittleEndian.Uint64(b))), -1, 1)
			}, nil
		default:
			return nil, fmt.Errorf("%w: float %d", errUnhandledBitDepth, bitsPerSample)
		}
	}

	if wavFormat == wavFormatALaw || wavFormat == wavFormatMuLaw {
		if bitsPerSample != 8 {
			return nil, fmt.Errorf("%w: G.711 %d", errUnhandledBitDepth, bitsPerSample)
		}

		expand := decodeMuLawSample
		if wavFormat == wavFormatALaw {
			expand = decodeALawSample
		}

		return func(b []byte) float32 {
			return normalizePCMInt(int(expand(b[0])), 16)
		}, nil
	}

	if wavFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: %d", errUnsupportedWavFormat, wavFormat)
	}

	switch {
	case bitsPerSample == 8:
		return func(b []byte) float32 {
			return normalizePCMInt(int(b[0])-128, 8)
		}, nil
	case bitsPerSample > 8 && bitsPerSample <= 16:
		return func(b []byte) float32 {
			return normalizePCMInt(int(int16(binary.LittleEndian.Uint16(b))), 16)
		}, nil
	case bitsPerSample > 16 && bitsPerSample <= 24:
		return func(b []byte) float32 {
			return normalizePCMInt(int(audio.Int24LETo32(b[:3])), 24)
		}, nil
	case bitsPerSample > 24 && bitsPerSample <= 32:
		return func(b []byte) float32 {
			return normalizePCMInt(int(int32(binary.LittleEndian.Uint32(b))), 32)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", errUnhandledBitDepth, bitsPerSample)
	}
}

// downmix averages interleaved frames to mono and converts them to signed
// 8-bit samples.
func downmix(frames []float32, channels int) []byte {
	if channels < 1 {
		channels = 1
	}

	out := make([]byte, len(frames)/channels)

	for i := range out {
		var sum float32
		for _, v := range frames[i*channels : (i+1)*channels] {
			sum += v
		}

		out[i] = byte(float32ToInt8(sum / float32(channels)))
	}

	return out
}

// intBufferToPCM normalizes a decoded integer buffer and down-mixes it.
// bitDepth is used when the buffer does not carry its source depth.
func intBufferToPCM(buf *audio.IntBuffer, bitDepth int) (PCMBlock, error) {
	if buf == nil || buf.Format == nil {
		return PCMBlock{}, errors.New("decoded buffer has no format")
	}

	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}

	if bitDepth < 1 || bitDepth > 32 {
		return PCMBlock{}, fmt.Errorf("%w: %d", errUnhandledBitDepth, bitDepth)
	}

	depth := bytesPerSample(bitDepth) * 8

	frames := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		frames[i] = normalizePCMInt(v, depth)
	}

	return PCMBlock{
		SampleRate: uint32(buf.Format.SampleRate),
		Data:       downmix(frames, buf.Format.NumChannels),
	}, nil
}
