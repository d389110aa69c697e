package export

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Velocidex/ordereddict"

	"github.com/cwbudde/cirrusconv/chunk"
	"github.com/cwbudde/cirrusconv/waveform"
	"github.com/cwbudde/cirrusconv/wisce"
	"github.com/cwbudde/cirrusconv/wmfw"
)

func renderJSON(doc Document) ([]byte, error) {
	var (
		out *ordereddict.Dict
		err error
	)

	switch d := doc.(type) {
	case *wmfw.Firmware:
		out, err = firmwareJSON(d)
	case *wmfw.Coefficients:
		out, err = coefficientsJSON(d)
	case *waveform.Bank:
		out = bankJSON(d)
	case *wisce.Script:
		out, err = scriptJSON(d)
	default:
		return nil, &UnsupportedFormatError{Kind: doc.Kind(), Format: FormatJSON}
	}

	if err != nil {
		return nil, err
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	return append(b, '\n'), nil
}

func opaqueJSON(o chunk.Opaque, layout chunk.Layout) *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("kind", o.Kind()).
		Set("tag", layout.TagName(o.Tag())).
		Set("file_offset", o.Chunk.Offset).
		Set("attrs", attrsJSON(o.Chunk.Attrs)).
		Set("size", len(o.Chunk.Data)).
		Set("data", hex.EncodeToString(o.Chunk.Data))
}

func attrsJSON(a chunk.Attrs) *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("offset", a.Offset).
		Set("alg_id", a.AlgID).
		Set("alg_version", a.AlgVersion).
		Set("sample_rate", a.SampleRate)
}

func wmfwRecordsJSON(records []chunk.Record, layout chunk.Layout) ([]any, error) {
	out := make([]any, 0, len(records))

	for i, rec := range records {
		switch v := rec.(type) {
		case wmfw.MemoryRegion:
			out = append(out, ordereddict.NewDict().
				Set("kind", v.Kind()).
				Set("type", wmfw.TypeName(v.Type)).
				Set("attrs", attrsJSON(v.Attrs)).
				Set("size", len(v.Data)).
				Set("data", hex.EncodeToString(v.Data)))
		case wmfw.Text:
			out = append(out, ordereddict.NewDict().
				Set("kind", v.Kind()).
				Set("type", wmfw.TypeName(v.Type)).
				Set("attrs", attrsJSON(v.Attrs)).
				Set("text", v.Text))
		case wmfw.Algorithm:
			coeffs := make([]any, 0, len(v.Coefficients))
			for _, c := range v.Coefficients {
				coeffs = append(coeffs, ordereddict.NewDict().
					Set("name", c.Name).
					Set("full_name", c.FullName).
					Set("description", c.Description).
					Set("mem_type", wmfw.TypeName(uint32(c.MemType))).
					Set("offset", c.Offset).
					Set("ctl_type", c.CtlType).
					Set("flags", c.Flags).
					Set("length", c.Length))
			}

			out = append(out, ordereddict.NewDict().
				Set("kind", v.Kind()).
				Set("id", v.ID).
				Set("name", v.Name).
				Set("description", v.Description).
				Set("coefficients", coeffs))
		case chunk.Opaque:
			out = append(out, opaqueJSON(v, layout))
		default:
			return nil, fmt.Errorf("record %d: unexpected %s record", i, rec.Kind())
		}
	}

	return out, nil
}

func firmwareJSON(fw *wmfw.Firmware) (*ordereddict.Dict, error) {
	records, err := wmfwRecordsJSON(fw.Records, wmfw.RegionLayout)
	if err != nil {
		return nil, err
	}

	h := fw.Header

	sizes := make([]any, 0, len(h.Sizes))
	for _, s := range h.Sizes {
		sizes = append(sizes, s)
	}

	header := ordereddict.NewDict().
		Set("api_revision", h.APIRevision).
		Set("core", h.CoreName()).
		Set("format_version", h.Version).
		Set("mem_sizes", sizes).
		Set("timestamp", h.Timestamp).
		Set("checksum", h.Checksum)

	summary := ordereddict.NewDict().
		Set("records", len(fw.Records)).
		Set("algorithms", len(fw.Algorithms())).
		Set("payload_bytes", fw.PayloadBytes())

	return ordereddict.NewDict().
		Set("kind", fw.Kind()).
		Set("header", header).
		Set("records", records).
		Set("summary", summary), nil
}

func coefficientsJSON(c *wmfw.Coefficients) (*ordereddict.Dict, error) {
	records, err := wmfwRecordsJSON(c.Records, wmfw.BlockLayout)
	if err != nil {
		return nil, err
	}

	header := ordereddict.NewDict().
		Set("version", c.Header.Version).
		Set("core", c.Header.Core).
		Set("extra", hex.EncodeToString(c.Header.Extra))

	summary := ordereddict.NewDict().
		Set("records", len(c.Records)).
		Set("payload_bytes", c.PayloadBytes())

	return ordereddict.NewDict().
		Set("kind", c.Kind()).
		Set("header", header).
		Set("records", records).
		Set("summary", summary), nil
}

func bankJSON(bank *waveform.Bank) *ordereddict.Dict {
	waves := bank.Waveforms()
	list := make([]any, 0, len(waves))

	for _, w := range waves {
		sections := make([]any, 0, len(w.Sections))
		for _, s := range w.Sections {
			sections = append(sections, ordereddict.NewDict().
				Set("duration_ms", s.DurationMs()).
				Set("level", s.Level).
				Set("frequency_hz", s.FrequencyHz()).
				Set("chirp", s.Chirp).
				Set("braking", s.Braking).
				Set("half_cycles", s.HalfCycles))
		}

		pcm := make([]any, 0, len(w.PCM))
		for _, blk := range w.PCM {
			samples := make([]any, 0, len(blk.Data))
			for _, v := range blk.Samples() {
				samples = append(samples, v)
			}

			pcm = append(pcm, ordereddict.NewDict().
				Set("sample_rate", blk.SampleRate).
				Set("samples", samples))
		}

		other := make([]any, 0, len(w.Other))
		for _, o := range w.Other {
			other = append(other, opaqueJSON(o, chunk.RIFF))
		}

		entry := ordereddict.NewDict().
			Set("name", w.Name).
			Set("repeat", w.Repeat).
			Set("pwle", sections).
			Set("pcm", pcm)

		if len(other) > 0 {
			entry.Set("opaque", other)
		}

		list = append(list, entry)
	}

	summary := ordereddict.NewDict().
		Set("waveforms", len(waves)).
		Set("sections", bank.SectionCount()).
		Set("samples", bank.SampleCount())

	return ordereddict.NewDict().
		Set("kind", bank.Kind()).
		Set("waveforms", list).
		Set("summary", summary)
}

func scriptJSON(s *wisce.Script) (*ordereddict.Dict, error) {
	ops := make([]any, 0, len(s.Records))

	for i, rec := range s.Records {
		switch v := rec.(type) {
		case wisce.RegisterWrite:
			ops = append(ops, ordereddict.NewDict().
				Set("op", v.Kind()).
				Set("reg", v.Reg).
				Set("value", v.Value))
		case wisce.ReadModifyWrite:
			ops = append(ops, ordereddict.NewDict().
				Set("op", v.Kind()).
				Set("reg", v.Reg).
				Set("mask", v.Mask).
				Set("value", v.Value))
		case wisce.Delay:
			ops = append(ops, ordereddict.NewDict().
				Set("op", v.Kind()).
				Set("ms", v.Ms))
		case chunk.Opaque:
			ops = append(ops, opaqueJSON(v, chunk.RIFF))
		default:
			return nil, fmt.Errorf("record %d: unexpected %s record", i, rec.Kind())
		}
	}

	summary := ordereddict.NewDict().
		Set("records", len(s.Records)).
		Set("writes", s.WriteCount()).
		Set("delay_ms", s.DelayMs())

	return ordereddict.NewDict().
		Set("kind", s.Kind()).
		Set("ops", ops).
		Set("summary", summary), nil
}
