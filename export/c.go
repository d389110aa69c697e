package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/cirrusconv/chunk"
	"github.com/cwbudde/cirrusconv/waveform"
	"github.com/cwbudde/cirrusconv/wisce"
	"github.com/cwbudde/cirrusconv/wmfw"
)

type cRenderer struct {
	opts Options
	b    strings.Builder
	syms symbolTable
}

func (r *cRenderer) run(name string, data any) error {
	return execute(&r.b, name, data)
}

func (r *cRenderer) symbol(parts ...string) string {
	return r.opts.Prefix + Identifier(strings.Join(parts, "_"))
}

// symbolTable holds the C symbols defined so far in one output file.
type symbolTable map[string]bool

// claim defines names. Nothing is defined if one of them is taken.
func (t symbolTable) claim(names ...string) error {
	for i, n := range names {
		if t[n] || slices.Contains(names[:i], n) {
			return fmt.Errorf("%w: %s", ErrDuplicateSymbol, n)
		}
	}

	for _, n := range names {
		t[n] = true
	}

	return nil
}

// unique claims the symbols of the first free identifier out of base,
// base_2, base_3 and so on, and returns that identifier.
func (t symbolTable) unique(base string, symbols func(ident string) []string) (string, error) {
	for n := 1; n <= len(t)+1; n++ {
		ident := base
		if n > 1 {
			ident = base + "_" + strconv.Itoa(n)
		}

		if t.claim(symbols(ident)...) == nil {
			return ident, nil
		}
	}

	return "", fmt.Errorf("%w: no free name for %s", ErrDuplicateSymbol, base)
}

// Identifier turns s into a lower case C identifier.
func Identifier(s string) string {
	var b strings.Builder

	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "_" + out
	}

	return out
}

// hexLines formats data as C byte literals, perLine bytes per line.
func hexLines(data []byte, perLine int) []string {
	var lines []string

	for start := 0; start < len(data); start += perLine {
		end := min(start+perLine, len(data))

		parts := make([]string, 0, end-start)
		for _, v := range data[start:end] {
			parts = append(parts, fmt.Sprintf("0x%02x,", v))
		}

		lines = append(lines, strings.Join(parts, " "))
	}

	return lines
}

// commentText keeps s from closing or breaking a C comment.
func commentText(s string) string {
	s = strings.ReplaceAll(s, "*/", "* /")
	return strings.Join(strings.Fields(s), " ")
}

func (r *cRenderer) preamble(kind string) error {
	return r.run("c_preamble", preambleFields{Source: commentText(r.opts.Source), Kind: kind})
}

func (r *cRenderer) opaque(index int, o chunk.Opaque, layout chunk.Layout) error {
	sym := r.symbol("chunk", strconv.Itoa(index))
	if err := r.syms.claim(sym+"_data", sym+"_size"); err != nil {
		return err
	}

	return r.run("c_opaque", opaqueFields{
		Index:  index,
		Symbol: sym,
		Tag:    layout.TagName(o.Tag()),
		Offset: o.Chunk.Offset,
		Size:   len(o.Chunk.Data),
		Lines:  hexLines(o.Chunk.Data, r.opts.BytesPerLine),
	})
}

// records renders the shared WMFW/WMDR record types.
func (r *cRenderer) records(records []chunk.Record, layout chunk.Layout) (regions int, err error) {
	for i, rec := range records {
		switch v := rec.(type) {
		case wmfw.MemoryRegion:
			regions++

			sym := r.symbol("region", strconv.Itoa(i))
			if err := r.syms.claim(sym+"_data", sym+"_offset", sym+"_size"); err != nil {
				return 0, err
			}

			err = r.run("c_region", regionFields{
				Index:      i,
				Symbol:     sym,
				TypeName:   wmfw.TypeName(v.Type),
				Offset:     v.Attrs.Offset,
				AlgID:      v.Attrs.AlgID,
				AlgVersion: v.Attrs.AlgVersion,
				SampleRate: v.Attrs.SampleRate,
				Size:       len(v.Data),
				Lines:      hexLines(v.Data, r.opts.BytesPerLine),
			})
		case wmfw.Text:
			err = r.run("c_text", textFields{Index: i, TypeName: wmfw.TypeName(v.Type), Text: commentText(v.Text)})
		case wmfw.Algorithm:
			err = r.algorithm(i, v)
		case chunk.Opaque:
			err = r.opaque(i, v, layout)
		default:
			err = fmt.Errorf("record %d: unexpected %s record", i, rec.Kind())
		}

		if err != nil {
			return 0, err
		}
	}

	return regions, nil
}

func (r *cRenderer) algorithm(index int, alg wmfw.Algorithm) error {
	// coefficient names are only unique per algorithm after renaming
	local := symbolTable{}
	coeffIdents := make([]string, len(alg.Coefficients))

	for i, c := range alg.Coefficients {
		ident, err := local.unique(Identifier(c.Name), func(ident string) []string { return []string{ident} })
		if err != nil {
			return err
		}

		coeffIdents[i] = ident
	}

	ident, err := r.syms.unique(Identifier(alg.Name), func(ident string) []string {
		sym := r.symbol("alg", ident)
		names := []string{sym + "_id"}

		for _, c := range coeffIdents {
			names = append(names, sym+"_"+c+"_offset", sym+"_"+c+"_length")
		}

		return names
	})
	if err != nil {
		return err
	}

	algSym := r.symbol("alg", ident)

	f := algorithmFields{
		Index:       index,
		Symbol:      algSym,
		Name:        commentText(alg.Name),
		Description: commentText(alg.Description),
		ID:          alg.ID,
	}

	for i, c := range alg.Coefficients {
		f.Coefficients = append(f.Coefficients, coefficientFields{
			Symbol:  algSym + "_" + coeffIdents[i],
			Name:    commentText(c.Name),
			MemType: wmfw.TypeName(uint32(c.MemType)),
			CtlType: c.CtlType,
			Flags:   c.Flags,
			Offset:  uint32(c.Offset),
			Length:  c.Length,
		})
	}

	return r.run("c_algorithm", f)
}

// reserve claims the names of summary fields ahead of the symbols derived
// from record names.
func (r *cRenderer) reserve(fields ...summaryField) error {
	for _, f := range fields {
		if err := r.syms.claim(f.Name); err != nil {
			return err
		}
	}

	return nil
}

func (r *cRenderer) summary(fields ...summaryField) error {
	return r.run("c_summary", fields)
}

func (r *cRenderer) firmware(fw *wmfw.Firmware) error {
	h := fw.Header

	totals := []summaryField{
		{Name: r.symbol("firmware_region_count")},
		{Name: r.symbol("firmware_algorithm_count"), Value: int64(len(fw.Algorithms()))},
		{Name: r.symbol("firmware_payload_bytes"), Value: int64(fw.PayloadBytes())},
	}

	headerSyms := []summaryField{
		{Name: r.symbol("firmware_timestamp_lo")},
		{Name: r.symbol("firmware_timestamp_hi")},
		{Name: r.symbol("firmware_checksum")},
	}
	for i := range h.Sizes {
		headerSyms = append(headerSyms, summaryField{Name: r.symbol("firmware_mem_size", strconv.Itoa(i))})
	}

	if err := r.reserve(append(headerSyms, totals...)...); err != nil {
		return err
	}

	if err := r.preamble(fw.Kind()); err != nil {
		return err
	}

	err := r.run("c_firmware_header", firmwareFields{
		Prefix:      r.opts.Prefix,
		Core:        h.CoreName(),
		Version:     h.Version,
		APIRevision: h.APIRevision,
		TimestampLo: uint32(h.Timestamp),
		TimestampHi: uint32(h.Timestamp >> 32),
		Checksum:    h.Checksum,
		Sizes:       h.Sizes,
	})
	if err != nil {
		return err
	}

	regions, err := r.records(fw.Records, wmfw.RegionLayout)
	if err != nil {
		return err
	}

	totals[0].Value = int64(regions)

	return r.summary(totals...)
}

func (r *cRenderer) coefficients(c *wmfw.Coefficients) error {
	totals := []summaryField{
		{Name: r.symbol("coefficients_block_count")},
		{Name: r.symbol("coefficients_payload_bytes"), Value: int64(c.PayloadBytes())},
	}

	if err := r.reserve(totals...); err != nil {
		return err
	}

	if err := r.preamble(c.Kind()); err != nil {
		return err
	}

	err := r.run("c_coefficients_header", coefficientsFields{
		Core:    wmfw.FirmwareHeader{Core: uint8(c.Header.Core)}.CoreName(),
		Version: c.Header.Version,
	})
	if err != nil {
		return err
	}

	blocks, err := r.records(c.Records, wmfw.BlockLayout)
	if err != nil {
		return err
	}

	totals[0].Value = int64(blocks)

	return r.summary(totals...)
}

// waveSymbols lists the symbols a waveform defines under ident.
func (r *cRenderer) waveSymbols(w waveform.Waveform, ident string) []string {
	var names []string

	for i := range w.Sections {
		names = append(names, r.symbol("pwle", ident, strconv.Itoa(i), "section"))
	}

	if len(w.Sections) > 0 {
		names = append(names, r.symbol("pwle", ident, "size"))
	}

	for i := range w.PCM {
		sym := r.pcmSymbol(ident, i)
		names = append(names, sym+"_data", sym+"_data_size", sym+"_sample_rate")
	}

	return names
}

func (r *cRenderer) pcmSymbol(ident string, block int) string {
	if block == 0 {
		return r.symbol("pcm", ident)
	}

	return r.symbol("pcm", ident, strconv.Itoa(block))
}

func (r *cRenderer) bank(bank *waveform.Bank) error {
	waves := bank.Waveforms()

	totals := []summaryField{
		{Name: r.symbol("bank_waveform_count"), Value: int64(len(waves))},
		{Name: r.symbol("bank_section_count"), Value: int64(bank.SectionCount())},
		{Name: r.symbol("bank_sample_count"), Value: int64(bank.SampleCount())},
	}

	if err := r.reserve(totals...); err != nil {
		return err
	}

	if err := r.preamble(bank.Kind()); err != nil {
		return err
	}

	if err := r.run("c_bank_header", struct{}{}); err != nil {
		return err
	}

	var (
		sizes   []summaryField
		opaqueN int
	)

	for _, w := range waves {
		name, err := r.syms.unique(Identifier(w.Name), func(ident string) []string {
			return r.waveSymbols(w, ident)
		})
		if err != nil {
			return err
		}

		if err := r.run("c_wave", waveFields{Name: commentText(w.Name), Repeat: w.Repeat}); err != nil {
			return err
		}

		for i, s := range w.Sections {
			err := r.run("c_pwle_section", sectionFields{
				Symbol:      r.symbol("pwle", name, strconv.Itoa(i), "section"),
				Duration:    s.Duration,
				DurationMs:  strconv.FormatFloat(s.DurationMs(), 'f', -1, 64),
				Level:       s.Level,
				Frequency:   s.Frequency,
				FrequencyHz: strconv.FormatFloat(s.FrequencyHz(), 'f', -1, 64),
				Chirp:       boolInt(s.Chirp),
				Braking:     boolInt(s.Braking),
				HalfCycles:  s.HalfCycles,
			})
			if err != nil {
				return err
			}
		}

		for i, blk := range w.PCM {
			err := r.run("c_pcm_block", pcmFields{
				Symbol:     r.pcmSymbol(name, i),
				SampleRate: blk.SampleRate,
				Size:       len(blk.Data),
				Lines:      hexLines(blk.Data, r.opts.BytesPerLine),
			})
			if err != nil {
				return err
			}
		}

		for _, o := range w.Other {
			if err := r.opaque(opaqueN, o, chunk.RIFF); err != nil {
				return err
			}

			opaqueN++
		}

		if len(w.Sections) > 0 {
			sizes = append(sizes, summaryField{Name: r.symbol("pwle", name, "size"), Value: int64(w.SectionCount())})
		}
	}

	return r.summary(append(sizes, totals...)...)
}

var scriptOps = map[string]string{
	"register_write":    "WISCE_WRITE",
	"read_modify_write": "WISCE_RMW",
	"delay":             "WISCE_DELAY",
}

func (r *cRenderer) script(s *wisce.Script) error {
	totals := []summaryField{
		{Name: r.symbol("script")},
		{Name: r.symbol("script_size")},
		{Name: r.symbol("script_write_count"), Value: int64(s.WriteCount())},
		{Name: r.symbol("script_delay_ms"), Value: int64(s.DelayMs())},
	}

	if err := r.reserve(totals...); err != nil {
		return err
	}

	if err := r.preamble(s.Kind()); err != nil {
		return err
	}

	if err := r.run("c_script_header", scriptFields{Prefix: r.opts.Prefix}); err != nil {
		return err
	}

	ops := 0

	for i, rec := range s.Records {
		var err error

		switch v := rec.(type) {
		case wisce.RegisterWrite:
			err = r.run("c_script_op", scriptOpFields{Op: scriptOps[v.Kind()], Reg: v.Reg, Mask: 0xffffffff, Value: v.Value})
		case wisce.ReadModifyWrite:
			err = r.run("c_script_op", scriptOpFields{Op: scriptOps[v.Kind()], Reg: v.Reg, Mask: v.Mask, Value: v.Value})
		case wisce.Delay:
			err = r.run("c_script_op", scriptOpFields{Op: scriptOps[v.Kind()], Value: v.Ms})
		case chunk.Opaque:
			err = r.run("c_script_skip", opaqueFields{Index: i, Tag: chunk.RIFF.TagName(v.Tag()), Offset: v.Chunk.Offset, Size: len(v.Chunk.Data)})
			ops--
		default:
			err = fmt.Errorf("record %d: unexpected %s record", i, rec.Kind())
		}

		if err != nil {
			return err
		}

		ops++
	}

	if err := r.run("c_script_footer", struct{}{}); err != nil {
		return err
	}

	totals[1].Value = int64(ops)

	return r.summary(totals[1:]...)
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
