// Package cirrusconv converts the file formats used to configure Cirrus Logic
// style audio and haptic DSPs.
//
// The supported inputs are .wmfw firmware images, WMDR coefficient blobs,
// haptic waveform banks (binary banks, JSON descriptions, PWLE strings and
// WAV or AIFF clips) and WISCE register scripts in text or binary form.
// Load detects the input type and decodes it into a document, and
// export.Export renders a document as C source, JSON, binary or WISCE text.
//
// The format packages can also be used directly:
//
//   - chunk: generic tagged chunk parser, writer and record registry
//   - wmfw: firmware and coefficient files
//   - waveform: PWLE and PCM waveform banks
//   - wisce: register scripts
//   - export: renderers
package cirrusconv
