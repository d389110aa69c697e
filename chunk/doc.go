// Package chunk reads and writes containers made of tagged, length-prefixed
// chunks.
//
// A Layout describes the header of one container family (RIFF, WMFW regions,
// WMDR coefficient blocks). Parser walks a fully buffered file and yields
// Chunks in source order; chunks with tags nobody knows about are returned
// like any other so they can be carried through unchanged. A Registry turns
// chunks into typed Records and back:
//
//	reg := chunk.NewRegistry(chunk.RIFF, handlers...)
//	records, err := reg.DecodeAll(buf, false)
//
// Decoding failures are reported with the typed errors in this package
// (TruncatedInputError, MisalignedTrailingDataError, UnknownChunkTypeError,
// FieldRangeError), which all match their Err* sentinel with errors.Is.
package chunk
