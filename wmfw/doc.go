// Package wmfw decodes and re-encodes Wolfson/Cirrus Logic DSP firmware
// (.wmfw) and coefficient (.bin, "WMDR") files.
//
// A firmware file is a header followed by regions; each region is a chunk
// whose header packs a 24-bit target offset and an 8-bit region type.
// Coefficient files use 20-byte block headers carrying the algorithm id,
// version and sample rate, with payloads padded to four bytes. Region and
// block types that have no decoder are kept as chunk.Opaque records so a
// decode/encode cycle reproduces them.
package wmfw
