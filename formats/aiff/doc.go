// SPDX-License-Identifier: EPL-2.0

// Package aiff demuxes AIFF and AIFF-C (Audio Interchange File Format)
// files.
//
// AIFF is Apple's standard audio file format, commonly used on macOS.
//
// # Supported Formats
//
//   - AIFF: signed big endian PCM of 8, 16, 24 and 32 bits
//   - AIFC NONE and twos: as AIFF
//   - AIFC sowt: little endian PCM
//   - AIFC fl32 and fl64: IEEE float
//   - AIFC ulaw and alaw: G.711, decoded by the xlaw codec
//
// The NAME, AUTH, "(c) " and ANNO chunks are reported as title, artist,
// copyright and comments metadata.
//
// # AIFF vs. WAV
//
// AIFF is similar to WAV but:
//   - Uses big-endian byte order (WAV uses little-endian)
//   - Stores sample rate as 80-bit float (WAV uses 32-bit int)
//
// # Error Handling
//
//   - ErrNotAiffFile: the input is not an IFF FORM of type AIFF or AIFC
//   - ErrUnsupportedCompression: an AIFC compression type with no codec
//   - ErrMissingCommonChunk: SSND arrived before COMM
package aiff
