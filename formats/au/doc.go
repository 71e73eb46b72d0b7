// SPDX-License-Identifier: EPL-2.0

// Package au demuxes Sun/NeXT .au files: a ".snd" header followed by big
// endian samples. Encodings 1 (µ-law), 2-5 (8 to 32-bit PCM), 6 and 7
// (float) and 27 (A-law) are supported.
package au
