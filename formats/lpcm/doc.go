// SPDX-License-Identifier: EPL-2.0

// Package lpcm decodes linear PCM packets.
//
// Integer samples of 8, 16, 24 and 32 bits and float samples of 32 and 64
// bits are supported, in either byte order. Integer output is emitted as
// *goaudio.IntBuffer with SourceBitDepth set to the input depth, so callers
// normalize by 2^(depth-1); float output is emitted as *goaudio.Float32Buffer.
//
// The decoder works for every container: WAV, AIFF, AU, CAF and M4A all
// describe their PCM with an audio.Format whose FormatID is "lpcm".
package lpcm
