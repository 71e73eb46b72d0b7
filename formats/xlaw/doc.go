// SPDX-License-Identifier: EPL-2.0

// Package xlaw decodes G.711 µ-law and A-law packets into 16-bit PCM.
//
// Each input byte expands to one sample through a 256 entry table built
// when the decoder is created. Output is *goaudio.IntBuffer with a source
// depth of 16 bits.
package xlaw
