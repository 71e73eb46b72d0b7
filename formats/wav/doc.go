// SPDX-License-Identifier: EPL-2.0

// Package wav demuxes and writes RIFF WAVE files.
//
// # Demuxing
//
// The Demuxer accepts input in arbitrary chunks and emits the format of the
// fmt chunk, the duration of the data chunk and the raw packet bytes.
// Unknown chunks are skipped, honouring the RIFF pad byte after odd sized
// chunks. Supported encodings:
//   - 0x0001 integer PCM, 8-bit unsigned and 16/24/32-bit signed
//   - 0x0003 IEEE float, 32 and 64-bit
//   - 0x0006 A-law and 0x0007 µ-law
//   - 0xFFFE WAVE_FORMAT_EXTENSIBLE wrapping any of the above
//
// Packets are decoded by the lpcm and xlaw codecs. Every frame is its own
// packet, so seeking is plain arithmetic.
//
// # Writing
//
// Writer encodes decoded buffers through github.com/go-audio/wav and needs
// an io.WriteSeeker to patch the header on Close. WriteWAV16 and WritePCM16
// produce a canonical 44 byte header file on any io.Writer:
//
//	samples := []int16{100, -100, 200, -200}
//	file, _ := os.Create("output.wav")
//	err := wav.WriteWAV16(file, 8000, samples)
//
// # Error Handling
//
// Errors wrap the audio package classes, so audio.KindOf reports them:
//   - ErrNotWavFile: the input is not RIFF WAVE (KindFormat)
//   - ErrUnsupportedEncoding, ErrUnsupportedBitDepth (KindCodecNotFound)
//   - ErrMissingFormatChunk, ErrShortFormatChunk (KindMalformed)
package wav
