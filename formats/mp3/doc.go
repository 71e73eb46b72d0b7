// SPDX-License-Identifier: EPL-2.0

// Package mp3 demuxes and decodes MPEG-1, MPEG-2 and MPEG-2.5 audio,
// Layers I, II and III.
//
// The Demuxer skips an ID3v2 tag, turning its text, URL and comment frames
// into metadata, and reads the duration and seek table of a Xing, Info or
// VBRI frame. Without one the duration is estimated from the bitrate once
// the input ends. Frames pass through unchanged.
//
// The Decoder finds frames by their sync word, so it does not care how the
// stream is chunked. It keeps the Layer III bit reservoir, the IMDCT overlap
// and the synthesis filterbank across frames and emits one
// *goaudio.Float32Buffer of interleaved samples per frame. Samples are not
// clamped. CRC words are read but not verified.
//
// After a seek the decoder drops its state and skips frames that fail until
// one decodes, since the first frames usually reference reservoir bytes
// that were never seen.
package mp3
