// SPDX-License-Identifier: EPL-2.0

// Package m4a demuxes ISO base media (MP4, M4A, QuickTime) audio files.
//
// The moov box is buffered whole and its sample tables are read with
// github.com/abema/go-mp4. The first sound track is selected; its samples are
// then emitted in decode order while mdat streams in. Files that put mdat
// before moov are handled by replaying the buffered mdat once moov arrives.
//
// Sample entries carrying PCM (twos, sowt, in24, in32, fl32, fl64, raw, lpcm),
// G.711 (ulaw, alaw) and MP3 (.mp3, or mp4a with an MPEG audio object type)
// map to registered codecs. AAC tracks are reported with the "aac" format ID,
// for which no decoder is registered.
//
// iTunes style ilst tags become metadata.
package m4a
