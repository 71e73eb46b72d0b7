// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Vorbis packets into float32 PCM.
//
// Packet decoding is done by github.com/jfreymuth/vorbis. The decoder
// expects one Vorbis packet per Append, as the ogg demuxer emits them: the
// three header packets first, then audio packets.
//
//	dm := ogg.NewDemuxer()
//	dm.Events().Format.On(func(f audio.Format) {
//	    dec, _ := vorbis.NewDecoder(f, dm)
//	    audio.Attach(dm, dec)
//	    dec.Events().Data.On(func(b goaudio.Buffer) {
//	        // b is a *goaudio.Float32Buffer with interleaved samples
//	    })
//	})
//
// # Output Format
//
// Samples are interleaved float32 in [-1.0, 1.0], in Vorbis channel
// order. The first audio packet after the headers, and after every seek,
// only primes the overlap window and produces no output.
//
// # Seeking
//
// Seek asks the demuxer for the page boundary at or after the timestamp
// and clears the overlap state. The landing point is accurate to the page.
//
// # Stream Length
//
// Length reads the total duration of a seekable Ogg Vorbis file through
// github.com/jfreymuth/oggvorbis, without decoding it.
package vorbis
