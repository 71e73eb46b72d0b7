// SPDX-License-Identifier: EPL-2.0

// Package audpipe decodes audio files into normalized float32 PCM.
//
// Open probes the input against a registry of containers, builds the
// demuxer and the decoder for its codec, and returns an Asset. The Asset
// is an audio.Source: every ReadSamples call pushes just enough input
// through the demuxer and decoder to fill the destination.
//
//	f, _ := os.Open("song.mp3")
//	asset, err := audpipe.Open(f)
//	if err != nil {
//	    return err
//	}
//	defer asset.Close()
//
//	buf := make([]float32, asset.BufSize())
//	for {
//	    n, err := asset.ReadSamples(buf)
//	    // use buf[:n]
//	    if err != nil {
//	        break
//	    }
//	}
//
// # Supported Formats
//
// DefaultRegistry probes, in order:
//   - CAF via formats/caf
//   - M4A and other ISO-BMFF audio via formats/m4a
//   - AIFF and AIFC via formats/aiff
//   - WAVE via formats/wav
//   - Sun AU via formats/au
//   - MP3 via formats/mp3
//   - Ogg via formats/ogg
//
// and decodes LPCM, G.711 µ-law and A-law, MPEG audio Layer I, II and III,
// and Vorbis.
//
// # Processing
//
// An Asset plugs into the audio package helpers and into graph.SourceNode:
//
//	mono := audio.NewMonoMixer(audio.NewResampler(asset, 16000))
//
// ResampleToMono16 covers the common case of 16-bit mono PCM at a fixed
// rate.
package audpipe
