// SPDX-License-Identifier: EPL-2.0

// Package audio holds the pieces every format package builds on: the
// push-based Demuxer and Decoder bases, the Registry that finds them, and
// the pull-based Source processors.
//
// # Demuxers and Decoders
//
// A Demuxer takes raw input in chunks of any size and emits a Format,
// optional metadata and a stream of packets. A Decoder takes those packets
// and emits PCM as go-audio buffers:
//
//	dm := wav.NewDemuxer()
//	dm.Events().Format.On(func(f audio.Format) {
//	    dec, _ := registry.NewDecoder(f, dm)
//	    audio.Attach(dm, dec)
//	})
//	dm.Append(chunk)
//	dm.End()
//
// Both embed a base (DemuxerBase, DecoderBase) that owns the buffered
// input. A parser that runs short returns stream.ErrUnderflow; the cursor
// goes back to where the step started and parsing resumes on the next
// Append. StatusOf maps any error to Complete, NeedMoreData or Fatal and
// KindOf tells fatal ones apart.
//
// # Registry
//
// Containers are probed in registration order, codecs are looked up by
// format ID:
//
//	r := audio.NewRegistry()
//	r.RegisterContainer(audio.Container{Name: "wave", Probe: wav.Probe, New: wav.NewDemuxer})
//	r.RegisterCodec("lpcm", lpcm.NewDecoder)
//	c, err := r.FindContainer(head)
//
// # Sources
//
// A Source yields interleaved float32 samples in [-1, 1]. ReadSamples
// returns io.EOF once drained; dst must hold whole frames.
//
// Resampler converts the rate with cubic interpolation at exact rational
// positions and smooths the input first when downsampling. MonoMixer
// averages the channels of every frame:
//
//	src := audio.NewMonoMixer(audio.NewResampler(asset, 16000))
//	buf := make([]float32, src.BufSize())
//	n, err := src.ReadSamples(buf)
package audio
