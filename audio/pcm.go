// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"

	goaudio "github.com/go-audio/audio"
)

// Float32Samples appends the samples of buf to dst, normalized to [-1,1].
// Integer buffers are divided by 2^(SourceBitDepth-1); float buffers pass
// through unchanged.
func Float32Samples(dst []float32, buf goaudio.Buffer) []float32 {
	switch b := buf.(type) {
	case *goaudio.Float32Buffer:
		return append(dst, b.Data...)
	case *goaudio.FloatBuffer:
		for _, v := range b.Data {
			dst = append(dst, float32(v))
		}
		return dst
	case *goaudio.IntBuffer:
		depth := b.SourceBitDepth
		if depth <= 0 {
			depth = 16
		}
		inv := float32(1 / math.Ldexp(1, depth-1))
		for _, v := range b.Data {
			dst = append(dst, float32(v)*inv)
		}
		return dst
	}

	return append(dst, buf.AsFloat32Buffer().Data...)
}

// PCMFormat builds the go-audio format of f.
func PCMFormat(f Format) *goaudio.Format {
	return &goaudio.Format{
		NumChannels: f.ChannelsPerFrame,
		SampleRate:  int(math.Round(f.SampleRate)),
	}
}
