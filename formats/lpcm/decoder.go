// SPDX-License-Identifier: EPL-2.0

package lpcm

import (
	"fmt"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/audio"
)

// FormatID is the codec name containers use for linear PCM.
const FormatID = "lpcm"

// maxChunk bounds the bytes decoded per packet.
const maxChunk = 4096

var ErrUnsupportedBitDepth = fmt.Errorf("%w: unsupported lpcm bit depth", audio.ErrCodecNotFound)

// Decoder emits whole frames only, so the output does not depend on how the
// input was chunked.
type Decoder struct {
	audio.DecoderBase

	frameSize int
}

// NewDecoder implements audio.NewDecoderFunc.
func NewDecoder(format audio.Format, seeker audio.Seeker) (audio.Decoder, error) {
	if format.ChannelsPerFrame <= 0 {
		return nil, fmt.Errorf("%w: %d channels", audio.ErrMalformed, format.ChannelsPerFrame)
	}

	switch {
	case format.FloatingPoint && (format.BitsPerChannel == 32 || format.BitsPerChannel == 64):
	case !format.FloatingPoint && format.BitsPerChannel%8 == 0 && format.BitsPerChannel >= 8 && format.BitsPerChannel <= 32:
	default:
		return nil, fmt.Errorf("%w: %d (float=%t)", ErrUnsupportedBitDepth, format.BitsPerChannel, format.FloatingPoint)
	}

	d := &Decoder{frameSize: format.BitsPerChannel / 8 * format.ChannelsPerFrame}
	d.Init(format, seeker, d.readChunk)

	return d, nil
}

func (d *Decoder) readChunk() (goaudio.Buffer, error) {
	f := d.Format()

	size := min(maxChunk, d.Stream.RemainingBytes())
	size -= size % d.frameSize
	if size == 0 {
		return nil, nil
	}
	samples := size / (f.BitsPerChannel / 8)

	if f.FloatingPoint {
		return d.readFloat(f, samples)
	}

	return d.readInt(f, samples)
}

func (d *Decoder) readFloat(f audio.Format, samples int) (goaudio.Buffer, error) {
	out := make([]float32, samples)
	for i := range out {
		if f.BitsPerChannel == 32 {
			v, err := d.Stream.ReadFloat32(f.LittleEndian)
			if err != nil {
				return nil, err
			}
			out[i] = v
			continue
		}

		v, err := d.Stream.ReadFloat64(f.LittleEndian)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}

	return &goaudio.Float32Buffer{Format: audio.PCMFormat(f), Data: out, SourceBitDepth: f.BitsPerChannel}, nil
}

func (d *Decoder) readInt(f audio.Format, samples int) (goaudio.Buffer, error) {
	out := make([]int, samples)
	s := d.Stream
	le := f.LittleEndian

	for i := range out {
		var (
			v   int
			err error
		)

		switch f.BitsPerChannel {
		case 8:
			if f.Unsigned {
				var u uint8
				u, err = s.ReadUInt8()
				v = int(u) - 128
			} else {
				var n int8
				n, err = s.ReadInt8()
				v = int(n)
			}
		case 16:
			var n int16
			n, err = s.ReadInt16(le)
			v = int(n)
		case 24:
			var n int32
			n, err = s.ReadInt24(le)
			v = int(n)
		case 32:
			var n int32
			n, err = s.ReadInt32(le)
			v = int(n)
		}
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return &goaudio.IntBuffer{Format: audio.PCMFormat(f), Data: out, SourceBitDepth: f.BitsPerChannel}, nil
}
