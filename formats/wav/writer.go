// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
)

// Writer encodes decoded buffers into an integer PCM WAV file. The header
// is patched with the final sizes on Close, so the target must seek.
type Writer struct {
	enc      *gowav.Encoder
	format   *goaudio.Format
	bitDepth int
	scratch  []float32
}

// NewWriter writes a WAV with the given layout to ws. bitDepth is 16, 24 or
// 32.
func NewWriter(ws io.WriteSeeker, sampleRate, channels, bitDepth int) (*Writer, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedEncoding, channels, sampleRate)
	}

	return &Writer{
		enc:      gowav.NewEncoder(ws, sampleRate, bitDepth, channels, waveFormatPCM),
		format:   &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		bitDepth: bitDepth,
	}, nil
}

// Write appends buf. Integer buffers already at the target depth are
// written unchanged; everything else is normalized and rescaled.
func (w *Writer) Write(buf goaudio.Buffer) error {
	if ib, ok := buf.(*goaudio.IntBuffer); ok && ib.SourceBitDepth == w.bitDepth {
		return w.enc.Write(&goaudio.IntBuffer{Format: w.format, Data: ib.Data, SourceBitDepth: w.bitDepth})
	}

	w.scratch = audio.Float32Samples(w.scratch[:0], buf)

	return w.WriteFloat32(w.scratch)
}

// WriteFloat32 appends interleaved samples in [-1,1].
func (w *Writer) WriteFloat32(samples []float32) error {
	out := make([]int, len(samples))
	for i, v := range samples {
		out[i] = utils.Float32ToInt(v, w.bitDepth)
	}

	return w.enc.Write(&goaudio.IntBuffer{Format: w.format, Data: out, SourceBitDepth: w.bitDepth})
}

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.enc.Close()
}

// Encode writes buf as a complete WAV file at bitDepth.
func Encode(ws io.WriteSeeker, buf *goaudio.IntBuffer, bitDepth int) error {
	if buf.Format == nil {
		return fmt.Errorf("%w: buffer has no format", ErrUnsupportedEncoding)
	}

	w, err := NewWriter(ws, buf.Format.SampleRate, buf.Format.NumChannels, bitDepth)
	if err != nil {
		return err
	}
	if err := w.Write(buf); err != nil {
		return err
	}

	return w.Close()
}
