// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audpipe/utils"
)

// lowpassAlpha is the coefficient of the one-pole filter run on the input
// when downsampling.
const lowpassAlpha = 0.5

// Resampler converts src to another sample rate with Catmull-Rom
// interpolation. Samples stay interleaved and the channel count is kept.
type Resampler struct {
	src      Source
	srcRate  int64
	dstRate  int64
	channels int

	// window holds interleaved source frames from frame base on. Output
	// frame k sits at source position k*srcRate/dstRate.
	window []float32
	base   int64
	out    int64
	read   []float32

	// lowpass is the filter state, nil when not downsampling.
	lowpass []float32
	primed  bool

	eof bool
	err error
}

func NewResampler(src Source, dstRate int) *Resampler {
	ch := max(src.Channels(), 1)
	dstRate = max(dstRate, 1)
	r := &Resampler{
		src:      src,
		srcRate:  int64(src.SampleRate()),
		dstRate:  int64(dstRate),
		channels: ch,
		read:     make([]float32, max(src.BufSize()/ch, 1)*ch),
	}
	if r.srcRate > r.dstRate {
		r.lowpass = make([]float32, ch)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("audio: close resampled source: %w", err)
	}

	return nil
}

func (r *Resampler) frames() int { return len(r.window) / r.channels }

// fill appends one read of the source to the window.
func (r *Resampler) fill() {
	n, err := r.src.ReadSamples(r.read)
	in := r.read[:n-n%r.channels]

	if r.lowpass != nil {
		if !r.primed && len(in) > 0 {
			copy(r.lowpass, in)
			r.primed = true
		}
		for i, v := range in {
			c := i % r.channels
			r.lowpass[c] = lowpassAlpha*v + (1-lowpassAlpha)*r.lowpass[c]
			in[i] = r.lowpass[c]
		}
	}
	r.window = append(r.window, in...)

	switch {
	case errors.Is(err, io.EOF):
		r.eof = true
	case err != nil:
		r.err = fmt.Errorf("audio: resample: %w", err)
	case n == 0:
		// A source with nothing to give counts as finished.
		r.eof = true
	}
}

// at returns channel c of frame i, holding the edge frames.
func (r *Resampler) at(i, c int) float32 {
	i = min(max(i, 0), r.frames()-1)

	return r.window[i*r.channels+c]
}

// position returns the window frame and fraction of the next output frame.
func (r *Resampler) position() (int, float32) {
	num := r.out * r.srcRate

	return int(num/r.dstRate - r.base), float32(num%r.dstRate) / float32(r.dstRate)
}

// compact drops frames the interpolation no longer reaches.
func (r *Resampler) compact() {
	i, _ := r.position()
	drop := i - 1
	if drop < len(r.read)/r.channels {
		return
	}
	k := copy(r.window, r.window[drop*r.channels:])
	r.window = r.window[:k]
	r.base += int64(drop)
}

// ReadSamples fills dst with frames at the target rate. len(dst) must be a
// multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	n := 0
	for n < len(dst) {
		i, x := r.position()
		for i+2 >= r.frames() && !r.eof && r.err == nil {
			r.fill()
		}
		if r.err != nil {
			return n, r.err
		}
		if i >= r.frames() {
			return n, io.EOF
		}

		for c := range r.channels {
			dst[n+c] = utils.CubicInterpolate(r.at(i-1, c), r.at(i, c), r.at(i+1, c), r.at(i+2, c), x)
		}
		n += r.channels
		r.out++
		r.compact()
	}

	return n, nil
}
