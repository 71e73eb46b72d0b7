// SPDX-License-Identifier: EPL-2.0

package graph

import "github.com/ik5/audpipe/audio"

const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 128
	DefaultChannels   = 2
)

// ResampleFunc converts src to rate. SourceNode uses it for sources that
// do not run at the context rate.
type ResampleFunc func(src audio.Source, rate int) audio.Source

// Option is the type for a function option
type Option func(*Options)

type Options struct {
	SampleRate int
	BlockSize  int
	Channels   int
	Resample   ResampleFunc
}

func defaultResample(src audio.Source, rate int) audio.Source {
	return audio.NewResampler(src, rate)
}

// WithSampleRate sets the rate of the context in Hz.
func WithSampleRate(rate int) Option {
	return func(args *Options) {
		args.SampleRate = rate
	}
}

// WithBlockSize sets the number of frames rendered per tick.
func WithBlockSize(frames int) Option {
	return func(args *Options) {
		args.BlockSize = frames
	}
}

// WithChannels sets the channel count of the destination.
func WithChannels(n int) Option {
	return func(args *Options) {
		args.Channels = n
	}
}

// WithResampler replaces the cubic audio.Resampler used by SourceNode.
func WithResampler(fn ResampleFunc) Option {
	return func(args *Options) {
		args.Resample = fn
	}
}
