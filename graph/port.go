// SPDX-License-Identifier: EPL-2.0

package graph

import "slices"

// AudioInput sums the outputs connected to it after mixing each one to the
// computed channel count.
type AudioInput struct {
	ctx     *Context
	cfg     *mixConfig
	sources []*AudioOutput
}

// ComputedChannels is the channel count the input mixes to this tick.
func (in *AudioInput) ComputedChannels() int {
	counts := make([]int, len(in.sources))
	for i, o := range in.sources {
		counts[i] = o.pull().NumberOfChannels()
	}

	return in.cfg.computed(counts)
}

func (in *AudioInput) connect(o *AudioOutput) {
	if slices.Contains(in.sources, o) {
		return
	}
	in.sources = append(in.sources, o)
	o.sinks = append(o.sinks, in)
}

func (in *AudioInput) pull() *AudioBuffer {
	blocks := make([]*AudioBuffer, len(in.sources))
	counts := make([]int, len(in.sources))
	for i, o := range in.sources {
		blocks[i] = o.pull()
		counts[i] = blocks[i].NumberOfChannels()
	}

	out := NewAudioBuffer(in.cfg.computed(counts), in.ctx.BlockSize(), in.ctx.SampleRate())
	for _, b := range blocks {
		mixInto(out, b, in.cfg.interp)
	}

	return out
}

// AudioOutput keeps the block its node rendered for the current tick.
type AudioOutput struct {
	node  *AudioNode
	sinks []*AudioInput

	block *AudioBuffer
	frame int64
}

// pull renders the node once per tick and serves the cached block after.
func (o *AudioOutput) pull() *AudioBuffer {
	if o.block == nil || o.frame != o.node.ctx.frame {
		o.node.tick()
	}
	if o.block == nil {
		o.block = NewAudioBuffer(1, o.node.ctx.BlockSize(), o.node.ctx.SampleRate())
		o.frame = o.node.ctx.frame
	}

	return o.block
}

func (o *AudioOutput) disconnect() {
	for _, in := range o.sinks {
		in.sources = slices.DeleteFunc(in.sources, func(s *AudioOutput) bool { return s == o })
	}
	o.sinks = nil
}
