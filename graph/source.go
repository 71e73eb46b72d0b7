// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"errors"
	"io"

	"github.com/ik5/audpipe/audio"
)

// SourceNode pulls an audio.Source one block at a time. A source at
// another rate goes through the context's ResampleFunc.
type SourceNode struct {
	AudioNode

	// OnEnded runs in the tick after the source ran out.
	OnEnded func()

	src      audio.Source
	channels int
	buf      []float32
	done     bool
	err      error
}

func NewSourceNode(ctx *Context, src audio.Source) *SourceNode {
	if src.SampleRate() != ctx.SampleRate() {
		src = ctx.opts.Resample(src, ctx.SampleRate())
	}

	n := &SourceNode{src: src, channels: max(src.Channels(), 1)}
	n.init(ctx, 0, 1, mixConfig{count: 2, mode: Max, interp: Speakers}, n.render)
	n.buf = make([]float32, ctx.BlockSize()*n.channels)

	return n
}

// Ended reports whether the source returned io.EOF or failed.
func (n *SourceNode) Ended() bool { return n.done }

// Err returns the error the source failed with, if any.
func (n *SourceNode) Err() error { return n.err }

func (n *SourceNode) render([]*AudioBuffer) []*AudioBuffer {
	out := n.silent(n.channels)
	if n.done {
		return []*AudioBuffer{out}
	}

	filled := 0
	for filled < len(n.buf) {
		k, err := n.src.ReadSamples(n.buf[filled:])
		filled += k
		if err != nil {
			if !errors.Is(err, io.EOF) {
				n.err = err
			}
			n.end()
			break
		}
		if k == 0 {
			break
		}
	}

	for i := range filled / n.channels {
		for c := range n.channels {
			out.Channel(c)[i] = n.buf[i*n.channels+c]
		}
	}

	return []*AudioBuffer{out}
}

func (n *SourceNode) end() {
	n.done = true
	n.sched.Schedule(n.ctx.CurrentTime(), func() {
		if n.OnEnded != nil {
			n.OnEnded()
		}
	})
}
