// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"fmt"
	"math"
)

// AudioBufferSourceNode plays an AudioBuffer, optionally looping part of
// it. Samples between buffer frames are interpolated linearly.
type AudioBufferSourceNode struct {
	AudioNode
	scheduledSource

	Buffer *AudioBuffer
	Loop   bool
	// LoopStart and LoopEnd bound the loop in seconds. A zero or out of
	// range end loops the whole buffer.
	LoopStart    float64
	LoopEnd      float64
	PlaybackRate *AudioParam

	pos float64
}

func NewAudioBufferSourceNode(ctx *Context) *AudioBufferSourceNode {
	n := &AudioBufferSourceNode{PlaybackRate: newParam(ctx, KRate, 1, math.Inf(-1), math.Inf(1))}
	n.init(ctx, 0, 1, mixConfig{count: 2, mode: Max, interp: Speakers}, n.render)
	n.bind(&n.AudioNode)

	return n
}

// StartAt begins playback at when, offset seconds into the buffer.
func (n *AudioBufferSourceNode) StartAt(when, offset float64) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative offset %v", ErrInvalidValue, offset)
	}
	if err := n.Start(when); err != nil {
		return err
	}
	if n.Buffer != nil {
		rate := n.Buffer.SampleRate
		if rate <= 0 {
			rate = n.ctx.SampleRate()
		}
		n.pos = offset * float64(rate)
	}

	return nil
}

func (n *AudioBufferSourceNode) loopBounds() (float64, float64) {
	length := float64(n.Buffer.Length())
	rate := float64(n.Buffer.SampleRate)
	if rate <= 0 {
		rate = float64(n.ctx.SampleRate())
	}

	end := n.LoopEnd * rate
	if end <= 0 || end > length {
		end = length
	}
	start := n.LoopStart * rate
	if start < 0 || start >= end {
		start = 0
	}

	return start, end
}

func (n *AudioBufferSourceNode) render([]*AudioBuffer) []*AudioBuffer {
	channels := 1
	if n.Buffer != nil {
		channels = n.Buffer.NumberOfChannels()
	}
	out := n.silent(channels)
	rate := float64(n.PlaybackRate.pull()[0])

	from, to := n.span()
	if from == to || n.Buffer == nil {
		return []*AudioBuffer{out}
	}

	length := n.Buffer.Length()
	loopStart, loopEnd := n.loopBounds()
	step := rate
	if n.Buffer.SampleRate > 0 {
		step *= float64(n.Buffer.SampleRate) / float64(n.ctx.SampleRate())
	}

	for i := from; i < to; i++ {
		if n.Loop && loopEnd > loopStart {
			span := loopEnd - loopStart
			switch {
			case n.pos >= loopEnd:
				n.pos = loopStart + math.Mod(n.pos-loopStart, span)
			case n.pos < loopStart && step < 0:
				// Playing backwards wraps from the loop start to its end.
				n.pos = loopEnd - math.Mod(loopStart-n.pos, span)
				if n.pos >= loopEnd {
					n.pos = loopStart
				}
			}
		} else if n.pos < 0 || n.pos >= float64(length) {
			n.finish(n.ctx.frame + int64(i))
			break
		}

		k := int(n.pos)
		frac := float32(n.pos - float64(k))
		next := k + 1
		switch {
		case n.Loop && next >= int(math.Ceil(loopEnd)):
			next = int(loopStart)
		case next >= length:
			next = k
		}

		for c := range channels {
			src := n.Buffer.Channel(c)
			out.Channel(c)[i] = src[k] + (src[next]-src[k])*frac
		}
		n.pos += step
	}

	return []*AudioBuffer{out}
}
