// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"

	"github.com/chewxy/math32"
)

type OscillatorType int

const (
	Sine OscillatorType = iota
	Square
	Sawtooth
	Triangle
)

func (t OscillatorType) String() string {
	switch t {
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	}

	return "sine"
}

// OscillatorNode generates a periodic mono waveform. All shapes start at
// zero phase and rise.
type OscillatorNode struct {
	AudioNode
	scheduledSource

	Type OscillatorType
	// Frequency in Hz.
	Frequency *AudioParam
	// Detune in cents.
	Detune *AudioParam

	phase float64
}

func NewOscillatorNode(ctx *Context) *OscillatorNode {
	nyquist := float64(ctx.SampleRate()) / 2
	n := &OscillatorNode{
		Frequency: newParam(ctx, ARate, 440, -nyquist, nyquist),
		Detune:    newParam(ctx, ARate, 0, math.Inf(-1), math.Inf(1)),
	}
	n.init(ctx, 0, 1, mixConfig{count: 2, mode: Max, interp: Speakers}, n.render)
	n.bind(&n.AudioNode)

	return n
}

func (n *OscillatorNode) render([]*AudioBuffer) []*AudioBuffer {
	out := n.silent(1)
	freq := n.Frequency.pull()
	detune := n.Detune.pull()

	ch := out.Channel(0)
	rate := float32(n.ctx.SampleRate())
	from, to := n.span()
	for i := from; i < to; i++ {
		ch[i] = waveform(n.Type, float32(n.phase))

		f := freq[i] * math32.Pow(2, detune[i]/1200)
		n.phase += float64(f / rate)
		n.phase -= math.Floor(n.phase)
	}

	return []*AudioBuffer{out}
}

// waveform evaluates one period at phase in [0, 1).
func waveform(t OscillatorType, phase float32) float32 {
	switch t {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		p := phase + 0.5
		return 2*(p-math32.Floor(p)) - 1
	case Triangle:
		p := phase + 0.25
		return 1 - 4*math32.Abs(p-math32.Floor(p)-0.5)
	}

	return math32.Sin(2 * math32.Pi * phase)
}
