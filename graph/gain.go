// SPDX-License-Identifier: EPL-2.0

package graph

import "math"

// GainNode multiplies its input by the gain param.
type GainNode struct {
	AudioNode

	Gain *AudioParam
}

func NewGainNode(ctx *Context) *GainNode {
	n := &GainNode{Gain: newParam(ctx, ARate, 1, math.Inf(-1), math.Inf(1))}
	n.init(ctx, 1, 1, mixConfig{count: 2, mode: Max, interp: Speakers}, n.render)

	return n
}

func (n *GainNode) render(in []*AudioBuffer) []*AudioBuffer {
	gain := n.Gain.pull()

	out := in[0]
	for c := range out.NumberOfChannels() {
		ch := out.Channel(c)
		for i := range ch {
			ch[i] *= gain[i]
		}
	}

	return []*AudioBuffer{out}
}
