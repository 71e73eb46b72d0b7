// SPDX-License-Identifier: EPL-2.0

package graph

import "math"

// ConstantSourceNode outputs its offset param while playing.
type ConstantSourceNode struct {
	AudioNode
	scheduledSource

	Offset *AudioParam
}

func NewConstantSourceNode(ctx *Context) *ConstantSourceNode {
	n := &ConstantSourceNode{Offset: newParam(ctx, ARate, 1, math.Inf(-1), math.Inf(1))}
	n.init(ctx, 0, 1, mixConfig{count: 2, mode: Max, interp: Speakers}, n.render)
	n.bind(&n.AudioNode)

	return n
}

func (n *ConstantSourceNode) render([]*AudioBuffer) []*AudioBuffer {
	out := n.silent(1)
	offset := n.Offset.pull()

	from, to := n.span()
	copy(out.Channel(0)[from:to], offset[from:to])

	return []*AudioBuffer{out}
}
