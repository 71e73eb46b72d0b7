// SPDX-License-Identifier: EPL-2.0

package graph

// DestinationNode is the end of the graph. It mixes its input to the
// channel count of the context.
type DestinationNode struct {
	AudioNode
}

func newDestination(ctx *Context) *DestinationNode {
	n := &DestinationNode{}
	n.init(ctx, 1, 1, mixConfig{count: ctx.Channels(), mode: Explicit, interp: Speakers},
		func(in []*AudioBuffer) []*AudioBuffer { return in })

	return n
}
