// SPDX-License-Identifier: EPL-2.0

package graph

// ChannelSplitterNode puts every channel of its input on its own mono
// output.
type ChannelSplitterNode struct {
	AudioNode
}

func NewChannelSplitterNode(ctx *Context, outputs int) *ChannelSplitterNode {
	outputs = max(outputs, 1)
	n := &ChannelSplitterNode{}
	n.init(ctx, 1, outputs, mixConfig{count: outputs, mode: Explicit, interp: Discrete}, n.render)

	return n
}

func (n *ChannelSplitterNode) render(in []*AudioBuffer) []*AudioBuffer {
	out := make([]*AudioBuffer, len(n.outputs))
	for i := range out {
		out[i] = &AudioBuffer{SampleRate: in[0].SampleRate, data: [][]float32{in[0].Channel(i)}}
	}

	return out
}

// ChannelMergerNode mixes each input to mono and outputs them as the
// channels of one buffer.
type ChannelMergerNode struct {
	AudioNode
}

func NewChannelMergerNode(ctx *Context, inputs int) *ChannelMergerNode {
	inputs = max(inputs, 1)
	n := &ChannelMergerNode{}
	n.init(ctx, inputs, 1, mixConfig{count: 1, mode: Explicit, interp: Speakers}, n.render)

	return n
}

func (n *ChannelMergerNode) render(in []*AudioBuffer) []*AudioBuffer {
	out := &AudioBuffer{SampleRate: n.ctx.SampleRate(), data: make([][]float32, len(in))}
	for i, b := range in {
		out.data[i] = b.Channel(0)
	}

	return []*AudioBuffer{out}
}
