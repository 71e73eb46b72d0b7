// SPDX-License-Identifier: EPL-2.0

package graph

// ProcessEvent is passed to a ScriptProcessorNode callback once per block.
type ProcessEvent struct {
	Input  *AudioBuffer
	Output *AudioBuffer
	// PlaybackTime is the context time of the first frame of the block.
	PlaybackTime float64
}

// ScriptProcessorNode hands every block to a callback. Output starts
// silent; a nil callback outputs silence.
type ScriptProcessorNode struct {
	AudioNode

	OnProcess      func(e ProcessEvent)
	outputChannels int
}

func NewScriptProcessorNode(ctx *Context, inputChannels, outputChannels int, fn func(e ProcessEvent)) *ScriptProcessorNode {
	n := &ScriptProcessorNode{OnProcess: fn, outputChannels: max(outputChannels, 1)}
	n.init(ctx, 1, 1, mixConfig{count: max(inputChannels, 1), mode: Explicit, interp: Speakers}, n.render)

	return n
}

func (n *ScriptProcessorNode) render(in []*AudioBuffer) []*AudioBuffer {
	out := n.silent(n.outputChannels)
	if n.OnProcess != nil {
		n.OnProcess(ProcessEvent{Input: in[0], Output: out, PlaybackTime: n.ctx.CurrentTime()})
	}

	return []*AudioBuffer{out}
}
