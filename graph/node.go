// SPDX-License-Identifier: EPL-2.0

package graph

import "fmt"

// Node is implemented by every node type.
type Node interface {
	base() *AudioNode
}

// processFunc renders one block for every output from the blocks pulled
// from every input.
type processFunc func(in []*AudioBuffer) []*AudioBuffer

// AudioNode carries the ports, channel handling and scheduler shared by
// every node.
type AudioNode struct {
	ctx     *Context
	inputs  []*AudioInput
	outputs []*AudioOutput
	mix     mixConfig
	sched   Scheduler
	process processFunc

	rendering bool
}

func (n *AudioNode) base() *AudioNode { return n }

func (n *AudioNode) init(ctx *Context, inputs, outputs int, mix mixConfig, process processFunc) {
	n.ctx = ctx
	n.mix = mix
	n.process = process

	n.inputs = make([]*AudioInput, inputs)
	for i := range n.inputs {
		n.inputs[i] = &AudioInput{ctx: ctx, cfg: &n.mix}
	}
	n.outputs = make([]*AudioOutput, outputs)
	for i := range n.outputs {
		n.outputs[i] = &AudioOutput{node: n}
	}
}

func (n *AudioNode) Context() *Context { return n.ctx }

func (n *AudioNode) NumberOfInputs() int  { return len(n.inputs) }
func (n *AudioNode) NumberOfOutputs() int { return len(n.outputs) }

func (n *AudioNode) ChannelCount() int { return n.mix.count }

func (n *AudioNode) SetChannelCount(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidValue, count)
	}
	n.mix.count = count

	return nil
}

func (n *AudioNode) ChannelCountMode() ChannelCountMode { return n.mix.mode }

func (n *AudioNode) SetChannelCountMode(m ChannelCountMode) { n.mix.mode = m }

func (n *AudioNode) ChannelInterpretation() ChannelInterpretation { return n.mix.interp }

func (n *AudioNode) SetChannelInterpretation(i ChannelInterpretation) { n.mix.interp = i }

// Input returns input port i.
func (n *AudioNode) Input(i int) *AudioInput {
	if i < 0 || i >= len(n.inputs) {
		return nil
	}

	return n.inputs[i]
}

// Connect feeds output of n into input of dst.
func (n *AudioNode) Connect(dst Node, output, input int) error {
	d := dst.base()
	if d.ctx != n.ctx {
		return ErrOtherContext
	}
	if output < 0 || output >= len(n.outputs) {
		return fmt.Errorf("%w: output %d of %d", ErrIndexSize, output, len(n.outputs))
	}
	if input < 0 || input >= len(d.inputs) {
		return fmt.Errorf("%w: input %d of %d", ErrIndexSize, input, len(d.inputs))
	}

	d.inputs[input].connect(n.outputs[output])

	return nil
}

// ConnectParam adds output of n to the computed value of p.
func (n *AudioNode) ConnectParam(p *AudioParam, output int) error {
	if p.ctx != n.ctx {
		return ErrOtherContext
	}
	if output < 0 || output >= len(n.outputs) {
		return fmt.Errorf("%w: output %d of %d", ErrIndexSize, output, len(n.outputs))
	}

	p.input.connect(n.outputs[output])

	return nil
}

// Disconnect removes every connection leaving output.
func (n *AudioNode) Disconnect(output int) error {
	if output < 0 || output >= len(n.outputs) {
		return fmt.Errorf("%w: output %d of %d", ErrIndexSize, output, len(n.outputs))
	}
	n.outputs[output].disconnect()

	return nil
}

// Schedule runs fn when the node renders the block containing time.
func (n *AudioNode) Schedule(time float64, fn func()) uint64 {
	return n.sched.Schedule(time, fn)
}

func (n *AudioNode) Unschedule(id uint64) bool { return n.sched.Cancel(id) }

// tick renders one block. A node reached again through a cycle while it
// renders outputs what it rendered last.
func (n *AudioNode) tick() {
	if n.rendering {
		return
	}
	n.rendering = true
	defer func() { n.rendering = false }()

	frame := n.ctx.frame
	n.sched.Drain(n.ctx.blockEnd())

	in := make([]*AudioBuffer, len(n.inputs))
	for i, input := range n.inputs {
		in[i] = input.pull()
	}

	out := n.process(in)
	for i, o := range n.outputs {
		o.block = out[i]
		o.frame = frame
	}
}

// silent returns a block of channels zeroed channels.
func (n *AudioNode) silent(channels int) *AudioBuffer {
	return NewAudioBuffer(channels, n.ctx.BlockSize(), n.ctx.SampleRate())
}
