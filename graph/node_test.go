// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"errors"
	"testing"
)

func TestAudioNode_ConnectErrors(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(1, 4)
	other := newTestContext(1, 4)
	gain := NewGainNode(ctx)
	src := NewConstantSourceNode(ctx)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"other context", gain.Connect(other.Destination(), 0, 0), ErrOtherContext},
		{"bad output", gain.Connect(ctx.Destination(), 1, 0), ErrIndexSize},
		{"bad input", gain.Connect(ctx.Destination(), 0, 1), ErrIndexSize},
		{"source has no inputs", gain.Connect(src, 0, 0), ErrIndexSize},
		{"param of other context", gain.ConnectParam(NewGainNode(other).Gain, 0), ErrOtherContext},
		{"param from bad output", gain.ConnectParam(src.Offset, 2), ErrIndexSize},
		{"disconnect bad output", gain.Disconnect(3), ErrIndexSize},
		{"channel count", gain.SetChannelCount(0), ErrInvalidValue},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
}

func TestAudioNode_ChannelConfig(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(2, 4)
	gain := NewGainNode(ctx)

	if err := gain.SetChannelCount(1); err != nil {
		t.Fatalf("SetChannelCount() error = %v", err)
	}
	gain.SetChannelCountMode(Explicit)
	gain.SetChannelInterpretation(Discrete)

	if gain.ChannelCount() != 1 || gain.ChannelCountMode() != Explicit || gain.ChannelInterpretation() != Discrete {
		t.Errorf("config = %d %v %v, want 1 explicit discrete",
			gain.ChannelCount(), gain.ChannelCountMode(), gain.ChannelInterpretation())
	}
	if gain.NumberOfInputs() != 1 || gain.NumberOfOutputs() != 1 {
		t.Errorf("ports = %d in %d out, want 1 and 1", gain.NumberOfInputs(), gain.NumberOfOutputs())
	}
	if gain.Input(1) != nil {
		t.Error("Input(1) != nil")
	}

	// A stereo source is mixed down to the explicit mono input.
	src := NewAudioBufferSourceNode(ctx)
	src.Buffer = FromInterleaved([]float32{1, 0.5, 1, 0.5}, 2, 10)
	mustStart(t, src, 0)
	mustConnect(t, src, gain)
	if got := gain.Input(0).ComputedChannels(); got != 1 {
		t.Errorf("ComputedChannels() = %d, want 1", got)
	}
}

func TestGainNode(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(2, 4)
	src := NewConstantSourceNode(ctx)
	src.Offset.SetValue(0.5)
	mustStart(t, src, 0)

	gain := NewGainNode(ctx)
	if err := gain.Gain.SetValueAtTime(2, 0.2); err != nil {
		t.Fatal(err)
	}
	mustConnect(t, src, gain)
	mustConnect(t, gain, ctx.Destination())

	// Mono is up-mixed to the stereo destination.
	assertSamples(t, render(ctx, 8), []float32{0.5, 0.5, 0.5, 0.5, 1, 1, 1, 1})
}

func TestAudioNode_FanOutRendersOnce(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(1, 2)
	calls := 0
	script := NewScriptProcessorNode(ctx, 1, 1, func(e ProcessEvent) {
		calls++
		for i := range e.Output.Channel(0) {
			e.Output.Channel(0)[i] = 1
		}
	})

	a, b := NewGainNode(ctx), NewGainNode(ctx)
	mustConnect(t, script, a)
	mustConnect(t, script, b)
	mustConnect(t, a, ctx.Destination())
	mustConnect(t, b, ctx.Destination())
	// Connecting twice is a no-op.
	mustConnect(t, b, ctx.Destination())

	assertSamples(t, render(ctx, 6), []float32{2, 2, 2, 2, 2, 2})
	if calls != 3 {
		t.Errorf("process ran %d times, want 3", calls)
	}
}

func TestAudioNode_Cycle(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(1, 2)
	src := NewConstantSourceNode(ctx)
	mustStart(t, src, 0)

	a, b := NewGainNode(ctx), NewGainNode(ctx)
	mustConnect(t, src, a)
	mustConnect(t, a, b)
	mustConnect(t, b, a)
	mustConnect(t, a, ctx.Destination())

	// The loop feeds back with one block of delay.
	assertSamples(t, render(ctx, 6), []float32{1, 1, 2, 2, 3, 3})
}

func TestAudioNode_Disconnect(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(1, 2)
	src := NewConstantSourceNode(ctx)
	mustStart(t, src, 0)
	mustConnect(t, src, ctx.Destination())

	assertSamples(t, render(ctx, 2), []float32{1, 1})
	if err := src.Disconnect(0); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	assertSamples(t, render(ctx, 2), []float32{0, 0})
}

func TestAudioNode_Schedule(t *testing.T) {
	t.Parallel()

	ctx := newTestContext(1, 2)
	src := NewConstantSourceNode(ctx)
	mustStart(t, src, 0)
	mustConnect(t, src, ctx.Destination())

	src.Schedule(0.2, func() { src.Offset.SetValue(3) })
	id := src.Schedule(0.4, func() { src.Offset.SetValue(5) })
	src.Unschedule(id)

	assertSamples(t, render(ctx, 6), []float32{1, 1, 3, 3, 3, 3})
}
