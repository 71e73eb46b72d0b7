// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"
	"testing"
)

const tolerance = 1e-5

// newTestContext runs at 10 Hz so that frame i is at time i/10.
func newTestContext(channels, block int) *Context {
	return NewContext(WithSampleRate(10), WithChannels(channels), WithBlockSize(block))
}

func render(ctx *Context, samples int) []float32 {
	out := make([]float32, samples)
	ctx.Render(out)

	return out
}

func assertSamples(t *testing.T, got, want []float32) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tolerance {
			t.Errorf("sample[%d] = %v, want %v (got %v)", i, got[i], want[i], got)
			return
		}
	}
}

func mustConnect(t *testing.T, src, dst Node) {
	t.Helper()

	if err := src.base().Connect(dst, 0, 0); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
}

func mustStart(t *testing.T, s interface{ Start(float64) error }, when float64) {
	t.Helper()

	if err := s.Start(when); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}
