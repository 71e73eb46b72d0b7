// SPDX-License-Identifier: EPL-2.0

package graph

import "math"

type ChannelCountMode int

const (
	Max ChannelCountMode = iota
	ClampedMax
	Explicit
)

func (m ChannelCountMode) String() string {
	switch m {
	case ClampedMax:
		return "clamped-max"
	case Explicit:
		return "explicit"
	}

	return "max"
}

type ChannelInterpretation int

const (
	Speakers ChannelInterpretation = iota
	Discrete
)

func (i ChannelInterpretation) String() string {
	if i == Discrete {
		return "discrete"
	}

	return "speakers"
}

// mixConfig is the channel handling of the inputs of one node.
type mixConfig struct {
	count  int
	mode   ChannelCountMode
	interp ChannelInterpretation
}

// computed returns the channel count an input mixes to, given the channel
// counts of its connections.
func (c *mixConfig) computed(counts []int) int {
	if c.mode == Explicit {
		return c.count
	}

	n := 1
	for _, v := range counts {
		n = max(n, v)
	}
	if c.mode == ClampedMax {
		n = min(n, c.count)
	}

	return n
}

const sqrtHalf float32 = math.Sqrt2 / 2

// speakerMatrices maps {inputs, outputs} to output rows of input
// coefficients. Channel orders are mono; L R; L R SL SR; L R C LFE SL SR.
var speakerMatrices = map[[2]int][][]float32{
	{1, 2}: {{1}, {1}},
	{1, 4}: {{1}, {1}, {0}, {0}},
	{1, 6}: {{0}, {0}, {1}, {0}, {0}, {0}},
	{2, 4}: {{1, 0}, {0, 1}, {0, 0}, {0, 0}},
	{2, 6}: {{1, 0}, {0, 1}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
	{4, 6}: {
		{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0},
		{0, 0, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1},
	},
	{2, 1}: {{0.5, 0.5}},
	{4, 1}: {{0.25, 0.25, 0.25, 0.25}},
	{6, 1}: {{sqrtHalf, sqrtHalf, 1, 0, 0.5, 0.5}},
	{4, 2}: {{0.5, 0, 0.5, 0}, {0, 0.5, 0, 0.5}},
	{6, 2}: {{1, 0, sqrtHalf, 0, sqrtHalf, 0}, {0, 1, sqrtHalf, 0, 0, sqrtHalf}},
	{6, 4}: {
		{1, 0, sqrtHalf, 0, 0, 0}, {0, 1, sqrtHalf, 0, 0, 0},
		{0, 0, 0, 0, 1, 0}, {0, 0, 0, 0, 0, 1},
	},
}

// mixInto adds src to dst, converting from src's channel count to dst's.
func mixInto(dst, src *AudioBuffer, interp ChannelInterpretation) {
	in, out := src.NumberOfChannels(), dst.NumberOfChannels()
	n := min(dst.Length(), src.Length())

	if in != out && interp == Speakers {
		if m, ok := speakerMatrices[[2]int{in, out}]; ok {
			for o, row := range m {
				d := dst.data[o][:n]
				for k, coef := range row {
					if coef == 0 {
						continue
					}
					for i, v := range src.data[k][:n] {
						d[i] += coef * v
					}
				}
			}
			return
		}
	}

	// Identity and discrete mixing share the common channels.
	for c := range min(in, out) {
		d := dst.data[c][:n]
		for i, v := range src.data[c][:n] {
			d[i] += v
		}
	}
}
