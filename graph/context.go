// SPDX-License-Identifier: EPL-2.0

package graph

// Context drives a graph. Time advances by one block per Tick.
type Context struct {
	opts  Options
	frame int64
	dest  *DestinationNode
	sched Scheduler

	pending []float32
	pos     int
}

// NewContext builds a context of 44.1 kHz stereo in blocks of 128 frames
// unless opts say otherwise.
func NewContext(opts ...Option) *Context {
	c := &Context{opts: Options{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		Channels:   DefaultChannels,
		Resample:   defaultResample,
	}}

	for _, opt := range opts {
		opt(&c.opts)
	}
	if c.opts.SampleRate <= 0 {
		c.opts.SampleRate = DefaultSampleRate
	}
	if c.opts.BlockSize <= 0 {
		c.opts.BlockSize = DefaultBlockSize
	}
	if c.opts.Channels <= 0 {
		c.opts.Channels = DefaultChannels
	}
	if c.opts.Resample == nil {
		c.opts.Resample = defaultResample
	}

	c.dest = newDestination(c)

	return c
}

func (c *Context) SampleRate() int { return c.opts.SampleRate }

func (c *Context) BlockSize() int { return c.opts.BlockSize }

func (c *Context) Channels() int { return c.opts.Channels }

// CurrentFrame is the index of the first frame of the next block.
func (c *Context) CurrentFrame() int64 { return c.frame }

// CurrentTime is CurrentFrame in seconds.
func (c *Context) CurrentTime() float64 {
	return float64(c.frame) / float64(c.opts.SampleRate)
}

func (c *Context) Destination() *DestinationNode { return c.dest }

// Schedule runs fn before the block containing time is rendered.
func (c *Context) Schedule(time float64, fn func()) uint64 {
	return c.sched.Schedule(time, fn)
}

func (c *Context) Unschedule(id uint64) bool { return c.sched.Cancel(id) }

// blockEnd is the time of the last frame of the current block.
func (c *Context) blockEnd() float64 {
	return float64(c.frame+int64(c.opts.BlockSize)-1) / float64(c.opts.SampleRate)
}

// sampleTime is the time of frame i of the current block.
func (c *Context) sampleTime(i int) float64 {
	return float64(c.frame+int64(i)) / float64(c.opts.SampleRate)
}

// Tick renders one block and advances time.
func (c *Context) Tick() *AudioBuffer {
	c.sched.Drain(c.blockEnd())
	block := c.dest.outputs[0].pull()
	c.frame += int64(c.opts.BlockSize)

	return block
}

// Render fills out with interleaved destination frames and returns the
// number of samples written, a whole number of frames.
func (c *Context) Render(out []float32) int {
	n := len(out) / c.opts.Channels * c.opts.Channels

	written := 0
	for written < n {
		if c.pos >= len(c.pending) {
			c.pending = c.Tick().Interleave(c.pending[:0])
			c.pos = 0
		}
		k := copy(out[written:n], c.pending[c.pos:])
		written += k
		c.pos += k
	}

	return written
}
