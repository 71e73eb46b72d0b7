// SPDX-License-Identifier: EPL-2.0

// Package graph runs a block based audio processing graph.
//
// A Context owns a DestinationNode and a frame counter. Every Tick pulls
// one block of BlockSize frames from the destination, which pulls its
// inputs recursively. Each node renders at most once per tick: its outputs
// keep the block computed for the current frame, so fan-out to several
// consumers is free.
//
// # Channels
//
// Every input computes its channel count from its connections according to
// the node's ChannelCountMode, then mixes each connection to that count:
//
//   - Max takes the largest connected channel count.
//   - ClampedMax does the same but never exceeds ChannelCount.
//   - Explicit always uses ChannelCount.
//
// With Speakers interpretation the mono, stereo, quad and 5.1 layouts are
// up- and down-mixed through fixed matrices; any other pair, and every pair
// under Discrete, copies the common channels and drops or zero-fills the
// rest.
//
// # Automation
//
// AudioParam values follow a time-ordered list of events (set, linear and
// exponential ramps, target approach and value curves). A-rate params are
// evaluated per sample, k-rate params once per block. Outputs connected to
// a param are mixed to mono and added to its computed value.
//
// # Rendering
//
// Render is the refill callback for an output device: it fills an
// interleaved float32 slice with as many frames as it holds, ticking the
// graph as needed and keeping the remainder of the last block for the next
// call.
//
// The graph is not safe for concurrent use. Changing connections while a
// tick is running is not supported.
package graph
