// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	ringBuffer "github.com/dh1tw/golang-ring"
)

// queue holds decoded sample blocks until ReadSamples takes them. Filling
// stops at the ready mark; the ring has one slot more for the block a
// single input chunk can still push, since a full ring overwrites.
type queue struct {
	ring  ringBuffer.Ring
	ready int
	size  int
}

func newQueue(ready int) *queue {
	q := &queue{ready: max(ready, 1)}
	q.reset()

	return q
}

func (q *queue) reset() {
	q.ring = ringBuffer.Ring{}
	q.ring.SetCapacity(q.ready + 1)
	q.size = 0
}

func (q *queue) push(samples []float32) {
	q.ring.Enqueue(samples)
	q.size = min(q.size+1, q.ring.Capacity())
}

func (q *queue) pop() ([]float32, bool) {
	v := q.ring.Dequeue()
	if v == nil {
		return nil, false
	}
	q.size--

	return v.([]float32), true
}

func (q *queue) len() int { return q.size }

// full reports whether the ready mark was reached.
func (q *queue) full() bool { return q.size >= q.ready }
