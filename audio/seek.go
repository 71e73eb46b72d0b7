// SPDX-License-Identifier: EPL-2.0

package audio

import "sort"

// SeekPoint maps a timestamp, in sample frames, to a byte offset in the
// packet stream a demuxer emits.
type SeekPoint struct {
	Offset    int64
	Timestamp int64
}

// SeekTable keeps seek points ordered by timestamp.
type SeekTable struct {
	points []SeekPoint
}

func (t *SeekTable) Len() int { return len(t.points) }

// Points returns the table in timestamp order.
func (t *SeekTable) Points() []SeekPoint { return t.points }

// Add inserts a point, keeping the table sorted. Appending in timestamp
// order is the common case and costs O(1).
func (t *SeekTable) Add(offset, timestamp int64) {
	i := t.Search(timestamp)
	t.points = append(t.points, SeekPoint{})
	copy(t.points[i+1:], t.points[i:])
	t.points[i] = SeekPoint{Offset: offset, Timestamp: timestamp}
}

// Search returns the index of the first point whose timestamp is not before
// timestamp, or Len() when there is none.
func (t *SeekTable) Search(timestamp int64) int {
	n := len(t.points)
	if n > 0 && t.points[n-1].Timestamp < timestamp {
		return n
	}

	return sort.Search(n, func(i int) bool {
		return t.points[i].Timestamp >= timestamp
	})
}

// Lookup returns the point for timestamp, falling back to the last point
// when timestamp lies past the end of the table.
func (t *SeekTable) Lookup(timestamp int64) (SeekPoint, bool) {
	if len(t.points) == 0 {
		return SeekPoint{}, false
	}

	i := t.Search(timestamp)
	if i >= len(t.points) {
		i = len(t.points) - 1
	}

	return t.points[i], true
}
