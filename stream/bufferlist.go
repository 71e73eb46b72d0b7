// SPDX-License-Identifier: EPL-2.0

package stream

// BufferList is a doubly linked list of buffers with a movable head.
//
// Advancing moves the head forward without unlinking anything, so the list
// can always be rewound. AvailableBytes is the total length of the buffers
// from First to Last.
type BufferList struct {
	first *Buffer
	last  *Buffer

	numBuffers       int
	availableBuffers int
	availableBytes   int
}

func NewBufferList() *BufferList {
	return &BufferList{}
}

// First returns the current head, or nil once every buffer was advanced past.
func (l *BufferList) First() *Buffer { return l.first }

// Last returns the most recently appended buffer.
func (l *BufferList) Last() *Buffer { return l.last }

func (l *BufferList) NumBuffers() int       { return l.numBuffers }
func (l *BufferList) AvailableBuffers() int { return l.availableBuffers }
func (l *BufferList) AvailableBytes() int   { return l.availableBytes }

// Append links buf at the tail and returns the new number of buffers.
func (l *BufferList) Append(buf *Buffer) int {
	buf.prev = l.last
	buf.next = nil
	if l.last != nil {
		l.last.next = buf
	}
	l.last = buf
	if l.first == nil {
		l.first = buf
	}

	l.availableBytes += buf.Len()
	l.availableBuffers++
	l.numBuffers++

	return l.numBuffers
}

// Advance drops the head from the available range. It reports whether a new
// head exists.
func (l *BufferList) Advance() bool {
	if l.first == nil {
		return false
	}

	l.availableBytes -= l.first.Len()
	l.availableBuffers--
	l.first = l.first.next

	return l.first != nil
}

// Rewind makes the buffer before the head the new head. When the list was
// advanced past its last buffer, Last becomes the head again.
func (l *BufferList) Rewind() bool {
	if l.first != nil && l.first.prev == nil {
		return false
	}

	if l.first != nil {
		l.first = l.first.prev
	} else {
		l.first = l.last
	}
	if l.first == nil {
		return false
	}

	l.availableBytes += l.first.Len()
	l.availableBuffers++

	return true
}

// Reset rewinds the list all the way back to its first buffer.
func (l *BufferList) Reset() {
	for l.Rewind() {
	}
}
