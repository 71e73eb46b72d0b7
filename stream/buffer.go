// SPDX-License-Identifier: EPL-2.0

package stream

// Buffer is an immutable view of a contiguous byte region. A Buffer is linked
// into at most one BufferList.
type Buffer struct {
	data []byte
	prev *Buffer
	next *Buffer
}

// NewBuffer wraps data without copying it. The caller must not modify data
// afterwards.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// AllocBuffer returns a zeroed buffer of n bytes.
func AllocBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, n)}
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the underlying bytes. They must be treated as read-only.
func (b *Buffer) Bytes() []byte { return b.data }

// Prev returns the buffer before b in its list, if any.
func (b *Buffer) Prev() *Buffer { return b.prev }

// Next returns the buffer after b in its list, if any.
func (b *Buffer) Next() *Buffer { return b.next }

// Copy returns an unlinked deep copy of b.
func (b *Buffer) Copy() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)

	return &Buffer{data: data}
}

// Slice returns an unlinked buffer over length bytes starting at pos. The
// bytes are shared with b; positions are clamped to the buffer bounds.
func (b *Buffer) Slice(pos, length int) *Buffer {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.data) {
		pos = len(b.data)
	}
	end := pos + length
	if length < 0 || end > len(b.data) {
		end = len(b.data)
	}

	return &Buffer{data: b.data[pos:end:end]}
}
