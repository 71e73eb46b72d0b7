// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"encoding/binary"
	"math"
)

// Stream is a byte cursor over a BufferList. Offset counts every byte
// consumed since the start of the list.
type Stream struct {
	list        *BufferList
	localOffset int
	offset      int64

	scratch [16]byte
}

func New(list *BufferList) *Stream {
	return &Stream{list: list}
}

// FromBytes returns a Stream over a single buffer holding data.
func FromBytes(data []byte) *Stream {
	list := NewBufferList()
	list.Append(NewBuffer(data))

	return New(list)
}

// Copy returns a cursor at the same position that moves independently of s.
// The buffers themselves are shared.
func (s *Stream) Copy() *Stream {
	list := *s.list

	return &Stream{list: &list, localOffset: s.localOffset, offset: s.offset}
}

func (s *Stream) List() *BufferList { return s.list }

// Offset returns the absolute byte position of the cursor.
func (s *Stream) Offset() int64 { return s.offset }

// RemainingBytes returns the number of buffered bytes after the cursor.
func (s *Stream) RemainingBytes() int {
	return s.list.availableBytes - s.localOffset
}

// Available reports whether n bytes can be read from the cursor.
func (s *Stream) Available(n int) bool {
	return n >= 0 && n <= s.RemainingBytes()
}

// Advance moves the cursor forward by n bytes.
func (s *Stream) Advance(n int) error {
	if !s.Available(n) {
		return ErrUnderflow
	}

	s.localOffset += n
	s.offset += int64(n)

	for s.list.first != nil && s.localOffset >= s.list.first.Len() {
		s.localOffset -= s.list.first.Len()
		s.list.Advance()
	}

	return nil
}

// Rewind moves the cursor back by n bytes. It works even after the cursor
// consumed every buffered byte.
func (s *Stream) Rewind(n int) error {
	if n < 0 || int64(n) > s.offset {
		return ErrUnderflow
	}
	if n == 0 {
		return nil
	}

	if s.list.first == nil {
		s.list.Rewind()
		s.localOffset = s.list.first.Len()
	}

	s.localOffset -= n
	s.offset -= int64(n)

	for s.list.first.prev != nil && s.localOffset < 0 {
		s.list.Rewind()
		s.localOffset += s.list.first.Len()
	}

	return nil
}

// Seek moves the cursor to the absolute position pos.
func (s *Stream) Seek(pos int64) error {
	switch {
	case pos > s.offset:
		return s.Advance(int(pos - s.offset))
	case pos < s.offset:
		return s.Rewind(int(s.offset - pos))
	}

	return nil
}

// copyAt copies len(dst) bytes starting offset bytes past the cursor.
func (s *Stream) copyAt(offset int, dst []byte) error {
	if offset < 0 || !s.Available(offset+len(dst)) {
		return ErrUnderflow
	}

	pos := s.localOffset + offset
	buf := s.list.first
	for buf != nil && pos >= buf.Len() {
		pos -= buf.Len()
		buf = buf.next
	}

	n := 0
	for buf != nil && n < len(dst) {
		n += copy(dst[n:], buf.data[pos:])
		pos = 0
		buf = buf.next
	}

	return nil
}

func (s *Stream) peek(offset, n int) ([]byte, error) {
	b := s.scratch[:n]
	if err := s.copyAt(offset, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Stream) read(n int) ([]byte, error) {
	b, err := s.peek(0, n)
	if err != nil {
		return nil, err
	}

	return b, s.Advance(n)
}

// decodeUint assembles up to 8 bytes given in stream order.
func decodeUint(b []byte, littleEndian bool) uint64 {
	var v uint64
	if littleEndian {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}

		return v
	}
	for _, c := range b {
		v = v<<8 | uint64(c)
	}

	return v
}

func (s *Stream) readUint(n int, littleEndian bool) (uint64, error) {
	b, err := s.read(n)
	if err != nil {
		return 0, err
	}

	return decodeUint(b, littleEndian), nil
}

func (s *Stream) peekUint(offset, n int, littleEndian bool) (uint64, error) {
	b, err := s.peek(offset, n)
	if err != nil {
		return 0, err
	}

	return decodeUint(b, littleEndian), nil
}

func (s *Stream) ReadUInt8() (uint8, error) {
	v, err := s.readUint(1, false)
	return uint8(v), err
}

func (s *Stream) PeekUInt8(offset int) (uint8, error) {
	v, err := s.peekUint(offset, 1, false)
	return uint8(v), err
}

func (s *Stream) ReadInt8() (int8, error) {
	v, err := s.readUint(1, false)
	return int8(v), err
}

func (s *Stream) PeekInt8(offset int) (int8, error) {
	v, err := s.peekUint(offset, 1, false)
	return int8(v), err
}

func (s *Stream) ReadUInt16(littleEndian bool) (uint16, error) {
	v, err := s.readUint(2, littleEndian)
	return uint16(v), err
}

func (s *Stream) PeekUInt16(offset int, littleEndian bool) (uint16, error) {
	v, err := s.peekUint(offset, 2, littleEndian)
	return uint16(v), err
}

func (s *Stream) ReadInt16(littleEndian bool) (int16, error) {
	v, err := s.readUint(2, littleEndian)
	return int16(v), err
}

func (s *Stream) PeekInt16(offset int, littleEndian bool) (int16, error) {
	v, err := s.peekUint(offset, 2, littleEndian)
	return int16(v), err
}

func (s *Stream) ReadUInt24(littleEndian bool) (uint32, error) {
	v, err := s.readUint(3, littleEndian)
	return uint32(v), err
}

func (s *Stream) PeekUInt24(offset int, littleEndian bool) (uint32, error) {
	v, err := s.peekUint(offset, 3, littleEndian)
	return uint32(v), err
}

// ReadInt24 reads a sign-extended 24-bit integer.
func (s *Stream) ReadInt24(littleEndian bool) (int32, error) {
	v, err := s.readUint(3, littleEndian)
	return int32(uint32(v)<<8) >> 8, err
}

func (s *Stream) PeekInt24(offset int, littleEndian bool) (int32, error) {
	v, err := s.peekUint(offset, 3, littleEndian)
	return int32(uint32(v)<<8) >> 8, err
}

func (s *Stream) ReadUInt32(littleEndian bool) (uint32, error) {
	v, err := s.readUint(4, littleEndian)
	return uint32(v), err
}

func (s *Stream) PeekUInt32(offset int, littleEndian bool) (uint32, error) {
	v, err := s.peekUint(offset, 4, littleEndian)
	return uint32(v), err
}

func (s *Stream) ReadInt32(littleEndian bool) (int32, error) {
	v, err := s.readUint(4, littleEndian)
	return int32(v), err
}

func (s *Stream) PeekInt32(offset int, littleEndian bool) (int32, error) {
	v, err := s.peekUint(offset, 4, littleEndian)
	return int32(v), err
}

func (s *Stream) ReadUInt64(littleEndian bool) (uint64, error) {
	return s.readUint(8, littleEndian)
}

func (s *Stream) PeekUInt64(offset int, littleEndian bool) (uint64, error) {
	return s.peekUint(offset, 8, littleEndian)
}

func (s *Stream) ReadFloat32(littleEndian bool) (float32, error) {
	v, err := s.readUint(4, littleEndian)
	return math.Float32frombits(uint32(v)), err
}

func (s *Stream) PeekFloat32(offset int, littleEndian bool) (float32, error) {
	v, err := s.peekUint(offset, 4, littleEndian)
	return math.Float32frombits(uint32(v)), err
}

func (s *Stream) ReadFloat64(littleEndian bool) (float64, error) {
	v, err := s.readUint(8, littleEndian)
	return math.Float64frombits(v), err
}

func (s *Stream) PeekFloat64(offset int, littleEndian bool) (float64, error) {
	v, err := s.peekUint(offset, 8, littleEndian)
	return math.Float64frombits(v), err
}

// ReadFloat80 reads an 80-bit IEEE-754 extended precision value, the sample
// rate encoding used by AIFF.
func (s *Stream) ReadFloat80(littleEndian bool) (float64, error) {
	b, err := s.read(10)
	if err != nil {
		return 0, err
	}

	return float80(b, littleEndian), nil
}

func (s *Stream) PeekFloat80(offset int, littleEndian bool) (float64, error) {
	b, err := s.peek(offset, 10)
	if err != nil {
		return 0, err
	}

	return float80(b, littleEndian), nil
}

func float80(raw []byte, littleEndian bool) float64 {
	var b [10]byte
	copy(b[:], raw)
	if littleEndian {
		for i, j := 0, 9; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
	}

	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1
	}
	exp := int(b[0]&0x7f)<<8 | int(b[1])
	mant := binary.BigEndian.Uint64(b[2:])

	switch {
	case exp == 0 && mant == 0:
		return 0
	case exp == 0x7fff:
		if mant&(1<<63-1) == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	}

	return sign * math.Ldexp(float64(mant), exp-16383-63)
}

// float64Fallback rebuilds a binary64 value from its two 32-bit words
// arithmetically, without reinterpreting bits. ReadFloat64 and PeekFloat64
// decode natively; this is the reference their results are checked against
// and yields the same value as math.Float64frombits for every non-NaN input.
func float64Fallback(high, low uint32) float64 {
	sign := 1.0
	if high>>31 != 0 {
		sign = -1
	}
	exp := int(high>>20) & 0x7ff
	frac := high & 0xfffff

	switch exp {
	case 0x7ff:
		if frac != 0 || low != 0 {
			return math.NaN()
		}
		return math.Inf(int(sign))
	case 0:
		// subnormal: no implicit leading bit
		return sign * (math.Ldexp(float64(frac), -1042) + math.Ldexp(float64(low), -1074))
	}

	exp -= 1023
	out := math.Ldexp(float64(frac|0x100000), exp-20)
	out += math.Ldexp(float64(low), exp-52)

	return sign * out
}

// ReadBuffer copies the next n bytes into a new buffer.
func (s *Stream) ReadBuffer(n int) (*Buffer, error) {
	buf, err := s.PeekBuffer(0, n)
	if err != nil {
		return nil, err
	}

	return buf, s.Advance(n)
}

// PeekBuffer copies n bytes starting offset bytes past the cursor.
func (s *Stream) PeekBuffer(offset, n int) (*Buffer, error) {
	buf := AllocBuffer(n)
	if err := s.copyAt(offset, buf.data); err != nil {
		return nil, err
	}

	return buf, nil
}

// ReadSingleBuffer returns at most n bytes, never crossing the end of the
// head buffer. Appended chunks therefore come back out with their original
// boundaries.
func (s *Stream) ReadSingleBuffer(n int) (*Buffer, error) {
	buf, err := s.PeekSingleBuffer(0, n)
	if err != nil {
		return nil, err
	}

	return buf, s.Advance(buf.Len())
}

func (s *Stream) PeekSingleBuffer(offset, n int) (*Buffer, error) {
	head := s.list.first
	if head == nil || n <= 0 || s.localOffset+offset >= head.Len() {
		return nil, ErrUnderflow
	}

	return head.Slice(s.localOffset+offset, n), nil
}
