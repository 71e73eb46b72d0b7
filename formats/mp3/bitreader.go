// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"

	"github.com/ik5/audpipe/stream"
)

// bitReader reads MSB-first from main data. Reads past the end return zero
// bits; Huffman decoding is bounded by part2_3_length instead.
type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) read(n int) uint64 {
	var v uint64
	for n > 0 {
		var b byte
		if i := r.pos >> 3; i < len(r.data) {
			b = r.data[i]
		}

		avail := 8 - r.pos&7
		take := min(avail, n)
		v = v<<take | uint64(b>>(avail-take))&(1<<take-1)
		r.pos += take
		n -= take
	}

	return v
}

func (r *bitReader) skip(n int) { r.pos += n }

// bitsLeft is the number of unread bits in the current byte.
func (r *bitReader) bitsLeft() int { return 8 - r.pos&7 }

// bitCache buffers up to 64 bits ahead of a bitReader for the Huffman
// decoder. size counts the valid low bits of cache; left counts the bits
// of the part still unread by the reader.
type bitCache struct {
	r     bitReader
	cache uint64
	size  int
	left  int
}

func (c *bitCache) fill(bits int) {
	c.cache = c.cache<<bits | c.r.read(bits)
	c.size += bits
	c.left -= bits
}

// mask returns the next n unconsumed bits without consuming them.
func (c *bitCache) mask(n int) int {
	return int(c.cache>>(c.size-n)) & (1<<n - 1)
}

func (c *bitCache) take(n int) int {
	v := c.mask(n)
	c.size -= n

	return v
}

// fieldReader reads fixed width fields from a frame and keeps the first
// error, so a run of reads needs a single check.
type fieldReader struct {
	bs  *stream.Bitstream
	err error
}

func newFieldReader(frame []byte) *fieldReader {
	return &fieldReader{bs: stream.NewBitstream(stream.FromBytes(frame))}
}

func (f *fieldReader) read(bits int) int {
	if f.err != nil {
		return 0
	}

	v, err := f.bs.Read(bits)
	if err != nil {
		f.err = err
		return 0
	}

	return int(v)
}

func (f *fieldReader) skip(bits int) {
	if f.err == nil {
		f.err = f.bs.Advance(bits)
	}
}

// Err reports the first failure. Running out of frame bytes means the
// frame is too short, never that more input is needed.
func (f *fieldReader) Err() error {
	if errors.Is(f.err, stream.ErrUnderflow) {
		return ErrBadFrameLen
	}

	return f.err
}
