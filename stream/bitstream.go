// SPDX-License-Identifier: EPL-2.0

package stream

// MaxBits is the widest value a single Bitstream read can return.
const MaxBits = 40

// Bitstream is a bit cursor layered over a Stream. The byte under the cursor
// is only consumed from the Stream once all of its bits have been read.
type Bitstream struct {
	stream      *Stream
	bitPosition int
}

func NewBitstream(s *Stream) *Bitstream {
	return &Bitstream{stream: s}
}

func (b *Bitstream) Stream() *Stream { return b.stream }

// Copy returns an independent cursor at the same bit position.
func (b *Bitstream) Copy() *Bitstream {
	return &Bitstream{stream: b.stream.Copy(), bitPosition: b.bitPosition}
}

// Offset returns the absolute bit position.
func (b *Bitstream) Offset() int64 {
	return 8*b.stream.Offset() + int64(b.bitPosition)
}

// Available reports whether bits more bits can be read.
func (b *Bitstream) Available(bits int) bool {
	return b.stream.Available((b.bitPosition + bits + 7) / 8)
}

func (b *Bitstream) Advance(bits int) error {
	pos := b.bitPosition + bits
	if err := b.stream.Advance(pos >> 3); err != nil {
		return err
	}
	b.bitPosition = pos & 7

	return nil
}

func (b *Bitstream) Rewind(bits int) error {
	pos := b.bitPosition - bits
	if err := b.stream.Rewind(-(pos >> 3)); err != nil {
		return err
	}
	b.bitPosition = pos & 7

	return nil
}

// Seek moves to the absolute bit offset.
func (b *Bitstream) Seek(offset int64) error {
	cur := b.Offset()
	switch {
	case offset > cur:
		return b.Advance(int(offset - cur))
	case offset < cur:
		return b.Rewind(int(cur - offset))
	}

	return nil
}

// Align skips to the next byte boundary.
func (b *Bitstream) Align() error {
	if b.bitPosition == 0 {
		return nil
	}
	if err := b.stream.Advance(1); err != nil {
		return err
	}
	b.bitPosition = 0

	return nil
}

// window loads the bytes spanned by the next bits bits, most significant
// byte first, and returns them with their total bit width.
func (b *Bitstream) window(bits int) (uint64, int, error) {
	if bits > MaxBits {
		return 0, 0, ErrTooManyBits
	}

	n := (b.bitPosition + bits + 7) / 8
	raw, err := b.stream.peek(0, n)
	if err != nil {
		return 0, 0, err
	}

	return decodeUint(raw, false), n * 8, nil
}

// Peek returns the next bits bits, most significant bit first, without
// consuming them.
func (b *Bitstream) Peek(bits int) (uint64, error) {
	if bits == 0 {
		return 0, nil
	}

	w, width, err := b.window(bits)
	if err != nil {
		return 0, err
	}

	return (w >> (width - b.bitPosition - bits)) & (1<<bits - 1), nil
}

func (b *Bitstream) Read(bits int) (uint64, error) {
	v, err := b.Peek(bits)
	if err != nil {
		return 0, err
	}

	return v, b.Advance(bits)
}

func (b *Bitstream) PeekSigned(bits int) (int64, error) {
	v, err := b.Peek(bits)
	return signExtend(v, bits), err
}

func (b *Bitstream) ReadSigned(bits int) (int64, error) {
	v, err := b.Read(bits)
	return signExtend(v, bits), err
}

// PeekLSB returns the next bits bits, least significant bit first.
func (b *Bitstream) PeekLSB(bits int) (uint64, error) {
	if bits == 0 {
		return 0, nil
	}
	if bits > MaxBits {
		return 0, ErrTooManyBits
	}

	n := (b.bitPosition + bits + 7) / 8
	raw, err := b.stream.peek(0, n)
	if err != nil {
		return 0, err
	}

	return (decodeUint(raw, true) >> b.bitPosition) & (1<<bits - 1), nil
}

func (b *Bitstream) ReadLSB(bits int) (uint64, error) {
	v, err := b.PeekLSB(bits)
	if err != nil {
		return 0, err
	}

	return v, b.Advance(bits)
}

func (b *Bitstream) PeekLSBSigned(bits int) (int64, error) {
	v, err := b.PeekLSB(bits)
	return signExtend(v, bits), err
}

func (b *Bitstream) ReadLSBSigned(bits int) (int64, error) {
	v, err := b.ReadLSB(bits)
	return signExtend(v, bits), err
}

func signExtend(v uint64, bits int) int64 {
	if bits == 0 {
		return 0
	}
	shift := 64 - bits

	return int64(v<<shift) >> shift
}
