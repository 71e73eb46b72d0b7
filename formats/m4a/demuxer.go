// SPDX-License-Identifier: EPL-2.0

package m4a

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

// maxBufferedBox bounds boxes that are read whole.
const maxBufferedBox = 1 << 30

var brands = map[string]bool{
	"M4A ": true,
	"M4P ": true,
	"M4B ": true,
	"M4V ": true,
	"isom": true,
	"mp42": true,
	"qt  ": true,
}

func Probe(s *stream.Stream) bool {
	typ, err := s.PeekString(4, 4, stream.ASCII)
	if err != nil || typ != "ftyp" {
		return false
	}
	brand, err := s.PeekString(8, 4, stream.ASCII)

	return err == nil && brands[brand]
}

type span struct{ start, end int64 }

type Demuxer struct {
	audio.DemuxerBase

	readFtyp bool
	inBox    bool
	boxType  string
	boxStart int64
	// boxEnd is -1 for a box that runs to the end of the file.
	boxEnd    int64
	bodyStart int64

	track *track
	next  int
	// mdats holds media data skipped before moov arrived.
	mdats []span
}

func NewDemuxer() audio.Demuxer {
	d := &Demuxer{}
	d.Init(d.readChunk)

	return d
}

func (d *Demuxer) readChunk() error {
	s := d.Stream

	for {
		if !d.inBox {
			if err := d.readBoxHeader(); err != nil {
				return err
			}
		}

		if !d.readFtyp {
			if d.boxType != "ftyp" {
				return ErrNotM4AFile
			}
			d.readFtyp = true
		}

		var err error
		switch d.boxType {
		case "moov":
			err = d.readMoov()
		case "mdat":
			err = d.readMdat()
		default:
			err = d.skip()
		}
		if err != nil {
			return err
		}

		if d.boxEnd < 0 && s.RemainingBytes() == 0 {
			return stream.ErrUnderflow
		}
	}
}

func (d *Demuxer) readBoxHeader() error {
	s := d.Stream
	if !s.Available(smallHeaderSize) {
		return stream.ErrUnderflow
	}

	size, _ := s.PeekUInt32(0, false)
	typ, err := s.PeekString(4, 4, stream.ASCII)
	if err != nil {
		return err
	}

	header := int64(smallHeaderSize)
	boxSize := int64(size)
	switch size {
	case 0:
		boxSize = -1
	case 1:
		if !s.Available(largeHeaderSize) {
			return stream.ErrUnderflow
		}
		large, _ := s.PeekUInt64(8, false)
		if large > 1<<62 {
			return fmt.Errorf("%w: %s box of %d bytes", ErrInvalidBoxSize, typ, large)
		}
		boxSize = int64(large)
		header = largeHeaderSize
	}
	if boxSize >= 0 && boxSize < header {
		return fmt.Errorf("%w: %s box of %d bytes", ErrInvalidBoxSize, typ, boxSize)
	}

	d.boxType = typ
	d.boxStart = s.Offset()
	d.bodyStart = d.boxStart + header
	d.boxEnd = -1
	if boxSize >= 0 {
		d.boxEnd = d.boxStart + boxSize
	}
	d.inBox = true

	return s.Advance(int(header))
}

// whole waits until the rest of the current box is buffered.
func (d *Demuxer) whole() error {
	if d.boxEnd < 0 || d.boxEnd-d.boxStart > maxBufferedBox {
		return fmt.Errorf("%w: %s box must be sized", ErrInvalidBoxSize, d.boxType)
	}
	if !d.Stream.Available(int(d.boxEnd - d.Stream.Offset())) {
		return stream.ErrUnderflow
	}

	return nil
}

func (d *Demuxer) skip() error {
	if err := d.whole(); err != nil {
		return err
	}
	if err := d.Stream.Seek(d.boxEnd); err != nil {
		return err
	}
	d.inBox = false

	return nil
}

func (d *Demuxer) readMoov() error {
	if err := d.whole(); err != nil {
		return err
	}
	s := d.Stream

	if err := s.Seek(d.boxStart); err != nil {
		return err
	}
	buf, err := s.ReadBuffer(int(d.boxEnd - d.boxStart))
	if err != nil {
		return err
	}
	d.inBox = false

	t, err := parseMoov(buf.Bytes())
	if err != nil {
		return err
	}
	d.setTrack(t)

	if len(d.mdats) == 0 {
		return nil
	}

	// The media data came first and is still buffered.
	resume := s.Offset()
	for _, m := range d.mdats {
		if err := d.emitPackets(m.start, m.end); err != nil {
			return err
		}
	}
	d.mdats = nil

	return s.Seek(resume)
}

func (d *Demuxer) setTrack(t *track) {
	d.track = t
	d.EmitFormat(t.format)
	if len(t.cookie) > 0 {
		d.EmitCookie(t.cookie)
	}
	if t.duration > 0 {
		d.EmitDuration(audio.Millis(t.duration, t.format.SampleRate))
	}
	if len(t.metadata) > 0 {
		d.EmitMetadata(t.metadata)
	}

	if t.format.Constant() {
		return
	}
	var offset int64
	for _, p := range t.packets {
		d.AddSeekPoint(offset, p.timestamp)
		offset += p.size
	}
}

func (d *Demuxer) readMdat() error {
	s := d.Stream

	if d.track == nil {
		if err := d.whole(); err != nil {
			return err
		}
		d.mdats = append(d.mdats, span{start: d.bodyStart, end: d.boxEnd})

		return d.skip()
	}

	if err := d.emitPackets(d.bodyStart, d.boxEnd); err != nil {
		return err
	}
	if d.boxEnd < 0 {
		// Everything left belongs to this box.
		return s.Advance(s.RemainingBytes())
	}
	if err := s.Seek(d.boxEnd); err != nil {
		return err
	}
	d.inBox = false

	return nil
}

// emitPackets emits the packets stored in [start, end) in decode order. end
// is -1 for media data running to the end of the file.
func (d *Demuxer) emitPackets(start, end int64) error {
	s := d.Stream
	packets := d.track.packets

	for d.next < len(packets) {
		p := packets[d.next]
		if end >= 0 && p.offset >= end {
			return nil
		}
		if p.offset < start || (end >= 0 && p.offset+p.size > end) {
			return fmt.Errorf("%w: %d bytes at %d", ErrPacketOutOfRange, p.size, p.offset)
		}

		if p.offset < s.Offset() {
			if err := s.Seek(p.offset); err != nil {
				return err
			}
		}
		if !s.Available(int(p.offset - s.Offset() + p.size)) {
			return stream.ErrUnderflow
		}
		if err := s.Seek(p.offset); err != nil {
			return err
		}
		buf, err := s.ReadBuffer(int(p.size))
		if err != nil {
			return err
		}
		d.next++
		d.EmitData(buf)
	}

	return nil
}
