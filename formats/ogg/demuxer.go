// SPDX-License-Identifier: EPL-2.0

package ogg

import (
	"bytes"
	"encoding/binary"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	pageHeaderSize = 27
	crcOffset      = 22
	maxSegment     = 255
)

// Page header flags.
const (
	flagContinued = 1 << iota
	flagBOS
	flagEOS
)

var capturePattern = []byte("OggS")

// Probe needs the capture pattern and a version 0 page at the start.
func Probe(s *stream.Stream) bool {
	b, err := s.PeekBuffer(0, 5)
	if err != nil {
		return false
	}

	return bytes.Equal(b.Bytes()[:4], capturePattern) && b.Bytes()[4] == 0
}

// Demuxer reassembles the packets of the first logical stream.
type Demuxer struct {
	audio.DemuxerBase

	started bool
	serial  uint32
	codec   codec
	packets int
	// pending holds a packet continued on the next page.
	pending []byte
	// emitted counts the packet bytes handed to the decoder.
	emitted  int64
	granule  int64
	reported bool
}

func NewDemuxer() audio.Demuxer {
	d := &Demuxer{granule: -1}
	d.Init(d.readChunk)

	return d
}

func (d *Demuxer) readChunk() error {
	s := d.Stream

	for {
		if !s.Available(pageHeaderSize) {
			break
		}

		head, _ := s.PeekBuffer(0, pageHeaderSize)
		h := head.Bytes()
		if !bytes.Equal(h[:4], capturePattern) {
			if !d.started {
				return ErrNotOggFile
			}
			// Lost capture; resynchronize byte by byte.
			if err := s.Advance(1); err != nil {
				return err
			}
			continue
		}
		if h[4] != 0 {
			return ErrBadVersion
		}

		segments := int(h[26])
		if !s.Available(pageHeaderSize + segments) {
			break
		}
		lacing, _ := s.PeekBuffer(pageHeaderSize, segments)
		size := pageHeaderSize + segments
		for _, v := range lacing.Bytes() {
			size += int(v)
		}
		if !s.Available(size) {
			break
		}

		page, _ := s.PeekBuffer(0, size)
		if pageCRC(page.Bytes()) != binary.LittleEndian.Uint32(page.Bytes()[crcOffset:]) {
			if !d.started {
				return ErrNotOggFile
			}
			if err := s.Advance(1); err != nil {
				return err
			}
			continue
		}
		if err := s.Advance(size); err != nil {
			return err
		}

		if err := d.readPage(page.Bytes(), segments); err != nil {
			return err
		}
	}

	if d.Final() {
		if !d.started && s.RemainingBytes() > 0 {
			return ErrNotOggFile
		}
		d.reportDuration()
	}

	return stream.ErrUnderflow
}

func (d *Demuxer) readPage(page []byte, segments int) error {
	flags := page[5]
	granule := int64(binary.LittleEndian.Uint64(page[6:]))
	serial := binary.LittleEndian.Uint32(page[14:])

	if !d.started {
		if flags&flagBOS == 0 {
			return ErrNoBOS
		}
		d.started = true
		d.serial = serial
	}
	if serial != d.serial {
		return nil
	}

	if flags&flagContinued == 0 {
		d.pending = d.pending[:0]
	}

	lacing := page[pageHeaderSize : pageHeaderSize+segments]
	body := page[pageHeaderSize+segments:]
	completed := false
	for _, n := range lacing {
		d.pending = append(d.pending, body[:n]...)
		body = body[n:]
		if n == maxSegment {
			continue
		}

		pkt := d.pending
		d.pending = nil
		if err := d.readPacket(pkt); err != nil {
			return err
		}
		completed = true
	}

	if completed && granule >= 0 && d.packets > d.codec.headers {
		d.granule = granule
		d.AddSeekPoint(d.emitted, d.timestamp(granule))
	}
	if flags&flagEOS != 0 {
		d.reportDuration()
	}

	return nil
}

func (d *Demuxer) readPacket(pkt []byte) error {
	if d.packets == 0 {
		f, c, err := identify(pkt)
		if err != nil {
			return err
		}
		d.codec = c
		d.EmitFormat(f)
	}
	d.packets++

	if d.packets == 2 && bytes.HasPrefix(pkt, d.codec.comments) {
		if meta, err := parseComments(pkt[len(d.codec.comments):]); err == nil && len(meta) > 0 {
			d.EmitMetadata(meta)
		}
	}
	if d.packets == d.codec.headers+1 {
		d.AddSeekPoint(d.emitted, 0)
	}

	d.EmitData(stream.NewBuffer(pkt))
	d.emitted += int64(len(pkt))

	return nil
}

// timestamp converts a granule position into sample frames.
func (d *Demuxer) timestamp(granule int64) int64 {
	return max(0, granule-d.codec.preSkip)
}

func (d *Demuxer) reportDuration() {
	if d.reported || d.granule < 0 {
		return
	}

	f, ok := d.Format()
	if !ok {
		return
	}
	d.reported = true
	d.EmitDuration(audio.Millis(d.timestamp(d.granule), f.SampleRate))
}
