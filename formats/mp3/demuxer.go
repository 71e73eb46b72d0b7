// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	xingFrames = 1 << iota
	xingBytes
	xingTOC
)

// vbriOffset is where a VBRI header sits: past the header and 32 bytes of
// side info, whatever the mode.
const vbriOffset = headerSize + 32

// Probe skips an ID3v2 tag and then needs a valid frame header. The probed
// bytes must cover the tag and the header after it.
func Probe(s *stream.Stream) bool {
	n := s.RemainingBytes()
	head, err := s.PeekBuffer(0, min(n, id3HeaderSize))
	if err != nil {
		return false
	}

	off := TagSize(head.Bytes())
	if off+headerSize > n {
		return false
	}

	b, err := s.PeekBuffer(off, headerSize)
	if err != nil {
		return false
	}
	_, err = ParseHeader(b.Bytes())

	return err == nil
}

// Demuxer strips ID3v2 tags and the Xing, Info or VBRI frame and passes the
// frames through unchanged.
type Demuxer struct {
	audio.DemuxerBase

	readTag    bool
	readHeader bool
	// vbr is set once a Xing or VBRI frame gave the duration.
	vbr       bool
	estimated bool
	bitrate   int
	dataBytes int64
}

func NewDemuxer() audio.Demuxer {
	d := &Demuxer{}
	d.Init(d.readChunk)

	return d
}

func (d *Demuxer) readChunk() error {
	s := d.Stream

	if !d.readTag {
		if err := d.readID3(); err != nil {
			return err
		}
		d.readTag = true
	}

	if !d.readHeader {
		if err := d.readFirstFrame(); err != nil {
			return err
		}
		d.readHeader = true
	}

	for s.RemainingBytes() > 0 {
		buf, err := s.ReadSingleBuffer(s.RemainingBytes())
		if err != nil {
			return err
		}
		d.dataBytes += int64(buf.Len())
		d.EmitData(buf)
	}

	if d.Final() && !d.vbr && !d.estimated && d.bitrate > 0 {
		d.estimated = true
		f, _ := d.Format()
		frames := d.dataBytes * 8 * int64(f.SampleRate) / int64(d.bitrate)
		d.EmitDuration(audio.Millis(frames, f.SampleRate))
	}

	return stream.ErrUnderflow
}

func (d *Demuxer) readID3() error {
	s := d.Stream
	if !s.Available(id3HeaderSize) {
		if d.Final() {
			return nil
		}
		return stream.ErrUnderflow
	}

	head, _ := s.PeekBuffer(0, id3HeaderSize)
	size := TagSize(head.Bytes())
	if size == 0 {
		return nil
	}
	if !s.Available(size) {
		if d.Final() {
			size = s.RemainingBytes()
		} else {
			return stream.ErrUnderflow
		}
	}

	tag, err := s.ReadBuffer(size)
	if err != nil {
		return err
	}
	if m := parseID3(tag.Bytes()); m != nil {
		d.EmitMetadata(m)
	}

	return nil
}

// readFirstFrame skips to the first header, emits the format and reads the
// duration and seek table a VBR info frame carries.
func (d *Demuxer) readFirstFrame() error {
	s := d.Stream

	for {
		if !s.Available(headerSize) {
			if d.Final() {
				return ErrNotMP3File
			}
			return stream.ErrUnderflow
		}

		b, _ := s.PeekBuffer(0, headerSize)
		h, err := ParseHeader(b.Bytes())
		if err != nil {
			_ = s.Advance(1)
			continue
		}

		n := h.FrameSize()
		if n > 0 && !s.Available(n) && !d.Final() {
			return stream.ErrUnderflow
		}

		f := audio.Format{
			FormatID:         FormatID,
			SampleRate:       float64(h.SampleRate),
			ChannelsPerFrame: h.Channels(),
			FramesPerPacket:  h.SamplesPerFrame(),
			Bitrate:          h.Bitrate,
		}
		d.bitrate = h.Bitrate

		var frame []byte
		if n > 0 && s.Available(n) {
			buf, _ := s.PeekBuffer(0, n)
			frame = buf.Bytes()
		}

		if info, ok := readVBRInfo(&h, frame); ok {
			d.vbr = true
			total := info.frames * int64(h.SamplesPerFrame())
			if info.bytes > 0 && total > 0 {
				f.Bitrate = int(info.bytes * 8 * int64(h.SampleRate) / total)
			}
			d.EmitFormat(f)
			d.EmitDuration(audio.Millis(total, f.SampleRate))
			for _, p := range info.points {
				d.AddSeekPoint(max(0, p.Offset-int64(n)), p.Timestamp)
			}

			return s.Advance(n)
		}

		d.EmitFormat(f)

		return nil
	}
}

type vbrInfo struct {
	frames int64
	bytes  int64
	points []audio.SeekPoint
}

// readVBRInfo reads a Xing, Info or VBRI header from the first frame. Seek
// point offsets count from the start of that frame.
func readVBRInfo(h *Header, frame []byte) (vbrInfo, bool) {
	if h.Layer != Layer3 || len(frame) == 0 {
		return vbrInfo{}, false
	}

	if info, ok := readXing(h, frame[min(len(frame), h.dataOffset()+h.sideInfoSize()):]); ok {
		return info, true
	}

	return readVBRI(h, frame)
}

func readXing(h *Header, b []byte) (vbrInfo, bool) {
	if len(b) < 8 || (string(b[:4]) != "Xing" && string(b[:4]) != "Info") {
		return vbrInfo{}, false
	}

	var info vbrInfo
	flags := binary.BigEndian.Uint32(b[4:8])
	b = b[8:]
	if flags&xingFrames != 0 {
		if len(b) < 4 {
			return vbrInfo{}, false
		}
		info.frames = int64(binary.BigEndian.Uint32(b))
		b = b[4:]
	}
	if flags&xingBytes != 0 {
		if len(b) < 4 {
			return vbrInfo{}, false
		}
		info.bytes = int64(binary.BigEndian.Uint32(b))
		b = b[4:]
	}
	if info.frames == 0 {
		return vbrInfo{}, false
	}

	if flags&xingTOC != 0 && len(b) >= 100 && info.bytes > 0 {
		total := info.frames * int64(h.SamplesPerFrame())
		for i := range 100 {
			info.points = append(info.points, audio.SeekPoint{
				Offset:    int64(b[i]) * info.bytes / 256,
				Timestamp: total * int64(i) / 100,
			})
		}
	}

	return info, true
}

func readVBRI(h *Header, frame []byte) (vbrInfo, bool) {
	b := frame[min(len(frame), vbriOffset):]
	if len(b) < 26 || string(b[:4]) != "VBRI" {
		return vbrInfo{}, false
	}

	info := vbrInfo{
		bytes:  int64(binary.BigEndian.Uint32(b[10:14])),
		frames: int64(binary.BigEndian.Uint32(b[14:18])),
	}
	if info.frames == 0 {
		return vbrInfo{}, false
	}

	entries := int(binary.BigEndian.Uint16(b[18:20]))
	scale := int64(binary.BigEndian.Uint16(b[20:22]))
	entrySize := int(binary.BigEndian.Uint16(b[22:24]))
	framesPerEntry := int64(binary.BigEndian.Uint16(b[24:26]))
	toc := b[26:]
	if entrySize < 1 || entrySize > 4 || len(toc) < entries*entrySize {
		return info, true
	}

	spf := int64(h.SamplesPerFrame())
	offset := int64(len(frame))
	for i := range entries {
		info.points = append(info.points, audio.SeekPoint{Offset: offset, Timestamp: int64(i) * framesPerEntry * spf})

		var v int64
		for _, c := range toc[i*entrySize : (i+1)*entrySize] {
			v = v<<8 | int64(c)
		}
		offset += v * scale
	}

	return info, true
}
