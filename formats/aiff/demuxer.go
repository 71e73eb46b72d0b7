// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

// compression maps AIFC compression types to format IDs.
var compression = map[string]string{
	"NONE": "lpcm",
	"twos": "lpcm",
	"sowt": "lpcm",
	"fl32": "lpcm",
	"FL32": "lpcm",
	"fl64": "lpcm",
	"FL64": "lpcm",
	"ulaw": "ulaw",
	"ULAW": "ulaw",
	"alaw": "alaw",
	"ALAW": "alaw",
}

// textChunks maps the AIFF text chunks to metadata keys.
var textChunks = map[string]string{
	"NAME": "title",
	"AUTH": "artist",
	"(c) ": "copyright",
	"ANNO": "comments",
}

// Probe matches an IFF FORM of type AIFF or AIFC.
func Probe(s *stream.Stream) bool {
	form, err := s.PeekString(0, 4, stream.ASCII)
	if err != nil || form != "FORM" {
		return false
	}
	typ, err := s.PeekString(8, 4, stream.ASCII)

	return err == nil && (typ == "AIFF" || typ == "AIFC")
}

// Demuxer parses AIFF and AIFC files. All multi-byte fields are big endian.
type Demuxer struct {
	audio.DemuxerBase

	readStart  bool
	aifc       bool
	inChunk    bool
	chunkType  string
	chunkLen   int
	remaining  int
	readOffset bool
}

func NewDemuxer() audio.Demuxer {
	d := &Demuxer{}
	d.Init(d.readChunk)

	return d
}

func (d *Demuxer) readChunk() error {
	s := d.Stream

	if !d.readStart {
		if !s.Available(12) {
			return stream.ErrUnderflow
		}
		if !Probe(s) {
			return ErrNotAiffFile
		}
		typ, _ := s.PeekString(8, 4, stream.ASCII)
		d.aifc = typ == "AIFC"
		if err := s.Advance(12); err != nil {
			return err
		}
		d.readStart = true
	}

	for {
		if !d.inChunk {
			if !s.Available(8) {
				return stream.ErrUnderflow
			}
			typ, err := s.ReadString(4, stream.ASCII)
			if err != nil {
				return err
			}
			n, err := s.ReadUInt32(false)
			if err != nil {
				return err
			}
			d.chunkType, d.chunkLen, d.remaining = typ, int(n), int(n)
			d.readOffset = false
			d.inChunk = true
		}

		var err error
		switch d.chunkType {
		case "COMM":
			err = d.readCommon()
		case "SSND":
			err = d.readSound()
		default:
			if key, ok := textChunks[d.chunkType]; ok {
				err = d.readText(key)
			} else {
				err = d.skipChunk()
			}
		}
		if err != nil {
			return err
		}
	}
}

func (d *Demuxer) pad() int { return d.chunkLen % 2 }

func (d *Demuxer) skipChunk() error {
	n := d.remaining + d.pad()
	if !d.Stream.Available(n) {
		return stream.ErrUnderflow
	}
	if err := d.Stream.Advance(n); err != nil {
		return err
	}
	d.inChunk = false

	return nil
}

func (d *Demuxer) readCommon() error {
	s := d.Stream
	if !s.Available(d.chunkLen + d.pad()) {
		return stream.ErrUnderflow
	}
	start := s.Offset()

	channels, _ := s.ReadUInt16(false)
	frames, _ := s.ReadUInt32(false)
	bits, _ := s.ReadUInt16(false)
	rate, err := s.ReadFloat80(false)
	if err != nil {
		return err
	}

	f := audio.Format{
		FormatID:         "lpcm",
		SampleRate:       rate,
		ChannelsPerFrame: int(channels),
		BitsPerChannel:   int(bits),
		FramesPerPacket:  1,
	}

	if d.aifc {
		kind, err := s.ReadString(4, stream.ASCII)
		if err != nil {
			return err
		}
		id, ok := compression[kind]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnsupportedCompression, kind)
		}
		f.FormatID = id

		switch kind {
		case "sowt":
			f.LittleEndian = bits > 8
		case "fl32", "FL32":
			f.FloatingPoint, f.BitsPerChannel = true, 32
		case "fl64", "FL64":
			f.FloatingPoint, f.BitsPerChannel = true, 64
		}
		if id != "lpcm" {
			f.BitsPerChannel = 8
		}
	}

	f.BytesPerPacket = f.BitsPerChannel / 8 * f.ChannelsPerFrame
	if f.BytesPerPacket > 0 {
		f.Bitrate = int(rate) * f.BytesPerPacket * 8
	}

	// The AIFC compression name is a pascal string nobody needs.
	used := int(s.Offset() - start)
	if err := s.Advance(d.chunkLen - used + d.pad()); err != nil {
		return err
	}
	d.inChunk = false

	d.EmitFormat(f)
	d.EmitDuration(audio.Millis(int64(frames), rate))

	return nil
}

func (d *Demuxer) readText(key string) error {
	s := d.Stream
	if !s.Available(d.chunkLen + d.pad()) {
		return stream.ErrUnderflow
	}

	text, err := s.ReadString(d.chunkLen, stream.Latin1)
	if err != nil {
		return err
	}
	if err := s.Advance(d.pad()); err != nil {
		return err
	}
	d.inChunk = false

	if text != "" {
		d.EmitMetadata(audio.Metadata{key: text})
	}

	return nil
}

func (d *Demuxer) readSound() error {
	s := d.Stream
	if _, ok := d.Format(); !ok {
		return ErrMissingCommonChunk
	}

	if !d.readOffset {
		if !s.Available(8) {
			return stream.ErrUnderflow
		}
		offset, _ := s.PeekUInt32(0, false)
		if !s.Available(8 + int(offset)) {
			return stream.ErrUnderflow
		}
		if err := s.Advance(8 + int(offset)); err != nil {
			return err
		}
		d.remaining = max(0, d.chunkLen-8-int(offset))
		d.readOffset = true
	}

	for d.remaining > 0 {
		buf, err := s.ReadSingleBuffer(d.remaining)
		if err != nil {
			return err
		}
		d.remaining -= buf.Len()
		d.EmitData(buf)
	}

	return d.skipChunk()
}
