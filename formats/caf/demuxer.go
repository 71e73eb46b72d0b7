// SPDX-License-Identifier: EPL-2.0

package caf

import (
	"fmt"
	"strings"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	flagFloat        = 1 << 0
	flagLittleEndian = 1 << 1

	descSize = 32
)

var (
	ErrNotCafFile    = fmt.Errorf("%w: not a CAF file", audio.ErrFormat)
	ErrInvalidDesc   = fmt.Errorf("%w: invalid desc chunk", audio.ErrMalformed)
	ErrMissingDesc   = fmt.Errorf("%w: chunk before desc", audio.ErrMalformed)
	ErrInvalidPacket = fmt.Errorf("%w: invalid packet table", audio.ErrMalformed)
)

// formatIDs maps CAF format IDs that differ from the codec names.
var formatIDs = map[string]string{
	".mp3": "mp3",
	"aac ": "aac",
	"alac": "alac",
}

func Probe(s *stream.Stream) bool {
	m, err := s.PeekString(0, 4, stream.ASCII)

	return err == nil && m == "caff"
}

type Demuxer struct {
	audio.DemuxerBase

	readHeader bool
	inChunk    bool
	chunkType  string
	chunkSize  int64
	remaining  int64
	readEdits  bool
	hasPackets bool
}

func NewDemuxer() audio.Demuxer {
	d := &Demuxer{}
	d.Init(d.readChunk)

	return d
}

func (d *Demuxer) readChunk() error {
	s := d.Stream

	if !d.readHeader {
		if !s.Available(8) {
			return stream.ErrUnderflow
		}
		if !Probe(s) {
			return ErrNotCafFile
		}
		if err := s.Advance(8); err != nil {
			return err
		}
		d.readHeader = true
	}

	for {
		if !d.inChunk {
			if !s.Available(12) {
				return stream.ErrUnderflow
			}
			typ, err := s.ReadString(4, stream.ASCII)
			if err != nil {
				return err
			}
			size, err := s.ReadUInt64(false)
			if err != nil {
				return err
			}
			d.chunkType, d.chunkSize, d.remaining = typ, int64(size), int64(size)
			d.inChunk = true

			if _, ok := d.Format(); !ok && typ != "desc" {
				return fmt.Errorf("%w: %q", ErrMissingDesc, typ)
			}
		}

		var err error
		switch d.chunkType {
		case "desc":
			err = d.readDesc()
		case "kuki":
			err = d.readCookie()
		case "pakt":
			err = d.readPacketTable()
		case "info":
			err = d.readInfo()
		case "data":
			err = d.readData()
		default:
			err = d.skip()
		}
		if err != nil {
			return err
		}
	}
}

// whole waits until the whole chunk is buffered.
func (d *Demuxer) whole() error {
	if d.chunkSize < 0 || d.chunkSize > 1<<31 {
		return fmt.Errorf("%w: %s chunk of %d bytes", audio.ErrMalformed, d.chunkType, d.chunkSize)
	}
	if !d.Stream.Available(int(d.chunkSize)) {
		return stream.ErrUnderflow
	}

	return nil
}

func (d *Demuxer) skip() error {
	if err := d.whole(); err != nil {
		return err
	}
	if err := d.Stream.Advance(int(d.chunkSize)); err != nil {
		return err
	}
	d.inChunk = false

	return nil
}

func (d *Demuxer) readDesc() error {
	if d.chunkSize != descSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidDesc, d.chunkSize)
	}
	if err := d.whole(); err != nil {
		return err
	}
	s := d.Stream

	rate, _ := s.ReadFloat64(false)
	id, _ := s.ReadString(4, stream.ASCII)
	flags, _ := s.ReadUInt32(false)
	bpp, _ := s.ReadUInt32(false)
	fpp, _ := s.ReadUInt32(false)
	channels, _ := s.ReadUInt32(false)
	bits, err := s.ReadUInt32(false)
	if err != nil {
		return err
	}
	d.inChunk = false

	f := audio.Format{
		FormatID:         id,
		SampleRate:       rate,
		ChannelsPerFrame: int(channels),
		BitsPerChannel:   int(bits),
		BytesPerPacket:   int(bpp),
		FramesPerPacket:  int(fpp),
	}
	if mapped, ok := formatIDs[id]; ok {
		f.FormatID = mapped
	}
	f.FormatID = strings.TrimSpace(f.FormatID)
	if f.FormatID == "lpcm" {
		f.FloatingPoint = flags&flagFloat != 0
		f.LittleEndian = flags&flagLittleEndian != 0
	}
	if f.Constant() && rate > 0 {
		f.Bitrate = int(float64(bpp) / float64(fpp) * rate * 8)
	}

	d.EmitFormat(f)

	return nil
}

func (d *Demuxer) readCookie() error {
	if err := d.whole(); err != nil {
		return err
	}
	buf, err := d.Stream.ReadBuffer(int(d.chunkSize))
	if err != nil {
		return err
	}
	d.inChunk = false
	d.EmitCookie(buf.Bytes())

	return nil
}

func (d *Demuxer) readPacketTable() error {
	if err := d.whole(); err != nil {
		return err
	}
	if d.chunkSize < 24 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidPacket, d.chunkSize)
	}

	s := d.Stream
	start := s.Offset()
	f, _ := d.Format()

	packets, _ := s.ReadUInt64(false)
	frames, _ := s.ReadUInt64(false)
	_, _ = s.ReadInt32(false) // priming frames
	_, err := s.ReadInt32(false) // remainder frames
	if err != nil {
		return err
	}

	var byteOffset, frameOffset int64
	for range packets {
		d.AddSeekPoint(byteOffset, frameOffset)

		size := int64(f.BytesPerPacket)
		if size == 0 {
			if size, err = d.readVLQ(start); err != nil {
				return err
			}
		}
		length := int64(f.FramesPerPacket)
		if length == 0 {
			if length, err = d.readVLQ(start); err != nil {
				return err
			}
		}

		byteOffset += size
		frameOffset += length
	}

	if err := s.Advance(int(start + d.chunkSize - s.Offset())); err != nil {
		return err
	}
	d.inChunk = false
	d.hasPackets = true

	d.EmitDuration(audio.Millis(int64(frames), f.SampleRate))

	return nil
}

// readVLQ reads a variable length quantity without leaving the chunk that
// starts at start.
func (d *Demuxer) readVLQ(start int64) (int64, error) {
	var v int64
	for {
		if d.Stream.Offset() >= start+d.chunkSize {
			return 0, ErrInvalidPacket
		}
		b, err := d.Stream.ReadUInt8()
		if err != nil {
			return 0, err
		}
		v = v<<7 | int64(b&0x7f)
		if b&0x80 == 0 {
			return v, nil
		}
	}
}

func (d *Demuxer) readInfo() error {
	if err := d.whole(); err != nil {
		return err
	}

	s := d.Stream
	end := s.Offset() + d.chunkSize
	count, err := s.ReadUInt32(false)
	if err != nil {
		return err
	}

	meta := audio.Metadata{}
	for range count {
		if s.Offset() >= end {
			break
		}
		key, err := d.readCString(end)
		if err != nil {
			return err
		}
		value, err := d.readCString(end)
		if err != nil {
			return err
		}
		meta[key] = value
	}

	if err := s.Seek(end); err != nil {
		return err
	}
	d.inChunk = false

	if len(meta) > 0 {
		d.EmitMetadata(meta)
	}

	return nil
}

// readCString reads a null terminated UTF-8 string that must end before end.
func (d *Demuxer) readCString(end int64) (string, error) {
	s := d.Stream
	n := 0
	for {
		if s.Offset()+int64(n) >= end {
			return "", fmt.Errorf("%w: unterminated info string", audio.ErrMalformed)
		}
		b, err := s.PeekUInt8(n)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		n++
	}

	str, err := s.ReadString(n, stream.UTF8)
	if err != nil {
		return "", err
	}

	return str, s.Advance(1)
}

func (d *Demuxer) readData() error {
	s := d.Stream

	if !d.readEdits {
		if !s.Available(4) {
			return stream.ErrUnderflow
		}
		if err := s.Advance(4); err != nil {
			return err
		}
		d.readEdits = true
		if d.chunkSize >= 4 {
			d.remaining = d.chunkSize - 4
		}

		f, _ := d.Format()
		if !d.hasPackets && d.chunkSize >= 4 && f.Constant() {
			frames := d.remaining / int64(f.BytesPerPacket) * int64(f.FramesPerPacket)
			d.EmitDuration(audio.Millis(frames, f.SampleRate))
		}
	}

	// size -1 marks a data chunk that runs to the end of the file.
	openEnded := d.chunkSize == -1

	for openEnded || d.remaining > 0 {
		want := d.remaining
		if openEnded {
			want = int64(s.RemainingBytes())
		}
		buf, err := s.ReadSingleBuffer(int(min(want, 1<<30)))
		if err != nil {
			return err
		}
		d.remaining -= int64(buf.Len())
		d.EmitData(buf)
	}

	d.inChunk = false

	return nil
}
