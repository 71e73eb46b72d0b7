// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	waveFormatPCM        = 0x0001
	waveFormatIEEEFloat  = 0x0003
	waveFormatALaw       = 0x0006
	waveFormatMuLaw      = 0x0007
	waveFormatExtensible = 0xfffe

	// openEnded marks a data chunk written by a streaming encoder that
	// never went back to patch its length.
	openEnded = 0xffffffff
)

var formats = map[uint16]string{
	waveFormatPCM:       "lpcm",
	waveFormatIEEEFloat: "lpcm",
	waveFormatALaw:      "alaw",
	waveFormatMuLaw:     "ulaw",
}

// Probe matches a RIFF header with the WAVE form type.
func Probe(s *stream.Stream) bool {
	riff, err := s.PeekString(0, 4, stream.ASCII)
	if err != nil || riff != "RIFF" {
		return false
	}
	wave, err := s.PeekString(8, 4, stream.ASCII)

	return err == nil && wave == "WAVE"
}

// Demuxer parses RIFF WAVE files.
type Demuxer struct {
	audio.DemuxerBase

	readStart bool
	inChunk   bool
	chunkType string
	chunkLen  int64
	remaining int64
	sentDur   bool
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
			return ErrNotWavFile
		}
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
			n, err := s.ReadUInt32(true)
			if err != nil {
				return err
			}
			d.chunkType, d.chunkLen, d.remaining = typ, int64(n), int64(n)
			d.inChunk = true
		}

		var err error
		switch d.chunkType {
		case "fmt ":
			err = d.readFormat()
		case "data":
			err = d.readData()
		default:
			err = d.skipChunk()
		}
		if err != nil {
			return err
		}
	}
}

// pad is the filler byte RIFF puts after odd sized chunks.
func (d *Demuxer) pad() int {
	if d.chunkLen != openEnded && d.chunkLen%2 == 1 {
		return 1
	}

	return 0
}

func (d *Demuxer) skipChunk() error {
	n := int(d.remaining) + d.pad()
	if !d.Stream.Available(n) {
		return stream.ErrUnderflow
	}
	if err := d.Stream.Advance(n); err != nil {
		return err
	}
	d.inChunk = false

	return nil
}

func (d *Demuxer) readFormat() error {
	s := d.Stream
	size := int(d.chunkLen)
	if size < 16 {
		return fmt.Errorf("%w: %d bytes", ErrShortFormatChunk, size)
	}
	if !s.Available(size + d.pad()) {
		return stream.ErrUnderflow
	}

	encoding, _ := s.ReadUInt16(true)
	channels, _ := s.ReadUInt16(true)
	sampleRate, _ := s.ReadUInt32(true)
	byteRate, _ := s.ReadUInt32(true)
	_ = s.Advance(2) // block align
	bits, err := s.ReadUInt16(true)
	if err != nil {
		return err
	}
	used := 16

	// WAVE_FORMAT_EXTENSIBLE keeps the real codec in the first two bytes
	// of the sub-format GUID.
	if encoding == waveFormatExtensible && size >= 40 {
		if err := s.Advance(8); err != nil {
			return err
		}
		if encoding, err = s.ReadUInt16(true); err != nil {
			return err
		}
		used += 10
	}

	id, ok := formats[encoding]
	if !ok {
		return fmt.Errorf("%w: 0x%04x", ErrUnsupportedEncoding, encoding)
	}

	f := audio.Format{
		FormatID:         id,
		SampleRate:       float64(sampleRate),
		ChannelsPerFrame: int(channels),
		BitsPerChannel:   int(bits),
		FramesPerPacket:  1,
		FloatingPoint:    encoding == waveFormatIEEEFloat,
		LittleEndian:     id == "lpcm",
		Unsigned:         id == "lpcm" && bits == 8,
		Bitrate:          int(byteRate) * 8,
	}
	if bits%8 != 0 || bits == 0 {
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bits)
	}
	f.BytesPerPacket = int(bits) / 8 * int(channels)

	if err := s.Advance(size - used + d.pad()); err != nil {
		return err
	}
	d.inChunk = false
	d.EmitFormat(f)

	return nil
}

func (d *Demuxer) readData() error {
	f, ok := d.Format()
	if !ok {
		return ErrMissingFormatChunk
	}

	if !d.sentDur {
		d.sentDur = true
		if d.chunkLen != openEnded && d.chunkLen > 0 && f.BytesPerPacket > 0 {
			frames := d.chunkLen / int64(f.BytesPerPacket)
			d.EmitDuration(audio.Millis(frames, f.SampleRate))
		}
	}

	for d.remaining > 0 || d.chunkLen == openEnded {
		want := d.remaining
		if d.chunkLen == openEnded {
			want = int64(d.Stream.RemainingBytes())
		}
		buf, err := d.Stream.ReadSingleBuffer(int(min(want, 1<<30)))
		if err != nil {
			return err
		}
		if d.chunkLen != openEnded {
			d.remaining -= int64(buf.Len())
		}
		d.EmitData(buf)
	}

	return d.skipChunk()
}
