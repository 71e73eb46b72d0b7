// SPDX-License-Identifier: EPL-2.0

package au

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	magic = ".snd"

	// unknownSize is the data size written when the length was not known
	// up front.
	unknownSize = 0xffffffff

	encodingULaw  = 1
	encodingFloat = 6
	encodingALaw  = 27
)

// bitsPerSample is indexed by encoding-1.
var bitsPerSample = [...]int{8, 8, 16, 24, 32, 32, 64}

var (
	ErrNotAuFile           = fmt.Errorf("%w: not an AU file", audio.ErrFormat)
	ErrUnsupportedEncoding = fmt.Errorf("%w: unsupported AU encoding", audio.ErrCodecNotFound)
)

func Probe(s *stream.Stream) bool {
	m, err := s.PeekString(0, 4, stream.ASCII)

	return err == nil && m == magic
}

type Demuxer struct {
	audio.DemuxerBase

	readHeader bool
}

func NewDemuxer() audio.Demuxer {
	d := &Demuxer{}
	d.Init(d.readChunk)

	return d
}

func (d *Demuxer) readChunk() error {
	s := d.Stream

	if !d.readHeader {
		if !s.Available(24) {
			return stream.ErrUnderflow
		}
		if !Probe(s) {
			return ErrNotAuFile
		}
		headerSize, _ := s.PeekUInt32(4, false)
		if !s.Available(int(headerSize)) {
			return stream.ErrUnderflow
		}
		if headerSize < 24 {
			return fmt.Errorf("%w: header size %d", ErrNotAuFile, headerSize)
		}

		_ = s.Advance(8)
		dataSize, _ := s.ReadUInt32(false)
		encoding, _ := s.ReadUInt32(false)
		rate, _ := s.ReadUInt32(false)
		channels, err := s.ReadUInt32(false)
		if err != nil {
			return err
		}

		f, err := format(encoding, rate, channels)
		if err != nil {
			return err
		}

		if err := s.Advance(int(headerSize) - 24); err != nil {
			return err
		}
		d.readHeader = true
		d.EmitFormat(f)

		if dataSize != unknownSize && f.BytesPerPacket > 0 {
			d.EmitDuration(audio.Millis(int64(dataSize)/int64(f.BytesPerPacket), f.SampleRate))
		}
	}

	for {
		buf, err := s.ReadSingleBuffer(s.RemainingBytes())
		if err != nil {
			return err
		}
		d.EmitData(buf)
	}
}

func format(encoding, rate, channels uint32) (audio.Format, error) {
	var bits int
	switch {
	case encoding == encodingALaw:
		bits = 8
	case encoding >= 1 && int(encoding) <= len(bitsPerSample):
		bits = bitsPerSample[encoding-1]
	default:
		return audio.Format{}, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, encoding)
	}

	f := audio.Format{
		FormatID:         "lpcm",
		SampleRate:       float64(rate),
		ChannelsPerFrame: int(channels),
		BitsPerChannel:   bits,
		BytesPerPacket:   bits / 8 * int(channels),
		FramesPerPacket:  1,
		FloatingPoint:    encoding == encodingFloat || encoding == encodingFloat+1,
	}
	switch encoding {
	case encodingULaw:
		f.FormatID = "ulaw"
	case encodingALaw:
		f.FormatID = "alaw"
	}
	f.Bitrate = int(rate) * f.BytesPerPacket * 8

	return f, nil
}
