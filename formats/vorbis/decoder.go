// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"
	"slices"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/jfreymuth/oggvorbis"
	"github.com/jfreymuth/vorbis"

	"github.com/ik5/audpipe/audio"
)

const FormatID = "vorbis"

// packetDecoder is the part of vorbis.Decoder used here, to allow testing.
type packetDecoder interface {
	ReadHeader(header []byte) error
	HeadersRead() bool
	Decode(packet []byte) ([]float32, error)
	SampleRate() int
	Channels() int
	Clear()
}

// Decoder feeds whole packets to a vorbis.Decoder.
type Decoder struct {
	audio.DecoderBase

	dec packetDecoder
}

// NewDecoder implements audio.NewDecoderFunc.
func NewDecoder(format audio.Format, seeker audio.Seeker) (audio.Decoder, error) {
	if format.FormatID != FormatID {
		return nil, fmt.Errorf("%w: %q is not vorbis", audio.ErrCodecNotFound, format.FormatID)
	}

	return newDecoder(format, seeker, &vorbis.Decoder{}), nil
}

func newDecoder(format audio.Format, seeker audio.Seeker, pd packetDecoder) *Decoder {
	d := &Decoder{dec: pd}
	d.Init(format, seeker, d.readChunk)

	return d
}

func (d *Decoder) readChunk() (goaudio.Buffer, error) {
	s := d.Stream

	for s.RemainingBytes() > 0 {
		// Every Append is one packet.
		pkt, err := s.ReadSingleBuffer(s.RemainingBytes())
		if err != nil {
			return nil, err
		}
		d.Commit()

		if !d.dec.HeadersRead() {
			if err := d.dec.ReadHeader(pkt.Bytes()); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
			}
			continue
		}

		pcm, err := d.dec.Decode(pkt.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPacket, err)
		}
		if len(pcm) == 0 {
			continue
		}

		return &goaudio.Float32Buffer{
			Format: &goaudio.Format{
				NumChannels: d.dec.Channels(),
				SampleRate:  d.dec.SampleRate(),
			},
			Data:           slices.Clone(pcm),
			SourceBitDepth: 32,
		}, nil
	}

	return nil, nil
}

// Seek jumps to the page the demuxer picks and drops the overlap window.
func (d *Decoder) Seek(timestamp int64) (int64, error) {
	ts, err := d.DecoderBase.Seek(timestamp)
	if err != nil {
		return 0, err
	}
	d.dec.Clear()

	return ts, nil
}

// Length returns the duration of a seekable Ogg Vorbis stream. It is 0
// when the length cannot be determined.
func Length(r io.ReadSeeker) (time.Duration, error) {
	rd, err := oggvorbis.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNotVorbis, err)
	}

	return audio.Millis(rd.Length(), float64(rd.SampleRate())), nil
}
