// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

// FormatID is the codec name of MPEG audio Layer I, II and III.
const FormatID = "mp3"

const (
	// guard is how many bytes past a frame must be buffered before it is
	// decoded, unless the input has ended: enough for the next header and
	// its main_data_begin.
	guard = 8

	// maxFreeFrame bounds the search for the header that follows a free
	// format frame.
	maxFreeFrame = 8192

	// A seek trusts a sync word once chainLength headers follow each other
	// within seekWindow bytes of the landing offset.
	chainLength = 3
	seekWindow  = 4096
)

// Decoder decodes a raw MPEG audio elementary stream. Frames are found by
// scanning for sync words, so packet boundaries do not matter.
type Decoder struct {
	audio.DecoderBase

	synced   bool
	resync   bool
	freeRate int

	mainData [mainDataSize]byte
	mdLen    int

	xr       [2][576]float32
	sbsample [2][36][32]float32
	overlap  [2][32][18]float32
	synth    synth
}

// NewDecoder implements audio.NewDecoderFunc. seeker may be nil; Seek then
// estimates offsets from format.Bitrate.
func NewDecoder(format audio.Format, seeker audio.Seeker) (audio.Decoder, error) {
	d := &Decoder{}
	d.Init(format, seeker, d.readChunk)

	return d, nil
}

func (d *Decoder) readChunk() (goaudio.Buffer, error) {
	for {
		h, frame, nextMD, err := d.nextFrame()
		if err != nil {
			return nil, err
		}

		_ = d.Stream.Advance(len(frame))
		d.Commit()

		if err := d.decodeFrame(&h, frame, nextMD); err != nil {
			if d.resync {
				continue
			}
			return nil, err
		}
		d.resync = false

		return d.output(&h), nil
	}
}

func (d *Decoder) decodeFrame(h *Header, frame []byte, nextMD int) error {
	switch h.Layer {
	case Layer1:
		return d.decodeLayer1(h, frame)
	case Layer2:
		return d.decodeLayer2(h, frame)
	}

	return d.decodeLayer3(h, frame, nextMD)
}

func (d *Decoder) output(h *Header) *goaudio.Float32Buffer {
	nch := h.Channels()
	ns := h.subbandSamples()
	data := make([]float32, 32*ns*nch)
	d.synth.run(&d.sbsample, nch, ns, data)

	return &goaudio.Float32Buffer{
		Format:         &goaudio.Format{NumChannels: nch, SampleRate: h.SampleRate},
		Data:           data,
		SourceBitDepth: 32,
	}
}

// nextFrame finds the next complete frame at the cursor without consuming
// it. It returns a copy of the frame and the main_data_begin of the frame
// after it.
func (d *Decoder) nextFrame() (Header, []byte, int, error) {
	s := d.Stream

	for {
		if err := d.scan(); err != nil {
			return Header{}, nil, 0, err
		}

		head, err := s.PeekBuffer(0, min(headerSize+crcSize, s.RemainingBytes()))
		if err != nil {
			return Header{}, nil, 0, err
		}
		h, err := ParseHeader(head.Bytes())
		if err != nil {
			d.lostSync()
			continue
		}

		if h.Bitrate == 0 {
			if d.freeRate == 0 || !d.synced {
				switch err := d.measureFreeRate(&h); {
				case errors.Is(err, errLostSync):
					d.lostSync()
					continue
				case err != nil:
					return Header{}, nil, 0, err
				}
			}
			h.Bitrate = d.freeRate
			h.Flags |= FlagFreeFormat
		}

		n := h.FrameSize()
		if n < h.dataOffset() {
			d.lostSync()
			continue
		}

		need := n
		if !d.Final() {
			need += guard
		}
		if !s.Available(need) {
			return Header{}, nil, 0, stream.ErrUnderflow
		}

		if !d.synced {
			ok, err := d.followed(&h, n)
			if err != nil {
				return Header{}, nil, 0, err
			}
			if !ok {
				d.lostSync()
				continue
			}
			d.synced = true
		}

		buf, err := s.PeekBuffer(0, n)
		if err != nil {
			return Header{}, nil, 0, err
		}

		nextMD := 0
		if rest := s.RemainingBytes() - n; h.Layer == Layer3 && rest > 0 {
			if tail, err := s.PeekBuffer(n, min(guard, rest)); err == nil {
				nextMD = nextMainDataBegin(tail.Bytes())
			}
		}

		return h, buf.Bytes(), nextMD, nil
	}
}

// scan moves the cursor to the next sync word.
func (d *Decoder) scan() error {
	s := d.Stream

	for {
		if !s.Available(headerSize) {
			return stream.ErrUnderflow
		}

		b0, _ := s.PeekUInt8(0)
		b1, _ := s.PeekUInt8(1)
		if isSync(b0, b1) {
			return nil
		}

		_ = s.Advance(1)
		d.synced = false
		d.Commit()
	}
}

func (d *Decoder) lostSync() {
	_ = d.Stream.Advance(1)
	d.synced = false
	d.Commit()
}

// followed reports whether a header of the same layer and sample rate
// follows the n byte frame at the cursor. The last frame of the input
// passes.
func (d *Decoder) followed(h *Header, n int) (bool, error) {
	s := d.Stream
	if !s.Available(n + headerSize) {
		if d.Final() {
			return true, nil
		}
		return false, stream.ErrUnderflow
	}

	head, err := s.PeekBuffer(n, headerSize)
	if err != nil {
		return false, err
	}
	next, err := ParseHeader(head.Bytes())

	return err == nil && next.Layer == h.Layer && next.SampleRate == h.SampleRate, nil
}

// measureFreeRate derives a free format bitrate from the distance to the
// next header of the same kind.
func (d *Decoder) measureFreeRate(h *Header) error {
	s := d.Stream
	limit := min(s.RemainingBytes(), maxFreeFrame)
	buf, err := s.PeekBuffer(0, limit)
	if err != nil {
		return err
	}
	b := buf.Bytes()

	pad := 0
	if h.Flags&FlagPadding != 0 {
		pad = 1
	}

	for i := headerSize; i+headerSize <= len(b); i++ {
		if !isSync(b[i], b[i+1]) {
			continue
		}

		next, err := ParseHeader(b[i:])
		if err != nil || next.Layer != h.Layer || next.SampleRate != h.SampleRate || next.Bitrate != 0 {
			continue
		}

		var rate int
		if h.Layer == Layer1 {
			rate = h.SampleRate * (i - 4*pad + 4) / 48 / 1000
		} else {
			rate = h.SampleRate * (i - pad + 1) / h.slotsPerFrame() / 1000
		}
		if rate < 8 {
			continue
		}
		if h.Layer == Layer3 && rate > 640 {
			return errLostSync
		}

		d.freeRate = rate * 1000

		return nil
	}

	if !d.Final() && limit < maxFreeFrame {
		return stream.ErrUnderflow
	}

	return errLostSync
}

// Seek uses the demuxer's seek table when it has one and otherwise
// estimates the offset from the bitrate. Either way it then looks for a
// trustworthy sync word near the landing offset and drops all state that
// depended on earlier frames.
func (d *Decoder) Seek(timestamp int64) (int64, error) {
	landed, err := d.DecoderBase.Seek(timestamp)
	if errors.Is(err, audio.ErrSeekUnsupported) {
		f := d.Format()
		if f.Bitrate <= 0 || f.SampleRate <= 0 {
			return 0, audio.ErrSeekUnsupported
		}

		offset := int64(float64(timestamp) * float64(f.Bitrate) / 8 / f.SampleRate)
		landed, err = d.SeekTo(audio.SeekPoint{Offset: offset, Timestamp: timestamp})
	}
	if err != nil {
		return 0, err
	}

	d.skipToChain()
	d.reset()

	return landed, nil
}

// skipToChain advances to the first offset within seekWindow where
// chainLength headers follow each other. Without one the cursor stays and
// the sync scan takes over.
func (d *Decoder) skipToChain() {
	s := d.Stream
	buf, err := s.PeekBuffer(0, min(s.RemainingBytes(), seekWindow+maxFreeFrame))
	if err != nil {
		return
	}
	b := buf.Bytes()

	for i := range min(len(b), seekWindow) {
		if chained(b, i) {
			_ = s.Advance(i)
			return
		}
	}
}

func chained(b []byte, off int) bool {
	var first Header
	for n := range chainLength {
		if off+headerSize > len(b) {
			return false
		}

		h, err := ParseHeader(b[off:])
		if err != nil || h.Bitrate == 0 {
			return false
		}
		if n == 0 {
			first = h
		} else if h.Layer != first.Layer || h.SampleRate != first.SampleRate {
			return false
		}
		off += h.FrameSize()
	}

	return true
}

// reset clears the bit reservoir and the filterbank history. Until a frame
// decodes again, frames that fail are skipped.
func (d *Decoder) reset() {
	d.mdLen = 0
	d.overlap = [2][32][18]float32{}
	d.synth.reset()
	d.synced = false
	d.resync = true
}
