// SPDX-License-Identifier: EPL-2.0

package audio

import (
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/stream"
)

// DecoderEvents are the outputs of a decoder.
type DecoderEvents struct {
	Data  Emitter[goaudio.Buffer]
	Error Emitter[error]
	End   Emitter[struct{}]
}

// Decoder turns a packet stream into PCM buffers. Integer codecs emit
// *goaudio.IntBuffer with SourceBitDepth set; float codecs emit
// *goaudio.Float32Buffer.
type Decoder interface {
	SetCookie(cookie []byte)
	Append(packet []byte)
	End()
	// Decode decodes one packet. It reports true only when a buffer was
	// emitted.
	Decode() bool
	// Seek repositions the decoder and returns the timestamp, in sample
	// frames, it actually landed on.
	Seek(timestamp int64) (int64, error)
	Events() *DecoderEvents
}

// Seeker resolves timestamps to packet stream offsets; every Demuxer is one.
type Seeker interface {
	Seek(timestamp int64) (SeekPoint, error)
}

// NewDecoderFunc builds a decoder for format. seeker may be nil.
type NewDecoderFunc func(format Format, seeker Seeker) (Decoder, error)

// DecoderBase carries the buffering and retry machinery shared by every
// decoder. Concrete decoders embed it and call Init with their packet reader.
//
// The reader returns one buffer, or nil when nothing could be produced. On
// stream.ErrUnderflow, or a nil buffer before the input ended, the cursor is
// put back where the packet started and the decoder waits; the next Append
// retries automatically.
type DecoderBase struct {
	Stream    *stream.Stream
	Bitstream *stream.Bitstream

	list      *stream.BufferList
	events    DecoderEvents
	format    Format
	seeker    Seeker
	restart   int64
	final     bool
	waiting   bool
	ended     bool
	failed    bool
	readChunk func() (goaudio.Buffer, error)
}

func (d *DecoderBase) Init(format Format, seeker Seeker, readChunk func() (goaudio.Buffer, error)) {
	d.list = stream.NewBufferList()
	d.Stream = stream.New(d.list)
	d.Bitstream = stream.NewBitstream(d.Stream)
	d.format = format
	d.seeker = seeker
	d.readChunk = readChunk
}

func (d *DecoderBase) Events() *DecoderEvents { return &d.events }

func (d *DecoderBase) Format() Format { return d.format }

// Final reports whether the last packet has been appended.
func (d *DecoderBase) Final() bool { return d.final }

// Waiting reports whether the decoder stopped for lack of input.
func (d *DecoderBase) Waiting() bool { return d.waiting }

// SetCookie ignores the cookie; codecs with setup data override it.
func (d *DecoderBase) SetCookie([]byte) {}

func (d *DecoderBase) Append(packet []byte) {
	if len(packet) == 0 {
		return
	}

	d.list.Append(stream.NewBuffer(packet))
	if d.waiting {
		d.Decode()
	}
}

func (d *DecoderBase) End() {
	d.final = true
	if d.waiting {
		d.Decode()
	}
}

// Fail emits err and stops the decoder.
func (d *DecoderBase) Fail(err error) {
	if d.failed {
		return
	}

	d.failed = true
	d.waiting = false
	d.events.Error.Emit(err)
}

func (d *DecoderBase) Decode() bool {
	if d.failed || d.ended {
		return false
	}

	d.waiting = false
	d.restart = d.Bitstream.Offset()

	buf, err := d.readChunk()
	switch StatusOf(err) {
	case Fatal:
		d.Fail(err)
		return false
	case Complete:
		if buf != nil {
			d.events.Data.Emit(buf)
			return true
		}
	}

	if !d.final {
		if err := d.Bitstream.Seek(d.restart); err != nil {
			d.Fail(err)
			return false
		}
		d.waiting = true

		return false
	}

	d.ended = true
	d.events.End.Emit(struct{}{})

	return false
}

// Commit moves the point a waiting decoder resumes from to the current
// cursor. Readers that consume input without producing a buffer, such as
// skipped frames, call it so the input is not parsed twice.
func (d *DecoderBase) Commit() { d.restart = d.Bitstream.Offset() }

// Seek asks the seeker for the closest point and jumps there.
func (d *DecoderBase) Seek(timestamp int64) (int64, error) {
	if d.seeker == nil {
		return 0, ErrSeekUnsupported
	}

	p, err := d.seeker.Seek(timestamp)
	if err != nil {
		return 0, err
	}

	return d.SeekTo(p)
}

// SeekTo moves the cursor to p.Offset in the packet stream. It fails with
// stream.ErrUnderflow when that offset has not been buffered yet.
func (d *DecoderBase) SeekTo(p SeekPoint) (int64, error) {
	if d.failed {
		return 0, ErrSeekUnsupported
	}
	if err := d.Bitstream.Seek(8 * p.Offset); err != nil {
		return 0, err
	}

	d.ended = false
	d.waiting = false

	return p.Timestamp, nil
}

// Attach subscribes dec to the packet stream of dm.
func Attach(dm Demuxer, dec Decoder) {
	ev := dm.Events()
	ev.Cookie.On(dec.SetCookie)
	ev.Data.On(dec.Append)
	ev.End.On(func(struct{}) { dec.End() })
}
