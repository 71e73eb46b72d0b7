// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"time"

	"github.com/ik5/audpipe/stream"
)

// DemuxerEvents are the outputs of a demuxer, emitted while it parses.
type DemuxerEvents struct {
	Format   Emitter[Format]
	Duration Emitter[time.Duration]
	Metadata Emitter[Metadata]
	Cookie   Emitter[[]byte]
	Data     Emitter[[]byte]
	Error    Emitter[error]
	End      Emitter[struct{}]
}

// Demuxer splits a container into a format description and a packet
// stream. Input is pushed in arbitrary chunks; parsing resumes on every
// Append from wherever the previous call ran out of data.
type Demuxer interface {
	Append(chunk []byte)
	// End signals that no more input will arrive.
	End()
	// Seek maps a timestamp in sample frames to a packet stream offset.
	Seek(timestamp int64) (SeekPoint, error)
	Events() *DemuxerEvents
}

// DemuxerState tracks how far a demuxer got through its container.
type DemuxerState int

const (
	AwaitingHeader DemuxerState = iota
	ParsingMetadata
	StreamingData
	Ended
	Failed
)

// DemuxerBase carries the buffering, event and seeking machinery shared by
// every demuxer. Concrete demuxers embed it and call Init with their chunk
// parser.
//
// The parser is re-run from the current cursor on every Append. It returns
// stream.ErrUnderflow when it needs more input; it must check Available
// before consuming a unit it cannot finish, so nothing is emitted twice.
// Any other error is emitted once and stops the demuxer.
type DemuxerBase struct {
	Stream     *stream.Stream
	SeekPoints SeekTable

	list      *stream.BufferList
	events    DemuxerEvents
	format    Format
	hasFormat bool
	state     DemuxerState
	final     bool
	readChunk func() error
}

func (d *DemuxerBase) Init(readChunk func() error) {
	d.list = stream.NewBufferList()
	d.Stream = stream.New(d.list)
	d.readChunk = readChunk
}

func (d *DemuxerBase) Events() *DemuxerEvents { return &d.events }

func (d *DemuxerBase) State() DemuxerState { return d.state }

// Final reports whether End was called, so the parser can flush.
func (d *DemuxerBase) Final() bool { return d.final }

func (d *DemuxerBase) Append(chunk []byte) {
	if len(chunk) == 0 || d.state >= Ended {
		return
	}

	d.list.Append(stream.NewBuffer(chunk))
	d.drive()
}

func (d *DemuxerBase) End() {
	if d.state >= Ended {
		return
	}

	d.final = true
	d.drive()
	if d.state == Failed {
		return
	}

	d.state = Ended
	d.events.End.Emit(struct{}{})
}

func (d *DemuxerBase) drive() {
	if err := d.readChunk(); StatusOf(err) == Fatal {
		d.Fail(err)
	}
}

// Fail emits err and stops the demuxer.
func (d *DemuxerBase) Fail(err error) {
	if d.state >= Ended {
		return
	}

	d.state = Failed
	d.events.Error.Emit(err)
}

// Format returns the format emitted so far.
func (d *DemuxerBase) Format() (Format, bool) { return d.format, d.hasFormat }

func (d *DemuxerBase) EmitFormat(f Format) {
	d.format = f
	d.hasFormat = true
	if d.state < ParsingMetadata {
		d.state = ParsingMetadata
	}
	d.events.Format.Emit(f)
}

func (d *DemuxerBase) EmitDuration(dur time.Duration) { d.events.Duration.Emit(dur) }

func (d *DemuxerBase) EmitMetadata(m Metadata) { d.events.Metadata.Emit(m) }

func (d *DemuxerBase) EmitCookie(cookie []byte) { d.events.Cookie.Emit(cookie) }

func (d *DemuxerBase) EmitData(buf *stream.Buffer) {
	if buf == nil || buf.Len() == 0 {
		return
	}
	d.state = StreamingData
	d.events.Data.Emit(buf.Bytes())
}

func (d *DemuxerBase) AddSeekPoint(offset, timestamp int64) {
	d.SeekPoints.Add(offset, timestamp)
}

// Seek uses packet arithmetic for constant sized packets and the seek table
// otherwise.
func (d *DemuxerBase) Seek(timestamp int64) (SeekPoint, error) {
	if d.hasFormat && d.format.Constant() {
		return SeekPoint{
			Offset:    int64(d.format.BytesPerPacket) * timestamp / int64(d.format.FramesPerPacket),
			Timestamp: timestamp,
		}, nil
	}

	p, ok := d.SeekPoints.Lookup(timestamp)
	if !ok {
		return SeekPoint{}, ErrSeekUnsupported
	}

	return p, nil
}

// Millis builds the duration of frames at sampleRate, truncated to whole
// milliseconds.
func Millis(frames int64, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(frames)/sampleRate*1000) * time.Millisecond
}
