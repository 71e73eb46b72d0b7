// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/mp3"
	"github.com/ik5/audpipe/stream"
)

// Asset decodes one input into interleaved float32 samples in [-1,1]. It
// implements audio.Source. Input is read and decoded only as ReadSamples
// needs it.
//
// The first error is returned by ReadSamples once, after the samples
// decoded before it; from then on the asset is finished. A failing input
// still has every byte it delivered decoded first. An Asset must not
// be used from more than one goroutine at a time.
type Asset struct {
	r    io.Reader
	opts Options
	log  *slog.Logger

	container string
	demuxer   audio.Demuxer
	decoder   audio.Decoder
	format    audio.Format
	cookie    []byte
	duration  time.Duration
	metadata  audio.Metadata

	queue   *queue
	current []float32
	chunk   []byte

	inputDone bool
	decoded   bool
	// err stops decoding; inputErr only stops reading.
	err      error
	inputErr error
	reported bool
	closed   bool
}

// Open probes r and reads it until the audio format is known.
func Open(r io.Reader, opts ...Option) (*Asset, error) {
	o := Options{ChunkSize: DefaultChunkSize, QueueSize: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	a := &Asset{
		r:        r,
		opts:     o,
		log:      o.Logger,
		metadata: audio.Metadata{},
		queue:    newQueue(o.QueueSize),
		chunk:    make([]byte, o.ChunkSize),
	}

	head, done, err := readProbe(r)
	if err != nil {
		return nil, err
	}
	a.inputDone = done

	c, err := o.Registry.FindContainer(head)
	if err != nil {
		return nil, err
	}
	a.container = c.Name
	a.log.Debug("probed input", "container", c.Name, "bytes", len(head))

	a.demuxer = c.New()
	a.subscribe()
	a.demuxer.Append(head)
	if a.inputDone {
		a.demuxer.End()
	}

	for a.decoder == nil && a.err == nil {
		if a.inputDone {
			return nil, ErrNoFormat
		}
		a.readInput()
	}
	if a.err != nil {
		return nil, a.err
	}

	return a, nil
}

// readProbe reads probeSize bytes, more when a leading ID3v2 tag needs them
// to reach the frame header behind it. done is set at the end of the input.
func readProbe(r io.Reader) (head []byte, done bool, err error) {
	head = make([]byte, probeSize)
	n, err := io.ReadFull(r, head)
	head = head[:n]
	if err == nil {
		// 4 bytes of MPEG audio frame header
		if want := min(mp3.TagSize(head)+4, maxProbeSize); want > n {
			head = append(head, make([]byte, want-n)...)
			var m int
			m, err = io.ReadFull(r, head[n:])
			head = head[:n+m]
		}
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return head, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("audpipe: read input: %w", err)
	}

	return head, false, nil
}

func (a *Asset) subscribe() {
	ev := a.demuxer.Events()
	ev.Format.On(a.onFormat)
	ev.Duration.On(func(d time.Duration) { a.duration = d })
	ev.Metadata.On(func(m audio.Metadata) { maps.Copy(a.metadata, m) })
	ev.Cookie.On(func(c []byte) {
		if a.decoder == nil {
			a.cookie = c
		}
	})
	ev.Error.On(a.fail)
}

func (a *Asset) onFormat(f audio.Format) {
	if a.decoder != nil {
		return
	}

	dec, err := a.opts.Registry.NewDecoder(f, a.demuxer)
	if err != nil {
		a.fail(err)
		return
	}
	a.format = f
	a.log.Debug("selected codec",
		"codec", f.FormatID,
		"sampleRate", f.SampleRate,
		"channels", f.ChannelsPerFrame,
		"bits", f.BitsPerChannel,
	)

	if a.cookie != nil {
		dec.SetCookie(a.cookie)
	}
	ev := dec.Events()
	ev.Data.On(a.onData)
	ev.Error.On(a.fail)
	ev.End.On(func(struct{}) { a.decoded = true })

	audio.Attach(a.demuxer, dec)
	a.decoder = dec
}

func (a *Asset) onData(buf goaudio.Buffer) {
	if samples := audio.Float32Samples(nil, buf); len(samples) > 0 {
		a.queue.push(samples)
	}
}

func (a *Asset) fail(err error) {
	if a.err != nil {
		return
	}
	a.err = err
	a.log.Debug("decoding failed", "container", a.container, "err", err)
}

// readInput pushes one chunk of input into the demuxer.
func (a *Asset) readInput() {
	n, err := a.r.Read(a.chunk)
	if n > 0 {
		a.demuxer.Append(bytes.Clone(a.chunk[:n]))
	}

	switch {
	case errors.Is(err, io.EOF):
		a.inputDone = true
		a.demuxer.End()
	case err != nil:
		a.inputErr = fmt.Errorf("audpipe: read input: %w", err)
		a.log.Debug("input failed", "err", err)
		a.inputDone = true
		a.demuxer.End()
	}
}

func (a *Asset) failure() error {
	if a.err != nil {
		return a.err
	}

	return a.inputErr
}

// fill decodes until the queue reaches its ready mark or decoding stops.
func (a *Asset) fill() {
	for !a.queue.full() && a.err == nil && !a.decoded {
		if a.decoder.Decode() {
			continue
		}
		if a.decoded || a.err != nil {
			return
		}
		if a.inputDone {
			// Nothing left to feed a decoder that produces nothing.
			a.decoded = true
			return
		}
		a.readInput()
	}
}

// next makes the oldest queued block current.
func (a *Asset) next() bool {
	for {
		if b, ok := a.queue.pop(); ok {
			a.current = b
			return true
		}
		if a.err != nil || a.decoded {
			return false
		}
		a.fill()
	}
}

func (a *Asset) ReadSamples(dst []float32) (int, error) {
	if a.closed {
		return 0, ErrClosed
	}
	if a.reported {
		return 0, io.EOF
	}
	if len(dst)%a.Channels() != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	n := 0
	for n < len(dst) {
		if len(a.current) == 0 && !a.next() {
			break
		}
		k := copy(dst[n:], a.current)
		a.current = a.current[k:]
		n += k
	}
	if n > 0 {
		return n, nil
	}

	if err := a.failure(); err != nil {
		a.reported = true
		return 0, err
	}

	return 0, io.EOF
}

// DecodeAll reads every remaining sample.
func (a *Asset) DecodeAll() ([]float32, error) {
	var out []float32
	buf := make([]float32, a.BufSize())

	for {
		n, err := a.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

// Seek moves to d, or to the first seek point at or after d when the
// container only knows seek points, and returns the position reached.
// Buffered samples are dropped.
func (a *Asset) Seek(d time.Duration) (time.Duration, error) {
	if a.closed {
		return 0, ErrClosed
	}
	if a.reported || a.err != nil {
		return 0, a.failure()
	}
	if d < 0 {
		d = 0
	}

	rate := a.format.SampleRate
	frames := int64(d.Seconds() * rate)

	ts, err := a.decoder.Seek(frames)
	// The target can lie past the packets read so far.
	for errors.Is(err, stream.ErrUnderflow) && !a.inputDone && a.err == nil {
		a.readInput()
		ts, err = a.decoder.Seek(frames)
	}
	if a.err != nil {
		return 0, a.err
	}
	if err != nil {
		return 0, fmt.Errorf("audpipe: seek to %v: %w", d, err)
	}

	a.queue.reset()
	a.current = nil
	a.decoded = false

	landed := time.Duration(float64(ts) / rate * float64(time.Second))
	a.log.Debug("seek", "requested", d, "landed", landed, "frame", ts)

	return landed, nil
}

// Container names the registry entry that matched the input.
func (a *Asset) Container() string { return a.container }

// Format is the format the demuxer reported.
func (a *Asset) Format() audio.Format { return a.format }

// Duration is the length the container reported, or zero when it did not
// know.
func (a *Asset) Duration() time.Duration { return a.duration }

// Metadata returns the tags read so far. Containers that keep tags after
// the audio only report them once decoding got there.
func (a *Asset) Metadata() audio.Metadata { return maps.Clone(a.metadata) }

func (a *Asset) SampleRate() int { return audio.PCMFormat(a.format).SampleRate }

func (a *Asset) Channels() int { return max(a.format.ChannelsPerFrame, 1) }

func (a *Asset) BufSize() int { return readFrames * a.Channels() }

// Close closes the input when it is an io.Closer.
func (a *Asset) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.current = nil
	a.queue.reset()

	if c, ok := a.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("audpipe: close input: %w", err)
		}
	}

	return nil
}
