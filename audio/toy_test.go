// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/stream"
)

// toyDemuxer parses "TOY!" followed by length-prefixed records.
type toyDemuxer struct {
	DemuxerBase
	readHeader bool
	constant   bool
}

func newToyDemuxer() *toyDemuxer {
	d := &toyDemuxer{constant: true}
	d.Init(d.readChunk)

	return d
}

func (d *toyDemuxer) readChunk() error {
	if !d.readHeader {
		if !d.Stream.Available(4) {
			return stream.ErrUnderflow
		}
		magic, err := d.Stream.ReadString(4, stream.ASCII)
		if err != nil {
			return err
		}
		if magic != "TOY!" {
			return fmt.Errorf("%w: bad magic %q", ErrFormat, magic)
		}
		d.readHeader = true

		f := Format{FormatID: "toy", SampleRate: 8000, ChannelsPerFrame: 1, BitsPerChannel: 8}
		if d.constant {
			f.BytesPerPacket, f.FramesPerPacket = 1, 1
		}
		d.EmitFormat(f)
	}

	for d.Stream.Available(1) {
		n, err := d.Stream.PeekUInt8(0)
		if err != nil {
			return err
		}
		if !d.Stream.Available(1 + int(n)) {
			return stream.ErrUnderflow
		}
		if err := d.Stream.Advance(1); err != nil {
			return err
		}
		buf, err := d.Stream.ReadBuffer(int(n))
		if err != nil {
			return err
		}
		d.EmitData(buf)
	}

	return nil
}

// toyDecoder emits packets of four signed 8-bit samples.
type toyDecoder struct {
	DecoderBase
}

func newToyDecoder(f Format, s Seeker) (Decoder, error) {
	d := &toyDecoder{}
	d.Init(f, s, d.readChunk)

	return d, nil
}

func (d *toyDecoder) readChunk() (goaudio.Buffer, error) {
	n := min(4, d.Stream.RemainingBytes())
	if n < 4 && !d.Final() {
		return nil, stream.ErrUnderflow
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]int, n)
	for i := range out {
		v, err := d.Stream.ReadInt8()
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}

	return &goaudio.IntBuffer{Format: PCMFormat(d.Format()), Data: out, SourceBitDepth: 8}, nil
}

type toyRun struct {
	formats int
	ends    int
	samples []int
	errs    []error
	dec     Decoder
	dm      *toyDemuxer
}

func runToy(dm *toyDemuxer, chunks [][]byte) *toyRun {
	r := &toyRun{dm: dm}

	dm.Events().Error.On(func(err error) { r.errs = append(r.errs, err) })
	dm.Events().Format.On(func(f Format) {
		r.formats++
		r.dec, _ = newToyDecoder(f, dm)
		Attach(dm, r.dec)
		r.dec.Events().Data.On(func(b goaudio.Buffer) {
			r.samples = append(r.samples, b.(*goaudio.IntBuffer).Data...)
		})
		r.dec.Events().End.On(func(struct{}) { r.ends++ })
		r.dec.Events().Error.On(func(err error) { r.errs = append(r.errs, err) })
	})

	for _, c := range chunks {
		dm.Append(c)
		r.drain()
	}
	dm.End()
	r.drain()

	return r
}

func (r *toyRun) drain() {
	for r.dec != nil && r.dec.Decode() {
	}
}

func splitEvery(data []byte, n int) [][]byte {
	var out [][]byte
	for len(data) > n {
		out = append(out, data[:n])
		data = data[n:]
	}

	return append(out, data)
}
