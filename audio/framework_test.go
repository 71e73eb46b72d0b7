// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/stream"
)

func toyInput() []byte {
	data := []byte("TOY!")
	data = append(data, 3, 1, 2, 3)
	data = append(data, 0)
	data = append(data, 5, 0xff, 0xfe, 4, 5, 6)
	data = append(data, 2, 7, 8)

	return data
}

func TestDemuxer_ChunkSizeIndependence(t *testing.T) {
	t.Parallel()

	want := []int{1, 2, 3, -1, -2, 4, 5, 6, 7, 8}

	for _, size := range []int{1, 2, 3, 5, 7, 100} {
		t.Run(fmt.Sprintf("chunk=%d", size), func(t *testing.T) {
			t.Parallel()

			r := runToy(newToyDemuxer(), splitEvery(toyInput(), size))
			if len(r.errs) != 0 {
				t.Fatalf("errors = %v", r.errs)
			}
			if r.formats != 1 {
				t.Errorf("format emitted %d times, want 1", r.formats)
			}
			if r.ends != 1 {
				t.Errorf("end emitted %d times, want 1", r.ends)
			}
			if !slices.Equal(r.samples, want) {
				t.Errorf("samples = %v, want %v", r.samples, want)
			}
			if r.dm.State() != Ended {
				t.Errorf("State() = %v, want Ended", r.dm.State())
			}
		})
	}
}

func TestDemuxer_ErrorEmittedOnce(t *testing.T) {
	t.Parallel()

	r := runToy(newToyDemuxer(), splitEvery([]byte("BAD!\x01\x02\x03"), 1))

	if len(r.errs) != 1 {
		t.Fatalf("errors = %v, want exactly one", r.errs)
	}
	if KindOf(r.errs[0]) != KindFormat {
		t.Errorf("KindOf() = %v, want %v", KindOf(r.errs[0]), KindFormat)
	}
	if r.formats != 0 || r.ends != 0 {
		t.Errorf("formats=%d ends=%d after failure, want 0/0", r.formats, r.ends)
	}
	if r.dm.State() != Failed {
		t.Errorf("State() = %v, want Failed", r.dm.State())
	}

	r.dm.Append([]byte("TOY!"))
	if len(r.errs) != 1 || r.formats != 0 {
		t.Error("a failed demuxer kept parsing")
	}
}

func TestDecoder_WaitsOnUnderflow(t *testing.T) {
	t.Parallel()

	dec, _ := newToyDecoder(Format{FormatID: "toy"}, nil)
	var got []int
	dec.Events().Data.On(func(b goaudio.Buffer) { got = append(got, b.(*goaudio.IntBuffer).Data...) })

	dec.Append([]byte{1, 2, 3})
	if dec.Decode() {
		t.Fatal("Decode() = true with a partial packet")
	}
	base := dec.(*toyDecoder)
	if !base.Waiting() {
		t.Error("Waiting() = false after underflow")
	}
	if base.Stream.Offset() != 0 {
		t.Errorf("Offset() after underflow = %d, want 0", base.Stream.Offset())
	}

	dec.Append([]byte{4, 5})
	if !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Errorf("samples after Append = %v, want [1 2 3 4]", got)
	}

	ended := 0
	dec.Events().End.On(func(struct{}) { ended++ })
	dec.End()
	for dec.Decode() {
	}
	dec.Decode()
	if !slices.Equal(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("samples after End = %v, want [1 2 3 4 5]", got)
	}
	if ended != 1 {
		t.Errorf("end emitted %d times, want 1", ended)
	}
}

func TestDecoder_Fatal(t *testing.T) {
	t.Parallel()

	boom := fmt.Errorf("%w: bad packet", ErrMalformed)
	d := &toyDecoder{}
	d.Init(Format{}, nil, func() (goaudio.Buffer, error) { return nil, boom })

	var errs []error
	d.Events().Error.On(func(err error) { errs = append(errs, err) })
	d.Append([]byte{1})

	if d.Decode() || d.Decode() {
		t.Error("Decode() = true after a fatal error")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrMalformed) {
		t.Errorf("errors = %v, want one ErrMalformed", errs)
	}
}

func TestDemuxer_SeekConstant(t *testing.T) {
	t.Parallel()

	dm := newToyDemuxer()
	dm.Append([]byte("TOY!"))

	p, err := dm.Seek(1234)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if p.Offset != 1234 || p.Timestamp != 1234 {
		t.Errorf("Seek(1234) = %+v, want offset 1234", p)
	}
}

func TestDemuxer_SeekTable(t *testing.T) {
	t.Parallel()

	dm := &toyDemuxer{}
	dm.Init(dm.readChunk)
	dm.Append([]byte("TOY!"))

	if _, err := dm.Seek(10); !errors.Is(err, ErrSeekUnsupported) {
		t.Errorf("Seek() without table error = %v, want ErrSeekUnsupported", err)
	}

	dm.AddSeekPoint(0, 0)
	dm.AddSeekPoint(400, 1152)
	dm.AddSeekPoint(820, 2304)

	tests := []struct {
		ts   int64
		want SeekPoint
	}{
		{0, SeekPoint{0, 0}},
		{1, SeekPoint{400, 1152}},
		{1152, SeekPoint{400, 1152}},
		{2000, SeekPoint{820, 2304}},
		{99999, SeekPoint{820, 2304}},
	}

	for _, tt := range tests {
		got, err := dm.Seek(tt.ts)
		if err != nil {
			t.Fatalf("Seek(%d) error = %v", tt.ts, err)
		}
		if got != tt.want {
			t.Errorf("Seek(%d) = %+v, want %+v", tt.ts, got, tt.want)
		}
	}
}

func TestSeekTable_Add(t *testing.T) {
	t.Parallel()

	var table SeekTable
	table.Add(30, 3)
	table.Add(10, 1)
	table.Add(20, 2)
	table.Add(40, 4)

	got := table.Points()
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp > got[i].Timestamp {
			t.Fatalf("table not sorted: %v", got)
		}
	}
	if table.Search(2) != 1 || table.Search(5) != 4 || table.Search(0) != 0 {
		t.Errorf("Search() = %d,%d,%d, want 1,4,0", table.Search(2), table.Search(5), table.Search(0))
	}
}

func TestDecoder_SeekTo(t *testing.T) {
	t.Parallel()

	dm := newToyDemuxer()
	dec, _ := newToyDecoder(Format{FormatID: "toy", BytesPerPacket: 1, FramesPerPacket: 1}, dm)
	dec.Append([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	dm.Append([]byte("TOY!"))

	var got []int
	dec.Events().Data.On(func(b goaudio.Buffer) { got = b.(*goaudio.IntBuffer).Data })

	ts, err := dec.Seek(4)
	if err != nil || ts != 4 {
		t.Fatalf("Seek(4) = %d, %v", ts, err)
	}
	dec.Decode()
	if !slices.Equal(got, []int{5, 6, 7, 8}) {
		t.Errorf("after Seek(4) decoded %v, want [5 6 7 8]", got)
	}

	if _, err := dec.Seek(100); !errors.Is(err, stream.ErrUnderflow) {
		t.Errorf("Seek(100) error = %v, want ErrUnderflow", err)
	}
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Status
		kind Kind
	}{
		{nil, Complete, KindNone},
		{stream.ErrUnderflow, NeedMoreData, KindUnderflow},
		{fmt.Errorf("wrapped: %w", stream.ErrUnderflow), NeedMoreData, KindUnderflow},
		{fmt.Errorf("%w: bad", ErrFormat), Fatal, KindFormat},
		{fmt.Errorf("%w: adpcm", ErrCodecNotFound), Fatal, KindCodecNotFound},
		{ErrDecoderNotFound, Fatal, KindDecoderNotFound},
		{fmt.Errorf("%w: side info", ErrMalformed), Fatal, KindMalformed},
		{stream.ErrInvalidUTF16, Fatal, KindMalformed},
		{errors.New("disk on fire"), Fatal, KindOther},
	}

	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.kind)
		}
	}
}

func TestFloat32Samples(t *testing.T) {
	t.Parallel()

	f := &goaudio.Format{NumChannels: 1, SampleRate: 8000}

	got := Float32Samples(nil, &goaudio.IntBuffer{Format: f, Data: []int{16384, -32768, 0}, SourceBitDepth: 16})
	if !slices.Equal(got, []float32{0.5, -1, 0}) {
		t.Errorf("Float32Samples(int16) = %v", got)
	}

	got = Float32Samples(got[:0], &goaudio.IntBuffer{Format: f, Data: []int{-64}, SourceBitDepth: 8})
	if !slices.Equal(got, []float32{-0.5}) {
		t.Errorf("Float32Samples(int8) = %v", got)
	}

	got = Float32Samples(nil, &goaudio.Float32Buffer{Format: f, Data: []float32{0.25, -0.75}})
	if !slices.Equal(got, []float32{0.25, -0.75}) {
		t.Errorf("Float32Samples(float32) = %v", got)
	}
}

func TestMillis(t *testing.T) {
	t.Parallel()

	if got := Millis(44100, 44100); got != time.Second {
		t.Errorf("Millis(44100, 44100) = %v, want 1s", got)
	}
	if got := Millis(1, 3); got != 333*time.Millisecond {
		t.Errorf("Millis(1, 3) = %v, want 333ms", got)
	}
	if got := Millis(10, 0); got != 0 {
		t.Errorf("Millis(10, 0) = %v, want 0", got)
	}
}
