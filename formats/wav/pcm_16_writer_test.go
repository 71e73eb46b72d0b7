// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ik5/audpipe/internal/audiotest"
)

func TestWritePCM16_Header(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     int
		channels int
		samples  []int16
	}{
		{"empty", 8000, 1, nil},
		{"single sample", 16000, 1, []int16{12345}},
		{"stereo", 44100, 2, []int16{1, -1, 2, -2}},
		{"5.1", 48000, 6, make([]int16, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := new(bytes.Buffer)
			if err := WritePCM16(buf, tt.rate, tt.channels, tt.samples); err != nil {
				t.Fatalf("WritePCM16() error = %v", err)
			}
			data := buf.Bytes()
			if len(data) != headerSize+2*len(tt.samples) {
				t.Fatalf("file size = %d, want %d", len(data), headerSize+2*len(tt.samples))
			}

			le := binary.LittleEndian
			fields := []struct {
				name      string
				got, want uint32
			}{
				{"RIFF size", le.Uint32(data[4:]), uint32(len(data) - 8)},
				{"fmt size", le.Uint32(data[16:]), 16},
				{"format tag", uint32(le.Uint16(data[20:])), waveFormatPCM},
				{"channels", uint32(le.Uint16(data[22:])), uint32(tt.channels)},
				{"sample rate", le.Uint32(data[24:]), uint32(tt.rate)},
				{"byte rate", le.Uint32(data[28:]), uint32(tt.rate * tt.channels * 2)},
				{"block align", uint32(le.Uint16(data[32:])), uint32(tt.channels * 2)},
				{"bits", uint32(le.Uint16(data[34:])), 16},
				{"data size", le.Uint32(data[40:]), uint32(2 * len(tt.samples))},
			}
			for _, f := range fields {
				if f.got != f.want {
					t.Errorf("%s = %d, want %d", f.name, f.got, f.want)
				}
			}
			for _, tag := range []struct {
				off  int
				want string
			}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
				if got := string(data[tag.off : tag.off+4]); got != tag.want {
					t.Errorf("tag at %d = %q, want %q", tag.off, got, tag.want)
				}
			}
		})
	}
}

func TestWriteWAV16_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 100, -100, 32767, -32768, 12345, -6789}
	buf := new(bytes.Buffer)
	if err := WriteWAV16(buf, 16000, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	if !bytes.Equal(buf.Bytes(), audiotest.WAV16(16000, 1, samples)) {
		t.Error("WriteWAV16() differs from the canonical fixture")
	}

	r := demux(buf.Bytes(), 5)
	if len(r.errs) != 0 || len(r.formats) != 1 {
		t.Fatalf("demux formats = %v, errors = %v", r.formats, r.errs)
	}
	if f := r.formats[0]; f.SampleRate != 16000 || f.ChannelsPerFrame != 1 || f.BitsPerChannel != 16 {
		t.Errorf("format = %+v, want 16000 Hz mono 16 bits", f)
	}
	if len(r.data) != 2*len(samples) {
		t.Fatalf("data length = %d, want %d", len(r.data), 2*len(samples))
	}
	for i, want := range samples {
		if got := int16(binary.LittleEndian.Uint16(r.data[2*i:])); got != want {
			t.Errorf("sample[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestWritePCM16_Errors(t *testing.T) {
	t.Parallel()

	if err := WritePCM16(new(bytes.Buffer), 8000, 0, nil); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("WritePCM16(0 channels) error = %v, want %v", err, ErrUnsupportedEncoding)
	}
	if err := WritePCM16(new(bytes.Buffer), 0, 1, nil); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("WritePCM16(0 Hz) error = %v, want %v", err, ErrUnsupportedEncoding)
	}

	w := &limitedWriter{n: 10}
	if err := WriteWAV16(w, 8000, make([]int16, 100)); !errors.Is(err, audiotest.ErrBroken) {
		t.Errorf("WriteWAV16() to a failing writer error = %v, want %v", err, audiotest.ErrBroken)
	}
}

// limitedWriter takes n bytes, then fails.
type limitedWriter struct{ n int }

func (w *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		k := w.n
		w.n = 0
		return k, audiotest.ErrBroken
	}
	w.n -= len(p)

	return len(p), nil
}

func BenchmarkWriteWAV16(b *testing.B) {
	samples := audiotest.Ramp(44100, 1)
	buf := new(bytes.Buffer)
	b.ReportAllocs()

	for b.Loop() {
		buf.Reset()
		_ = WriteWAV16(buf, 44100, samples)
	}
}
