// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

func TestWriter_ReadBackWithGoAudio(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	w, err := NewWriter(f, 22050, 2, 16)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	ints := &goaudio.IntBuffer{Data: []int{100, -100, 32767, -32768}, SourceBitDepth: 16}
	floats := &goaudio.Float32Buffer{Data: []float32{0.5, -0.5, 2, -2}}

	if err := w.Write(ints); err != nil {
		t.Fatalf("Write(ints) error = %v", err)
	}
	if err := w.Write(floats); err != nil {
		t.Fatalf("Write(floats) error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	dec := gowav.NewDecoder(in)
	if !dec.IsValidFile() {
		t.Fatal("IsValidFile() = false")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}

	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("header = %d Hz, %d ch, %d bits; want 22050 Hz, 2 ch, 16 bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	want := []int{100, -100, 32767, -32768, 16383, -16383, 32767, -32767}
	if !slices.Equal(buf.Data, want) {
		t.Errorf("samples = %v, want %v", buf.Data, want)
	}
}

func TestWriter_DemuxesItsOwnOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out24.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{1, 2, 3, 4, 5, 6},
		SourceBitDepth: 24,
	}
	if err := Encode(f, buf, 24); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	r := demux(data, 7)
	if len(r.errs) != 0 {
		t.Fatalf("demux errors = %v", r.errs)
	}
	if got := r.formats[0]; got.BitsPerChannel != 24 || got.BytesPerPacket != 3 || got.SampleRate != 8000 {
		t.Errorf("format = %+v, want 24-bit mono 8000 Hz", got)
	}
	if len(r.data) != 18 {
		t.Errorf("data length = %d, want 18", len(r.data))
	}
}

func TestNewWriter_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := NewWriter(f, 8000, 1, 12); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("NewWriter(12 bits) error = %v, want ErrUnsupportedBitDepth", err)
	}
	if _, err := NewWriter(f, 8000, 0, 16); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("NewWriter(0 channels) error = %v, want ErrUnsupportedEncoding", err)
	}
	if err := Encode(f, &goaudio.IntBuffer{}, 16); err == nil {
		t.Error("Encode(no format) error = nil, want error")
	}
}
