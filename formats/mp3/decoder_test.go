// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"slices"
	"testing"

	goaudio "github.com/go-audio/audio"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audpipe/audio"
)

var testFormat = audio.Format{
	FormatID:        FormatID,
	SampleRate:      testRate,
	FramesPerPacket: 1152,
	Bitrate:         testBitrate,
}

func newTestDecoder(t *testing.T, nch int) (*Decoder, *[]goaudio.Buffer) {
	t.Helper()

	f := testFormat
	f.ChannelsPerFrame = nch
	dec, err := NewDecoder(f, nil)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	var out []goaudio.Buffer
	dec.Events().Data.On(func(b goaudio.Buffer) { out = append(out, b) })
	dec.Events().Error.On(func(err error) { t.Fatalf("decoder error = %v", err) })

	return dec.(*Decoder), &out
}

// decodeAll feeds data in chunks of size and returns the interleaved PCM.
func decodeAll(t *testing.T, nch int, data []byte, size int) ([]float32, []goaudio.Buffer) {
	t.Helper()

	dec, out := newTestDecoder(t, nch)
	for len(data) > 0 {
		n := min(size, len(data))
		dec.Append(data[:n])
		data = data[n:]
		for dec.Decode() {
		}
	}
	dec.End()
	for dec.Decode() {
	}

	return samples(*out), *out
}

func samples(bufs []goaudio.Buffer) []float32 {
	var pcm []float32
	for _, b := range bufs {
		pcm = append(pcm, b.(*goaudio.Float32Buffer).Data...)
	}

	return pcm
}

func TestDecoder_MatchesGoMP3(t *testing.T) {
	t.Parallel()

	ms := byte(modeByteJoint | msStereo<<4)
	tests := []struct {
		name  string
		mode  byte
		style frameStyle
	}{
		{"mono", modeByteMono, frameStyle{}},
		{"stereo", modeByteStereo, frameStyle{}},
		{"ms stereo", ms, frameStyle{quads: 8}},
		{"short blocks", modeByteStereo, frameStyle{blocks: []int{0, 1, 2, 2, 3}, subblock: [3]int{0, 1, 2}, lines: 48}},
		{"mixed blocks", modeByteMono, frameStyle{blocks: []int{0, 1, 2, 3}, mixed: true, lines: 60}},
		{"ms short blocks", ms, frameStyle{blocks: []int{1, 2, 3, 0}, quads: 4}},
		{"table 13", modeByteMono, frameStyle{table: 13, peak: 15, gain: 165}},
		{"linbits 2", modeByteStereo, frameStyle{table: 17, peak: 18, gain: 165}},
		{"linbits 4", modeByteMono, frameStyle{table: 24, peak: 30, gain: 160}},
		{"scalefactors", modeByteStereo, frameStyle{scalefacs: true, quads: 10, count1Table: 1}},
		{"short scalefactors", modeByteStereo, frameStyle{blocks: []int{1, 2, 3, 0}, scalefacs: true}},
		{"mixed scalefactors", modeByteMono, frameStyle{blocks: []int{1, 2, 3, 0}, mixed: true, scalefacs: true, lines: 48}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nch := 2
			if tt.mode == modeByteMono {
				nch = 1
			}
			file := writeLayer3Mode(tt.mode, styledFrames(nch, 8, tt.style), 0)
			got, bufs := decodeAll(t, nch, file, len(file))

			if len(bufs) != 8 {
				t.Fatalf("decoded %d buffers, want 8", len(bufs))
			}
			for _, b := range bufs {
				f := b.(*goaudio.Float32Buffer)
				if f.Format.NumChannels != nch || f.Format.SampleRate != testRate {
					t.Errorf("format = %+v, want %d channels at %d Hz", f.Format, nch, testRate)
				}
			}

			compareGoMP3(t, file, nch, got)
		})
	}
}

// compareGoMP3 checks pcm against the 16-bit output of go-mp3 for file.
func compareGoMP3(t *testing.T, file []byte, nch int, pcm []float32) {
	t.Helper()

	ref, err := gomp3.NewDecoder(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("gomp3.NewDecoder() error = %v", err)
	}
	raw, err := io.ReadAll(ref)
	if err != nil {
		t.Fatalf("gomp3 read error = %v", err)
	}

	frames := min(len(pcm)/nch, len(raw)/4)
	if frames < 7*1152 {
		t.Fatalf("compared %d frames, want at least %d", frames, 7*1152)
	}

	// go-mp3 always writes two channels.
	var peak float64
	for i := range frames {
		for ch := range nch {
			want := float64(int16(binary.LittleEndian.Uint16(raw[4*i+2*ch:]))) / 32768
			v := float64(pcm[i*nch+ch])
			peak = max(peak, math.Abs(v))
			if math.Abs(v-want) > 1e-3 {
				t.Fatalf("sample %d/%d = %v, want %v", i, ch, v, want)
			}
		}
	}
	if peak < 1e-3 {
		t.Errorf("peak = %v, want an audible signal", peak)
	}
}

func TestDecoder_ChunkIndependence(t *testing.T) {
	t.Parallel()

	file := writeLayer3(2, testFrames(2, 5), 0)
	want, _ := decodeAll(t, 2, file, len(file))

	for _, size := range []int{1, 7, 416, 417, 1000} {
		if got, _ := decodeAll(t, 2, file, size); !slices.Equal(got, want) {
			t.Errorf("chunk=%d: %d samples differ from a single append of %d", size, len(got), len(want))
		}
	}
}

func TestDecoder_Reservoir(t *testing.T) {
	t.Parallel()

	frames := testFrames(2, 6)
	want, _ := decodeAll(t, 2, writeLayer3(2, frames, 0), 4096)

	for _, reservoir := range []int{1, 40, 200} {
		got, _ := decodeAll(t, 2, writeLayer3(2, frames, reservoir), 100)
		if !slices.Equal(got, want) {
			t.Errorf("reservoir=%d: output differs from the same frames without reservoir", reservoir)
		}
	}
}

func TestDecoder_SkipsJunk(t *testing.T) {
	t.Parallel()

	file := writeLayer3(1, testFrames(1, 4), 0)
	want, _ := decodeAll(t, 1, file, len(file))

	junk := append([]byte{0x00, 0xff, 0x12, 0xff, 0xe0, 0x00}, file...)
	if got, _ := decodeAll(t, 1, junk, 5); !slices.Equal(got, want) {
		t.Errorf("decoded %d samples after junk, want %d", len(got), len(want))
	}
}

func TestDecoder_TruncatedFinalFrame(t *testing.T) {
	t.Parallel()

	file := writeLayer3(1, testFrames(1, 3), 0)
	_, bufs := decodeAll(t, 1, file[:len(file)-100], 64)

	if len(bufs) != 2 {
		t.Errorf("decoded %d frames, want 2", len(bufs))
	}
}

func TestDecoder_Seek(t *testing.T) {
	t.Parallel()

	frames := testFrames(1, 8)
	file := writeLayer3(1, frames, 0)
	full, _ := decodeAll(t, 1, file, len(file))

	dec, out := newTestDecoder(t, 1)
	dec.Append(file)
	dec.End()
	for dec.Decode() {
	}

	*out = nil
	landed, err := dec.Seek(3 * 1152)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if landed != 3*1152 {
		t.Errorf("Seek() = %d, want %d", landed, 3*1152)
	}
	for dec.Decode() {
	}

	// 3*1152 frames at 128 kbit/s land 2 bytes into frame 3, so decoding
	// resumes at frame 4. Its first granule lacks the overlap of frame 3;
	// from frame 5 on the output is the same as without the seek.
	if len(*out) != 4 {
		t.Fatalf("decoded %d frames after seek, want 4", len(*out))
	}
	if got := samples(*out); !slices.Equal(got[1152:], full[5*1152:]) {
		t.Error("frames after the first one differ from a straight decode")
	}
}

func TestDecoder_SeekWithoutBitrate(t *testing.T) {
	t.Parallel()

	dec, err := NewDecoder(audio.Format{FormatID: FormatID, SampleRate: testRate}, nil)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if _, err := dec.Seek(1000); !errors.Is(err, audio.ErrSeekUnsupported) {
		t.Errorf("Seek() error = %v, want %v", err, audio.ErrSeekUnsupported)
	}
}

func TestDecoder_FatalSideInfo(t *testing.T) {
	t.Parallel()

	file := writeLayer3(1, testFrames(1, 3), 0)
	// big_values of granule 0 sits after main_data_begin, private bits,
	// scfsi and part2_3_length: bits 30..38 of the side info.
	si := file[headerSize:]
	si[3] |= 0x03
	si[4] |= 0xff

	dec, _ := newTestDecoderNoFail(t)
	var errs []error
	dec.Events().Error.On(func(err error) { errs = append(errs, err) })
	dec.Append(file)
	dec.End()
	for dec.Decode() {
	}

	if len(errs) != 1 || !errors.Is(errs[0], ErrBadBigValues) {
		t.Errorf("errors = %v, want %v", errs, ErrBadBigValues)
	}
	if !errors.Is(errs[0], audio.ErrMalformed) {
		t.Errorf("error %v does not wrap %v", errs[0], audio.ErrMalformed)
	}
}

func newTestDecoderNoFail(t *testing.T) (*Decoder, *[]goaudio.Buffer) {
	t.Helper()

	dec, err := NewDecoder(testFormat, nil)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	var out []goaudio.Buffer
	dec.Events().Data.On(func(b goaudio.Buffer) { out = append(out, b) })

	return dec.(*Decoder), &out
}

// silentFrame returns n copies of a frame whose header is head and whose
// body is zero: no allocation in Layer I and II.
func silentFrame(head []byte, size, n int) []byte {
	frame := make([]byte, size)
	copy(frame, head)

	return bytes.Repeat(frame, n)
}

func TestDecoder_Layer12(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		head   []byte
		size   int
		frames int
	}{
		// MPEG-1 Layer I, 128 kbit/s, 44.1 kHz, mono.
		{"layer1", []byte{0xff, 0xff, 0x40, 0xc0}, 136, 384},
		// MPEG-1 Layer II, 128 kbit/s, 44.1 kHz, mono.
		{"layer2", []byte{0xff, 0xfd, 0x80, 0xc0}, 417, 1152},
		// MPEG-1 Layer II, 80 kbit/s, 48 kHz, stereo: table 2.
		{"layer2-lowrate", []byte{0xff, 0xfd, 0x54, 0x00}, 240, 1152},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := ParseHeader(tt.head)
			if err != nil {
				t.Fatalf("ParseHeader() error = %v", err)
			}
			if h.FrameSize() != tt.size {
				t.Fatalf("FrameSize() = %d, want %d", h.FrameSize(), tt.size)
			}

			_, bufs := decodeAll(t, h.Channels(), silentFrame(tt.head, tt.size, 3), 50)
			if len(bufs) != 3 {
				t.Fatalf("decoded %d frames, want 3", len(bufs))
			}
			for _, b := range bufs {
				data := b.(*goaudio.Float32Buffer).Data
				if len(data) != tt.frames*h.Channels() {
					t.Errorf("buffer holds %d samples, want %d", len(data), tt.frames*h.Channels())
				}
				for _, v := range data {
					if v != 0 {
						t.Fatalf("sample = %v, want silence", v)
					}
				}
			}
		})
	}
}

func TestLayer1_Samples(t *testing.T) {
	t.Parallel()

	// One mono Layer I frame with subband 0 allocated 4 bits, scalefactor
	// 0 (2.0) and every sample at the largest code.
	var w bitWriter
	w.write(0xffff40c0, 32)
	w.write(3, 4)
	w.write(0, 4*31)
	w.write(0, 6)
	for range 12 {
		w.write(15, 4)
	}
	frame := make([]byte, 136)
	copy(frame, w.buf)

	h, err := ParseHeader(frame)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	var d Decoder
	if err := d.decodeLayer1(&h, frame); err != nil {
		t.Fatalf("decodeLayer1() error = %v", err)
	}

	// (7/8 + 1/8) * 16/15 * 2
	want := float32(32.0 / 15)
	for s := range 12 {
		if got := d.sbsample[0][s][0]; math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("sbsample[0][%d][0] = %v, want %v", s, got, want)
		}
		if got := d.sbsample[0][s][1]; got != 0 {
			t.Errorf("sbsample[0][%d][1] = %v, want 0", s, got)
		}
	}
}

func TestLayer1_ForbiddenAllocation(t *testing.T) {
	t.Parallel()

	frame := make([]byte, 136)
	copy(frame, []byte{0xff, 0xff, 0x40, 0xc0, 0xf0})
	h, _ := ParseHeader(frame)

	var d Decoder
	if err := d.decodeLayer1(&h, frame); !errors.Is(err, ErrBadBitAlloc) {
		t.Errorf("decodeLayer1() error = %v, want %v", err, ErrBadBitAlloc)
	}
}

func TestLayer2Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		head    []byte
		want    int
		wantErr error
	}{
		{"stereo 80k 48k", []byte{0xff, 0xfd, 0x54, 0x00}, 2, nil},
		{"stereo 128k 44.1k", []byte{0xff, 0xfd, 0x80, 0x00}, 0, nil},
		{"stereo 192k 44.1k", []byte{0xff, 0xfd, 0xa0, 0x00}, 1, nil},
		{"stereo 256k 44.1k", []byte{0xff, 0xfd, 0xc0, 0x00}, 1, nil},
		{"stereo 256k 48k", []byte{0xff, 0xfd, 0xc4, 0x00}, 0, nil},
		{"stereo 80k 32k", []byte{0xff, 0xfd, 0x58, 0x00}, 3, nil},
		{"mono 128k 44.1k", []byte{0xff, 0xfd, 0x80, 0xc0}, 1, nil},
		{"mono 256k", []byte{0xff, 0xfd, 0xc0, 0xc0}, 0, ErrBadMode},
		{"lsf", []byte{0xff, 0xf5, 0x80, 0x00}, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := ParseHeader(tt.head)
			if err != nil {
				t.Fatalf("ParseHeader() error = %v", err)
			}
			got, err := layer2Table(&h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("layer2Table() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("layer2Table() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDequantize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code, nb int
		want     float32
	}{
		{0, 2, -1},
		{1, 2, -0.5},
		{2, 2, 0},
		{3, 2, 0.5},
		{7, 4, -0.125},
		{8, 4, 0},
		{15, 4, 0.875},
	}

	for _, tt := range tests {
		if got := dequantize(tt.code, tt.nb); got != tt.want {
			t.Errorf("dequantize(%d, %d) = %v, want %v", tt.code, tt.nb, got, tt.want)
		}
	}
}
