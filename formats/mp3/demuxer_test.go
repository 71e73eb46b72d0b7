// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

func synchsafeBytes(n int) []byte {
	return []byte{byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)}
}

// id3Tag builds a tag of the given version from frames of id, encoding
// byte and text.
func id3Tag(version byte, frames ...[3]string) []byte {
	var body []byte
	for _, f := range frames {
		data := append([]byte(f[1]), f[2]...)
		switch version {
		case 2:
			n := len(data)
			body = append(body, f[0]...)
			body = append(body, byte(n>>16), byte(n>>8), byte(n))
		case 3:
			body = append(body, f[0]...)
			body = binary.BigEndian.AppendUint32(body, uint32(len(data)))
			body = append(body, 0, 0)
		default:
			body = append(body, f[0]...)
			body = append(body, synchsafeBytes(len(data))...)
			body = append(body, 0, 0)
		}
		body = append(body, data...)
	}
	// Padding.
	body = append(body, make([]byte, 16)...)

	tag := append([]byte{'I', 'D', '3', version, 0, 0}, synchsafeBytes(len(body))...)

	return append(tag, body...)
}

type demuxed struct {
	format   audio.Format
	duration time.Duration
	metadata audio.Metadata
	data     []byte
	errs     []error
	ended    bool
	dm       *Demuxer
}

func demux(t *testing.T, file []byte, size int) *demuxed {
	t.Helper()

	var out demuxed
	dm := NewDemuxer().(*Demuxer)
	out.dm = dm
	ev := dm.Events()
	ev.Format.On(func(f audio.Format) { out.format = f })
	ev.Duration.On(func(d time.Duration) { out.duration = d })
	ev.Metadata.On(func(m audio.Metadata) { out.metadata = m })
	ev.Data.On(func(b []byte) { out.data = append(out.data, b...) })
	ev.Error.On(func(err error) { out.errs = append(out.errs, err) })
	ev.End.On(func(struct{}) { out.ended = true })

	for i := 0; i < len(file); i += size {
		dm.Append(file[i:min(i+size, len(file))])
	}
	dm.End()

	return &out
}

func TestDemuxer_ID3(t *testing.T) {
	t.Parallel()

	utf16 := string([]byte{0xff, 0xfe, 'H', 0, 'i', 0})
	tests := []struct {
		name    string
		version byte
		frames  [][3]string
		want    audio.Metadata
	}{
		{
			name:    "v2.3",
			version: 3,
			frames: [][3]string{
				{"TIT2", "\x00", "Song"},
				{"TPE1", "\x03", "Ärtist\x00"},
				{"TRCK", "\x00", "3/12"},
				{"COMM", "\x00", "eng\x00A comment"},
				{"TXXX", "\x00", "mood\x00calm"},
				{"WOAR", "", "http://example.com"},
				{"TALB", "\x01", utf16},
			},
			want: audio.Metadata{
				"title":       "Song",
				"artist":      "Ärtist",
				"trackNumber": "3/12",
				"comments":    "A comment",
				"mood":        "calm",
				"artistURL":   "http://example.com",
				"album":       "Hi",
			},
		},
		{
			name:    "v2.4",
			version: 4,
			frames: [][3]string{
				{"TIT2", "\x03", "One\x00Two"},
				{"TDRC", "\x00", "2001"},
			},
			want: audio.Metadata{"title": "One/Two", "year": "2001"},
		},
		{
			name:    "v2.2",
			version: 2,
			frames: [][3]string{
				{"TT2", "\x00", "Old"},
				{"TP1", "\x00", "Band"},
				{"COM", "\x00", "eng\x00note"},
				{"XYZ", "\x00", "dropped"},
			},
			want: audio.Metadata{"title": "Old", "artist": "Band", "comments": "note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			frames := writeLayer3(1, testFrames(1, 2), 0)
			file := append(id3Tag(tt.version, tt.frames...), frames...)
			got := demux(t, file, 13)

			if len(got.errs) != 0 {
				t.Fatalf("errors = %v", got.errs)
			}
			if len(got.metadata) != len(tt.want) {
				t.Errorf("metadata = %v, want %v", got.metadata, tt.want)
			}
			for k, v := range tt.want {
				if got.metadata[k] != v {
					t.Errorf("metadata[%q] = %q, want %q", k, got.metadata[k], v)
				}
			}
			if !bytes.Equal(got.data, frames) {
				t.Errorf("data holds %d bytes, want the %d bytes after the tag", len(got.data), len(frames))
			}
		})
	}
}

func TestDemuxer_CBRDuration(t *testing.T) {
	t.Parallel()

	file := writeLayer3(2, testFrames(2, 10), 0)
	got := demux(t, file, 100)

	if len(got.errs) != 0 {
		t.Fatalf("errors = %v", got.errs)
	}
	if !got.ended {
		t.Error("End not emitted")
	}

	want := audio.Format{
		FormatID:         FormatID,
		SampleRate:       testRate,
		ChannelsPerFrame: 2,
		FramesPerPacket:  1152,
		Bitrate:          testBitrate,
	}
	if got.format != want {
		t.Errorf("format = %+v, want %+v", got.format, want)
	}
	// 4170 bytes at 128 kbit/s is 260.625 ms.
	if got.duration != 260*time.Millisecond {
		t.Errorf("duration = %v, want 260ms", got.duration)
	}
	if _, err := got.dm.Seek(1000); !errors.Is(err, audio.ErrSeekUnsupported) {
		t.Errorf("Seek() error = %v, want %v", err, audio.ErrSeekUnsupported)
	}
}

// xingFrame returns a silent Layer III frame carrying a Xing header.
func xingFrame(tag string, frames, size int, toc bool) []byte {
	frame := make([]byte, testFrameSize)
	copy(frame, []byte{0xff, 0xfb, 0x90, 0xc0})

	flags := uint32(xingFrames | xingBytes)
	if toc {
		flags |= xingTOC
	}
	b := frame[headerSize+17:]
	copy(b, tag)
	binary.BigEndian.PutUint32(b[4:], flags)
	binary.BigEndian.PutUint32(b[8:], uint32(frames))
	binary.BigEndian.PutUint32(b[12:], uint32(size))
	if toc {
		for i := range 100 {
			b[16+i] = byte(i * 256 / 100)
		}
	}

	return frame
}

func TestDemuxer_Xing(t *testing.T) {
	t.Parallel()

	frames := writeLayer3(1, testFrames(1, 20), 0)
	for _, tag := range []string{"Xing", "Info"} {
		file := append(xingFrame(tag, 20, testFrameSize+len(frames), true), frames...)
		got := demux(t, file, 333)

		if len(got.errs) != 0 {
			t.Fatalf("%s: errors = %v", tag, got.errs)
		}
		// 20*1152 frames at 44.1 kHz.
		if got.duration != 522*time.Millisecond {
			t.Errorf("%s: duration = %v, want 522ms", tag, got.duration)
		}
		if !bytes.Equal(got.data, frames) {
			t.Errorf("%s: data holds %d bytes, want %d without the info frame", tag, len(got.data), len(frames))
		}
		if got.format.Bitrate != 134091 {
			t.Errorf("%s: bitrate = %d, want 134091", tag, got.format.Bitrate)
		}

		p, err := got.dm.Seek(10 * 1152)
		if err != nil {
			t.Fatalf("%s: Seek() error = %v", tag, err)
		}
		if p.Timestamp != 10*1152 {
			t.Errorf("%s: Seek() timestamp = %d, want %d", tag, p.Timestamp, 10*1152)
		}
		// TOC entry 50 is byte 128 of 256: half of the 21 frames, less
		// the info frame.
		if want := int64(128*(21*testFrameSize)/256 - testFrameSize); p.Offset != want {
			t.Errorf("%s: Seek() offset = %d, want %d", tag, p.Offset, want)
		}
	}
}

func TestDemuxer_VBRI(t *testing.T) {
	t.Parallel()

	frame := make([]byte, testFrameSize)
	copy(frame, []byte{0xff, 0xfb, 0x90, 0xc0})
	b := frame[vbriOffset:]
	copy(b, "VBRI")
	binary.BigEndian.PutUint16(b[4:], 1)
	binary.BigEndian.PutUint32(b[10:], uint32(11*testFrameSize))
	binary.BigEndian.PutUint32(b[14:], 10)
	binary.BigEndian.PutUint16(b[18:], 2)
	binary.BigEndian.PutUint16(b[20:], 1)
	binary.BigEndian.PutUint16(b[22:], 2)
	binary.BigEndian.PutUint16(b[24:], 5)
	binary.BigEndian.PutUint16(b[26:], uint16(5*testFrameSize))
	binary.BigEndian.PutUint16(b[28:], uint16(5*testFrameSize))

	frames := writeLayer3(1, testFrames(1, 10), 0)
	got := demux(t, append(frame, frames...), 1000)

	if len(got.errs) != 0 {
		t.Fatalf("errors = %v", got.errs)
	}
	if got.duration != 261*time.Millisecond {
		t.Errorf("duration = %v, want 261ms", got.duration)
	}

	pts := got.dm.SeekPoints.Points()
	want := []audio.SeekPoint{{Offset: 0, Timestamp: 0}, {Offset: 5 * testFrameSize, Timestamp: 5 * 1152}}
	if len(pts) != len(want) {
		t.Fatalf("seek points = %v, want %v", pts, want)
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("seek point %d = %v, want %v", i, pts[i], want[i])
		}
	}
}

func TestDemuxer_NotMP3(t *testing.T) {
	t.Parallel()

	got := demux(t, []byte("definitely not an mpeg stream"), 4)
	if len(got.errs) != 1 || !errors.Is(got.errs[0], ErrNotMP3File) {
		t.Errorf("errors = %v, want %v", got.errs, ErrNotMP3File)
	}
	if !errors.Is(ErrNotMP3File, audio.ErrFormat) {
		t.Errorf("ErrNotMP3File does not wrap %v", audio.ErrFormat)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	frames := writeLayer3(1, testFrames(1, 1), 0)
	tag := id3Tag(3, [3]string{"TIT2", "\x00", "x"})

	tests := []struct {
		name string
		head []byte
		want bool
	}{
		{"frame", frames[:16], true},
		{"tag then frame", append(append([]byte{}, tag...), frames[:4]...), true},
		{"tag larger than head", tag[:12], false},
		{"tag then short frame", append(append([]byte{}, tag...), frames[:3]...), false},
		{"tag then junk", append(append([]byte{}, tag...), "junk"...), false},
		{"reserved layer", []byte{0xff, 0xf9, 0x90, 0x00}, false},
		{"wave", []byte("RIFF\x00\x00\x00\x00WAVE"), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Probe(stream.FromBytes(tt.head)); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}
