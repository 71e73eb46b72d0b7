// SPDX-License-Identifier: EPL-2.0

package caf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

func cafChunk(typ string, size int64, body []byte) []byte {
	out := []byte(typ)
	out = binary.BigEndian.AppendUint64(out, uint64(size))

	return append(out, body...)
}

func desc(rate float64, id string, flags, bpp, fpp, channels, bits uint32) []byte {
	body := binary.BigEndian.AppendUint64(nil, math.Float64bits(rate))
	body = append(body, id...)
	for _, v := range []uint32{flags, bpp, fpp, channels, bits} {
		body = binary.BigEndian.AppendUint32(body, v)
	}

	return cafChunk("desc", int64(len(body)), body)
}

func data(payload []byte, size int64) []byte {
	return cafChunk("data", size, append(make([]byte, 4), payload...))
}

func file(chunks ...[]byte) []byte {
	return append([]byte("caff\x00\x01\x00\x00"), bytes.Join(chunks, nil)...)
}

type result struct {
	dm        audio.Demuxer
	formats   []audio.Format
	durations []time.Duration
	cookies   [][]byte
	meta      audio.Metadata
	data      []byte
	errs      []error
}

func demux(in []byte, size int) *result {
	r := &result{dm: NewDemuxer(), meta: audio.Metadata{}}
	ev := r.dm.Events()
	ev.Format.On(func(f audio.Format) { r.formats = append(r.formats, f) })
	ev.Duration.On(func(d time.Duration) { r.durations = append(r.durations, d) })
	ev.Cookie.On(func(c []byte) { r.cookies = append(r.cookies, c) })
	ev.Metadata.On(func(m audio.Metadata) {
		for k, v := range m {
			r.meta[k] = v
		}
	})
	ev.Data.On(func(b []byte) { r.data = append(r.data, b...) })
	ev.Error.On(func(err error) { r.errs = append(r.errs, err) })

	for len(in) > 0 {
		n := min(size, len(in))
		r.dm.Append(in[:n])
		in = in[n:]
	}
	r.dm.End()

	return r
}

func TestDemuxer_LPCM(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 4*44100)
	for i := range payload {
		payload[i] = byte(i)
	}

	info := binary.BigEndian.AppendUint32(nil, 2)
	info = append(info, "title\x00Song\x00artist\x00Band\x00"...)

	in := file(
		desc(44100, "lpcm", flagLittleEndian, 4, 1, 2, 16),
		cafChunk("info", int64(len(info)), info),
		cafChunk("free", 3, []byte{0, 0, 0}),
		data(payload, int64(len(payload)+4)),
	)

	for _, size := range []int{1, 13, 4096, len(in)} {
		r := demux(in, size)
		if len(r.errs) != 0 {
			t.Fatalf("chunk=%d: errors = %v", size, r.errs)
		}

		want := audio.Format{
			FormatID: "lpcm", SampleRate: 44100, ChannelsPerFrame: 2, BitsPerChannel: 16,
			BytesPerPacket: 4, FramesPerPacket: 1, LittleEndian: true, Bitrate: 1411200,
		}
		if len(r.formats) != 1 || r.formats[0] != want {
			t.Errorf("chunk=%d: formats = %+v, want %+v", size, r.formats, want)
		}
		if len(r.durations) != 1 || r.durations[0] != time.Second {
			t.Errorf("chunk=%d: durations = %v, want [1s]", size, r.durations)
		}
		if r.meta["title"] != "Song" || r.meta["artist"] != "Band" {
			t.Errorf("chunk=%d: metadata = %v", size, r.meta)
		}
		if !bytes.Equal(r.data, payload) {
			t.Errorf("chunk=%d: data differs", size)
		}
	}
}

func TestDemuxer_FloatFlags(t *testing.T) {
	t.Parallel()

	r := demux(file(desc(48000, "lpcm", flagFloat, 4, 1, 1, 32), data(nil, 4)), 64)
	if len(r.formats) != 1 {
		t.Fatalf("formats = %v", r.formats)
	}
	if f := r.formats[0]; !f.FloatingPoint || f.LittleEndian {
		t.Errorf("format = %+v, want big endian float", f)
	}
}

func TestDemuxer_PacketTable(t *testing.T) {
	t.Parallel()

	// Three variable sized packets of 1152 frames: 100, 300 and 200 bytes.
	pakt := binary.BigEndian.AppendUint64(nil, 3)
	pakt = binary.BigEndian.AppendUint64(pakt, 3000)
	pakt = binary.BigEndian.AppendUint32(pakt, 0)
	pakt = binary.BigEndian.AppendUint32(pakt, 456)
	pakt = append(pakt, 0x64, 0x82, 0x2c, 0x81, 0x48)

	cookie := []byte{0xde, 0xad}
	in := file(
		desc(48000, ".mp3", 0, 0, 1152, 2, 0),
		cafChunk("kuki", 2, cookie),
		cafChunk("pakt", int64(len(pakt)), pakt),
		data(make([]byte, 600), -1),
	)

	r := demux(in, 7)
	if len(r.errs) != 0 {
		t.Fatalf("errors = %v", r.errs)
	}
	if r.formats[0].FormatID != "mp3" {
		t.Errorf("FormatID = %q, want mp3", r.formats[0].FormatID)
	}
	if len(r.cookies) != 1 || !bytes.Equal(r.cookies[0], cookie) {
		t.Errorf("cookies = %v, want [%v]", r.cookies, cookie)
	}
	if len(r.durations) != 1 || r.durations[0] != 62*time.Millisecond {
		t.Errorf("durations = %v, want [62ms]", r.durations)
	}
	if len(r.data) != 600 {
		t.Errorf("data length = %d, want 600", len(r.data))
	}

	tests := []struct {
		ts   int64
		want audio.SeekPoint
	}{
		{0, audio.SeekPoint{Offset: 0, Timestamp: 0}},
		{1152, audio.SeekPoint{Offset: 100, Timestamp: 1152}},
		{1153, audio.SeekPoint{Offset: 400, Timestamp: 2304}},
		{9999, audio.SeekPoint{Offset: 400, Timestamp: 2304}},
	}
	for _, tt := range tests {
		got, err := r.dm.Seek(tt.ts)
		if err != nil {
			t.Fatalf("Seek(%d) error = %v", tt.ts, err)
		}
		if got != tt.want {
			t.Errorf("Seek(%d) = %+v, want %+v", tt.ts, got, tt.want)
		}
	}
}

func TestDemuxer_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"magic", []byte("RIFF\x00\x00\x00\x00WAVE"), ErrNotCafFile},
		{"no desc", file(data(nil, 4)), ErrMissingDesc},
		{"short desc", file(cafChunk("desc", 8, make([]byte, 8))), ErrInvalidDesc},
	}

	for _, tt := range tests {
		r := demux(tt.in, 5)
		if len(r.errs) != 1 || !errors.Is(r.errs[0], tt.want) {
			t.Errorf("%s: errors = %v, want [%v]", tt.name, r.errs, tt.want)
			continue
		}
		if audio.KindOf(r.errs[0]) == audio.KindOther {
			t.Errorf("%s: KindOf() = other", tt.name)
		}
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	if !Probe(stream.FromBytes(file())) {
		t.Error("Probe(caff) = false, want true")
	}
	if Probe(stream.FromBytes([]byte("FORM"))) {
		t.Error("Probe(FORM) = true, want false")
	}
}
