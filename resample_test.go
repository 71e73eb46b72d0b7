// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"bytes"
	"testing"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/audiotest"
)

func TestResampleToMono16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  audio.Source
		rate int
		want int
		// level is the expected magnitude of every sample, or -1 to skip.
		level int
	}{
		{"stereo down", audiotest.NewSineSource(44100, 2, 44100, 440), 8000, 8000, -1},
		{"constant mono", audiotest.NewConstantSource(16000, 1, 16000, 0.5), 8000, 8000, 16383},
		{"silence", audiotest.NewSilentSource(44100, 2, 44100), 8000, 8000, 0},
		{"upsample", audiotest.NewSineSource(8000, 2, 8000, 440), 16000, 16000, -1},
		{"48k to 16k", audiotest.NewSineSource(48000, 1, 48000, 440), 16000, 16000, -1},
		{"empty", audiotest.NewSilentSource(44100, 2, 0), 8000, 0, -1},
		{"clamped", audiotest.NewConstantSource(8000, 1, 8000, 2), 8000, 8000, 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pcm16, rate, err := ResampleToMono16(tt.src, tt.rate, 4096)
			if err != nil {
				t.Fatalf("ResampleToMono16() error = %v", err)
			}
			if rate != tt.rate {
				t.Errorf("ResampleToMono16() rate = %d, want %d", rate, tt.rate)
			}

			tolerance := tt.want / 20
			if len(pcm16) < tt.want-tolerance || len(pcm16) > tt.want+tolerance {
				t.Errorf("ResampleToMono16() got %d samples, want about %d", len(pcm16), tt.want)
			}

			if tt.level < 0 {
				return
			}
			for i, s := range pcm16 {
				if d := int(s) - tt.level; d > 200 || d < -200 {
					t.Fatalf("pcm16[%d] = %d, want about %d", i, s, tt.level)
				}
			}
		})
	}
}

func TestResampleToMono16_Asset(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 2*16000)
	for i := range samples {
		samples[i] = 8192
	}
	a, err := Open(bytes.NewReader(audiotest.WAV16(16000, 2, samples)))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	pcm16, _, err := ResampleToMono16(a, 8000, 1024)
	if err != nil {
		t.Fatalf("ResampleToMono16() error = %v", err)
	}
	if len(pcm16) < 7900 || len(pcm16) > 8100 {
		t.Errorf("ResampleToMono16() got %d samples, want about 8000", len(pcm16))
	}
	if s := pcm16[len(pcm16)/2]; s < 8000 || s > 8400 {
		t.Errorf("pcm16[mid] = %d, want about 8191", s)
	}
}

func BenchmarkResampleToMono16(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440.0)
		_, _, _ = ResampleToMono16(src, 8000, 4096)
	}
}
