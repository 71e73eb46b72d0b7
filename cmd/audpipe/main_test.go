// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ik5/audpipe"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/audiotest"
)

// run executes the command line with a private config file holding cfg.
func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audpipe.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.Execute()

	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func decodeFile(t *testing.T, path string) (*audpipe.Asset, []float32) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	a, err := audpipe.Open(f)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	t.Cleanup(func() { a.Close() })

	samples, err := a.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}

	return a, samples
}

func TestProbe(t *testing.T) {
	t.Parallel()

	in := writeFile(t, "tone.aiff", audiotest.AIFF16(8000, 1, audiotest.Ramp(8000, 1), "Test Tone"))
	out, err := run(t, "", "probe", in)
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}

	for _, want := range []string{
		in + "\n",
		"container:    aiff\n",
		"codec:        lpcm\n",
		"sample rate:  8000 Hz\n",
		"channels:     1\n",
		"bits:         16\n",
		"duration:     1s\n",
		"title: Test Tone\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("probe output misses %q:\n%s", want, out)
		}
	}
}

func TestProbe_Errors(t *testing.T) {
	t.Parallel()

	garbage := writeFile(t, "noise.bin", bytes.Repeat([]byte{0x55}, 100))

	if _, err := run(t, "", "probe", filepath.Join(t.TempDir(), "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("probe missing file error = %v, want %v", err, os.ErrNotExist)
	}
	if _, err := run(t, "", "probe", garbage); !errors.Is(err, audio.ErrDemuxerNotFound) {
		t.Errorf("probe garbage error = %v, want %v", err, audio.ErrDemuxerNotFound)
	}
	if _, err := run(t, "", "probe"); err == nil {
		t.Error("probe without arguments succeeded")
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	samples := audiotest.Ramp(2*8000, 1)
	in := writeFile(t, "tone.au", audiotest.AU16(8000, 2, samples))

	tests := []struct {
		name  string
		args  []string
		bits  int
		skip  int
		count int
	}{
		{"whole file", nil, 16, 0, 16000},
		{"24 bit", []string{"--bit-depth", "24"}, 24, 0, 16000},
		{"from the middle", []string{"--start", "500ms"}, 16, 8000, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := filepath.Join(t.TempDir(), "out.wav")
			args := append([]string{"decode", in, out}, tt.args...)
			if _, err := run(t, "", args...); err != nil {
				t.Fatalf("decode error = %v", err)
			}

			a, got := decodeFile(t, out)
			if a.SampleRate() != 8000 || a.Channels() != 2 {
				t.Errorf("output = %d Hz, %d channels, want 8000 Hz, 2 channels", a.SampleRate(), a.Channels())
			}
			if a.Format().BitsPerChannel != tt.bits {
				t.Errorf("output bits = %d, want %d", a.Format().BitsPerChannel, tt.bits)
			}
			if len(got) != tt.count {
				t.Fatalf("output has %d samples, want %d", len(got), tt.count)
			}
			for i := range 64 {
				want := float64(samples[tt.skip+i]) / 32768
				if math.Abs(float64(got[i])-want) > 2.0/32768 {
					t.Errorf("sample %d = %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	ramp := audiotest.Ramp(1000, 7)
	in := writeFile(t, "ramp.wav", audiotest.WAV16(8000, 1, ramp))
	out := filepath.Join(t.TempDir(), "out.wav")

	_, err := run(t, "", "render", in, out, "--sample-rate", "16000", "--gain", "0.5", "--block-size", "100")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}

	a, got := decodeFile(t, out)
	if a.SampleRate() != 16000 {
		t.Errorf("output rate = %d, want 16000", a.SampleRate())
	}
	// 2000 resampled frames, then one silent block in which the source ended.
	if len(got) != 2100 {
		t.Fatalf("output has %d samples, want 2100", len(got))
	}
	if want := 0.5 * float64(ramp[500]) / 32768; math.Abs(float64(got[1000])-want) > 1e-3 {
		t.Errorf("sample 1000 = %v, want %v", got[1000], want)
	}
	for i, v := range got[2000:] {
		if v != 0 {
			t.Fatalf("tail sample %d = %v, want 0", i, v)
		}
	}
}

func TestRender_FadeIn(t *testing.T) {
	t.Parallel()

	level := make([]int16, 800)
	for i := range level {
		level[i] = 16384
	}
	in := writeFile(t, "level.wav", audiotest.WAV16(8000, 1, level))
	out := filepath.Join(t.TempDir(), "out.wav")

	if _, err := run(t, "", "render", in, out, "--fade-in", "50ms"); err != nil {
		t.Fatalf("render error = %v", err)
	}

	_, got := decodeFile(t, out)
	for _, tt := range []struct {
		frame int
		want  float64
	}{{0, 0}, {200, 0.25}, {400, 0.5}, {700, 0.5}} {
		if math.Abs(float64(got[tt.frame])-tt.want) > 1e-3 {
			t.Errorf("sample %d = %v, want %v", tt.frame, got[tt.frame], tt.want)
		}
	}
}

func TestRender_ConfigFile(t *testing.T) {
	t.Parallel()

	in := writeFile(t, "ramp.wav", audiotest.WAV16(8000, 1, audiotest.Ramp(300, 50)))
	out := filepath.Join(t.TempDir(), "out.wav")

	if _, err := run(t, "render:\n  gain: 0\n  block_size: 64\n", "render", in, out); err != nil {
		t.Fatalf("render error = %v", err)
	}

	_, got := decodeFile(t, out)
	if len(got) != 320 {
		t.Errorf("output has %d samples, want 320", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestCheckParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key   string
		value any
		want  string
	}{
		{"", nil, ""},
		{"input.chunk_size", 0, "input.chunk_size"},
		{"output.bit_depth", 12, "output.bit_depth"},
		{"render.sample_rate", -1, "render.sample_rate"},
		{"render.block_size", 0, "render.block_size"},
		{"render.fade_in", "-1s", "render.fade_in"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			v := viper.New()
			v.Set("input.chunk_size", 1024)
			v.Set("output.bit_depth", 16)
			v.Set("render.block_size", 128)
			if tt.key != "" {
				v.Set(tt.key, tt.value)
			}

			err := checkParameters(v)
			if tt.want == "" {
				if err != nil {
					t.Errorf("checkParameters() error = %v, want nil", err)
				}
				return
			}

			var pe *paramError
			if !errors.As(err, &pe) || pe.param != tt.want {
				t.Errorf("checkParameters() error = %v, want a %s parameter error", err, tt.want)
			}
		})
	}
}

func TestRoot_BadSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  string
		args []string
	}{
		{"bit depth flag", "", []string{"--bit-depth", "12", "version"}},
		{"log level", "log:\n  level: loud\n", []string{"version"}},
		{"broken config", "render: [", []string{"version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := run(t, tt.cfg, tt.args...); err == nil {
				t.Error("Execute() succeeded, want an error")
			}
		})
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "audpipe Version: dev, ") {
		t.Errorf("version output = %q", out)
	}
}
