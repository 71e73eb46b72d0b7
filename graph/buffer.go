// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"time"

	goaudio "github.com/go-audio/audio"
)

// AudioBuffer holds planar float32 samples.
type AudioBuffer struct {
	SampleRate int

	data [][]float32
}

// NewAudioBuffer allocates a silent buffer.
func NewAudioBuffer(channels, length, sampleRate int) *AudioBuffer {
	b := &AudioBuffer{SampleRate: sampleRate, data: make([][]float32, channels)}
	for i := range b.data {
		b.data[i] = make([]float32, length)
	}

	return b
}

// FromInterleaved splits interleaved samples into a buffer. A trailing
// partial frame is dropped.
func FromInterleaved(samples []float32, channels, sampleRate int) *AudioBuffer {
	b := NewAudioBuffer(channels, len(samples)/channels, sampleRate)
	for i := range b.Length() {
		for c, ch := range b.data {
			ch[i] = samples[i*channels+c]
		}
	}

	return b
}

// FromFloat32Buffer converts a decoder output buffer.
func FromFloat32Buffer(buf *goaudio.Float32Buffer) *AudioBuffer {
	return FromInterleaved(buf.Data, buf.Format.NumChannels, buf.Format.SampleRate)
}

func (b *AudioBuffer) NumberOfChannels() int { return len(b.data) }

// Length returns the number of frames.
func (b *AudioBuffer) Length() int {
	if len(b.data) == 0 {
		return 0
	}

	return len(b.data[0])
}

func (b *AudioBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}

	return time.Duration(b.Length()) * time.Second / time.Duration(b.SampleRate)
}

// Channel returns the samples of channel i. Writes go to the buffer.
func (b *AudioBuffer) Channel(i int) []float32 { return b.data[i] }

// Slice returns a view of frames [start, end) sharing the samples of b.
func (b *AudioBuffer) Slice(start, end int) *AudioBuffer {
	end = min(end, b.Length())
	start = min(max(start, 0), end)

	s := &AudioBuffer{SampleRate: b.SampleRate, data: make([][]float32, len(b.data))}
	for i, ch := range b.data {
		s.data[i] = ch[start:end:end]
	}

	return s
}

// Interleave appends the samples of b to dst frame by frame.
func (b *AudioBuffer) Interleave(dst []float32) []float32 {
	for i := range b.Length() {
		for _, ch := range b.data {
			dst = append(dst, ch[i])
		}
	}

	return dst
}

// Float32Buffer converts b to an interleaved go-audio buffer.
func (b *AudioBuffer) Float32Buffer() *goaudio.Float32Buffer {
	return &goaudio.Float32Buffer{
		Format:         &goaudio.Format{NumChannels: b.NumberOfChannels(), SampleRate: b.SampleRate},
		Data:           b.Interleave(make([]float32, 0, b.Length()*b.NumberOfChannels())),
		SourceBitDepth: 32,
	}
}
