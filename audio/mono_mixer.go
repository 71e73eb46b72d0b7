// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer averages the channels of src into one.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{src: src}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("audio: close mixed source: %w", err)
	}

	return nil
}

// ReadSamples reads up to len(dst) frames from src and writes their mean.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	ch := m.src.Channels()
	if ch <= 1 {
		return m.src.ReadSamples(dst)
	}
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * ch
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	n, err := m.src.ReadSamples(m.tmp[:need])

	scale := 1 / float32(ch)
	for f := range n / ch {
		var sum float32
		for _, v := range m.tmp[f*ch : (f+1)*ch] {
			sum += v
		}
		dst[f] = sum * scale
	}

	return n / ch, err
}
