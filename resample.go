// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
)

// ResampleToMono16 reads all of src, resampled to targetRate and mixed down
// to mono, as 16-bit PCM. bufferSize is the read size in samples. It
// returns the samples and their rate.
func ResampleToMono16(src audio.Source, targetRate int, bufferSize int) ([]int16, int, error) {
	mono := audio.NewMonoMixer(audio.NewResampler(src, targetRate))

	pcm16 := make([]int16, 0, targetRate*2)
	buf := make([]float32, max(bufferSize, 1))

	for {
		n, err := mono.ReadSamples(buf)
		for _, v := range buf[:n] {
			pcm16 = append(pcm16, utils.Float32ToInt16(v))
		}

		if errors.Is(err, io.EOF) {
			return pcm16, targetRate, nil
		}
		if err != nil {
			return nil, targetRate, fmt.Errorf("audpipe: resample: %w", err)
		}
	}
}
