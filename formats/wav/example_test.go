// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/wav"
)

// Example_demuxing pushes a WAV file through the demuxer in small chunks.
func Example_demuxing() {
	samples := make([]int16, 16000)
	wavData := new(bytes.Buffer)
	wav.WriteWAV16(wavData, 16000, samples)

	dm := wav.NewDemuxer()
	packets := 0
	dm.Events().Format.On(func(f audio.Format) {
		fmt.Printf("Format: %s, %v Hz, %d ch, %d bits\n", f.FormatID, f.SampleRate, f.ChannelsPerFrame, f.BitsPerChannel)
	})
	dm.Events().Duration.On(func(d time.Duration) { fmt.Printf("Duration: %v\n", d) })
	dm.Events().Data.On(func([]byte) { packets++ })

	data := wavData.Bytes()
	for i := 0; i < len(data); i += 1000 {
		dm.Append(data[i:min(i+1000, len(data))])
	}
	dm.End()

	fmt.Printf("Packets: %d\n", packets)
	// Output:
	// Format: lpcm, 16000 Hz, 1 ch, 16 bits
	// Duration: 1s
	// Packets: 33
}

// Example_encoding demonstrates writing a WAV file.
func Example_encoding() {
	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16((i % 100) * 100)
	}

	// Write to buffer (in real code, use os.Create)
	output := new(bytes.Buffer)
	err := wav.WriteWAV16(output, 8000, samples)
	if err != nil {
		fmt.Printf("Write error: %v\n", err)
		return
	}

	fmt.Printf("Wrote %d bytes\n", output.Len())
	// Output:
	// Wrote 2044 bytes
}

// Example_errorNotWAV shows handling of invalid WAV files.
func Example_errorNotWAV() {
	dm := wav.NewDemuxer()
	dm.Events().Error.On(func(err error) {
		fmt.Println(audio.KindOf(err))
	})

	dm.Append([]byte("This is not a WAV file"))
	dm.End()
	// Output: format
}
