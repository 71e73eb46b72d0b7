// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"fmt"
	"log"
	"os"
	"time"

	goaiff "github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/aiff"
)

// Example demuxes an AIFF file written by go-audio/aiff.
func Example() {
	f, err := os.CreateTemp("", "example-*.aiff")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(f.Name())

	enc := goaiff.NewEncoder(f, 44100, 16, 2)
	_ = enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           make([]int, 2*44100),
		SourceBitDepth: 16,
	})
	_ = enc.Close()
	f.Close()

	data, err := os.ReadFile(f.Name())
	if err != nil {
		log.Fatal(err)
	}

	dm := aiff.NewDemuxer()
	bytesOut := 0
	dm.Events().Format.On(func(f audio.Format) {
		fmt.Printf("Sample Rate: %v Hz\n", f.SampleRate)
		fmt.Printf("Channels: %d\n", f.ChannelsPerFrame)
	})
	dm.Events().Duration.On(func(d time.Duration) { fmt.Printf("Duration: %v\n", d) })
	dm.Events().Data.On(func(b []byte) { bytesOut += len(b) })

	dm.Append(data)
	dm.End()

	fmt.Printf("Packet bytes: %d\n", bytesOut)
	// Output:
	// Sample Rate: 44100 Hz
	// Channels: 2
	// Duration: 1s
	// Packet bytes: 176400
}
