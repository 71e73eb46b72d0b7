// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const headerSize = 44

// canonicalHeader is the RIFF, fmt and data chunk headers of a plain PCM
// file, in file order.
type canonicalHeader struct {
	RIFF       [4]byte
	RIFFSize   uint32
	WAVE       [4]byte
	Fmt        [4]byte
	FmtSize    uint32
	Tag        uint16
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	Data       [4]byte
	DataSize   uint32
}

// WriteWAV16 writes a mono 16-bit PCM WAV at sampleRate.
func WriteWAV16(w io.Writer, sampleRate int, samples []int16) error {
	return WritePCM16(w, sampleRate, 1, samples)
}

// WritePCM16 writes interleaved 16-bit samples behind a 44 byte header.
// Unlike Writer it needs no io.Seeker.
func WritePCM16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if channels <= 0 || sampleRate <= 0 {
		return fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedEncoding, channels, sampleRate)
	}

	blockAlign := uint16(channels * 2)
	dataSize := uint32(len(samples) * 2)
	h := canonicalHeader{
		RIFF:       [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize:   headerSize - 8 + dataSize,
		WAVE:       [4]byte{'W', 'A', 'V', 'E'},
		Fmt:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:    16,
		Tag:        waveFormatPCM,
		Channels:   uint16(channels),
		SampleRate: uint32(sampleRate),
		ByteRate:   uint32(sampleRate) * uint32(blockAlign),
		BlockAlign: blockAlign,
		Bits:       16,
		Data:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:   dataSize,
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}

	return nil
}
