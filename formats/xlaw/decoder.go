// SPDX-License-Identifier: EPL-2.0

package xlaw

import (
	"fmt"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audpipe/audio"
)

const (
	ULaw = "ulaw"
	ALaw = "alaw"
)

const (
	signBit   = 0x80
	quantMask = 0x0f
	segShift  = 4
	segMask   = 0x70
	bias      = 0x84

	maxChunk = 4096
)

// Decoder expands companded bytes through a lookup table.
type Decoder struct {
	audio.DecoderBase

	table [256]int16
}

// NewDecoder implements audio.NewDecoderFunc for both "ulaw" and "alaw".
func NewDecoder(format audio.Format, seeker audio.Seeker) (audio.Decoder, error) {
	d := &Decoder{}

	switch format.FormatID {
	case ULaw:
		d.table = ulawTable()
	case ALaw:
		d.table = alawTable()
	default:
		return nil, fmt.Errorf("%w: %q is not a G.711 variant", audio.ErrCodecNotFound, format.FormatID)
	}

	format.BitsPerChannel = 16
	d.Init(format, seeker, d.readChunk)

	return d, nil
}

func ulawTable() [256]int16 {
	var table [256]int16
	for i := range table {
		val := ^uint8(i)
		t := int(val&quantMask)<<3 + bias
		t <<= (val & segMask) >> segShift

		if val&signBit != 0 {
			table[i] = int16(bias - t)
		} else {
			table[i] = int16(t - bias)
		}
	}

	return table
}

func alawTable() [256]int16 {
	var table [256]int16
	for i := range table {
		val := uint8(i) ^ 0x55
		t := int(val & quantMask)
		seg := int(val&segMask) >> segShift

		if seg != 0 {
			t = (t + t + 1 + 32) << (seg + 2)
		} else {
			t = (t + t + 1) << 3
		}

		if val&signBit != 0 {
			table[i] = int16(t)
		} else {
			table[i] = int16(-t)
		}
	}

	return table
}

func (d *Decoder) readChunk() (goaudio.Buffer, error) {
	n := min(maxChunk, d.Stream.RemainingBytes())
	if n == 0 {
		return nil, nil
	}

	out := make([]int, n)
	for i := range out {
		b, err := d.Stream.ReadUInt8()
		if err != nil {
			return nil, err
		}
		out[i] = int(d.table[b])
	}

	return &goaudio.IntBuffer{Format: audio.PCMFormat(d.Format()), Data: out, SourceBitDepth: 16}, nil
}
