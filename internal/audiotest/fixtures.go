// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

// WAV16 builds a canonical 16-bit PCM WAVE file.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	dataSize := uint32(len(samples) * 2)
	blockAlign := uint16(channels * 2)

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate)*uint32(blockAlign))
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// AU16 builds a Sun audio file of big-endian 16-bit linear PCM.
func AU16(sampleRate, channels int, samples []int16) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(".snd")
	binary.Write(buf, binary.BigEndian, uint32(24))
	binary.Write(buf, binary.BigEndian, uint32(len(samples)*2))
	binary.Write(buf, binary.BigEndian, uint32(3))
	binary.Write(buf, binary.BigEndian, uint32(sampleRate))
	binary.Write(buf, binary.BigEndian, uint32(channels))
	binary.Write(buf, binary.BigEndian, samples)

	return buf.Bytes()
}

// AIFF16 builds a big-endian 16-bit AIFF file. A non-empty name is stored
// in a NAME chunk ahead of the sound data.
func AIFF16(sampleRate, channels int, samples []int16, name string) []byte {
	body := new(bytes.Buffer)
	body.WriteString("AIFF")

	body.WriteString("COMM")
	binary.Write(body, binary.BigEndian, uint32(18))
	binary.Write(body, binary.BigEndian, uint16(channels))
	binary.Write(body, binary.BigEndian, uint32(len(samples)/channels))
	binary.Write(body, binary.BigEndian, uint16(16))
	body.Write(float80(uint64(sampleRate)))

	if name != "" {
		body.WriteString("NAME")
		binary.Write(body, binary.BigEndian, uint32(len(name)))
		body.WriteString(name)
		if len(name)%2 == 1 {
			body.WriteByte(0)
		}
	}

	body.WriteString("SSND")
	binary.Write(body, binary.BigEndian, uint32(8+len(samples)*2))
	binary.Write(body, binary.BigEndian, uint64(0))
	binary.Write(body, binary.BigEndian, samples)

	buf := new(bytes.Buffer)
	buf.WriteString("FORM")
	binary.Write(buf, binary.BigEndian, uint32(body.Len()))
	buf.Write(body.Bytes())

	return buf.Bytes()
}

// float80 encodes a positive integer as an 80-bit IEEE extended float.
func float80(v uint64) []byte {
	out := make([]byte, 10)
	if v == 0 {
		return out
	}

	exp := bits.Len64(v) - 1
	binary.BigEndian.PutUint16(out, uint16(16383+exp))
	binary.BigEndian.PutUint64(out[2:], v<<(63-exp))

	return out
}

// Ramp returns n samples counting up by step from zero.
func Ramp(n int, step int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(i) * step
	}

	return out
}
