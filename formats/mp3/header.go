// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"strconv"
	"strings"
)

type Layer int

const (
	Layer1 Layer = iota + 1
	Layer2
	Layer3
)

func (l Layer) String() string {
	switch l {
	case Layer1:
		return "layer-1"
	case Layer2:
		return "layer-2"
	case Layer3:
		return "layer-3"
	}

	return strconv.Itoa(int(l))
}

type Mode int

const (
	ModeStereo Mode = iota
	ModeJointStereo
	ModeDualChannel
	ModeSingleChannel
)

func (m Mode) String() string {
	switch m {
	case ModeStereo:
		return "stereo"
	case ModeJointStereo:
		return "joint-stereo"
	case ModeDualChannel:
		return "dual-channel"
	case ModeSingleChannel:
		return "single-channel"
	}

	return strconv.Itoa(int(m))
}

type Emphasis int

const (
	EmphasisNone Emphasis = iota
	Emphasis50_15
	EmphasisReserved
	EmphasisCCITTJ17
)

type Flags int

const (
	FlagProtection Flags = 1 << iota
	FlagCopyright
	FlagOriginal
	FlagPadding
	FlagIStereo
	FlagMSStereo
	FlagFreeFormat
	FlagLSF
	FlagMPEG25
)

// Layer III mode_extension bits.
const (
	iStereo  = 0x1
	msStereo = 0x2
)

const (
	headerSize = 4
	crcSize    = 2
)

// bitrates in bits per second: MPEG-1 layers I, II, III, then LSF layer I
// and LSF layers II/III.
var bitrates = [5][15]int{
	{0, 32000, 64000, 96000, 128000, 160000, 192000, 224000, 256000, 288000, 320000, 352000, 384000, 416000, 448000},
	{0, 32000, 48000, 56000, 64000, 80000, 96000, 112000, 128000, 160000, 192000, 224000, 256000, 320000, 384000},
	{0, 32000, 40000, 48000, 56000, 64000, 80000, 96000, 112000, 128000, 160000, 192000, 224000, 256000, 320000},
	{0, 32000, 48000, 56000, 64000, 80000, 96000, 112000, 128000, 144000, 160000, 176000, 192000, 224000, 256000},
	{0, 8000, 16000, 24000, 32000, 40000, 48000, 56000, 64000, 80000, 96000, 112000, 128000, 144000, 160000},
}

var sampleRates = [3]int{44100, 48000, 32000}

// Header is a decoded MPEG audio frame header.
type Header struct {
	Layer         Layer
	Mode          Mode
	ModeExtension int
	Emphasis      Emphasis
	// Bitrate is in bits per second. It is zero for a free format frame
	// until the stream has measured it.
	Bitrate     int
	SampleRate  int
	Flags       Flags
	PrivateBits int
	// CRC is the transmitted check word of a protected frame.
	CRC uint16
}

func isSync(b0, b1 byte) bool {
	return b0 == 0xff && b1&0xe0 == 0xe0
}

// ParseHeader decodes the header at the start of b. A protected frame needs
// two more bytes for its CRC word; without them CRC is left zero.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < headerSize || !isSync(b[0], b[1]) {
		return h, errLostSync
	}

	if b[1]&0x10 == 0 {
		h.Flags |= FlagMPEG25
	}
	if b[1]&0x08 == 0 {
		h.Flags |= FlagLSF
	} else if h.Flags&FlagMPEG25 != 0 {
		return h, ErrBadMPEG25
	}

	h.Layer = Layer(4 - int(b[1]>>1&3))
	if h.Layer == 4 {
		return h, ErrBadLayer
	}

	if b[1]&1 == 0 {
		h.Flags |= FlagProtection
	}

	index := int(b[2] >> 4)
	if index == 15 {
		return h, ErrBadBitrate
	}
	if h.Flags&FlagLSF != 0 {
		h.Bitrate = bitrates[3+int(h.Layer)>>1][index]
	} else {
		h.Bitrate = bitrates[h.Layer-1][index]
	}

	index = int(b[2] >> 2 & 3)
	if index == 3 {
		return h, ErrBadSampleRate
	}
	h.SampleRate = sampleRates[index]
	if h.Flags&FlagLSF != 0 {
		h.SampleRate /= 2
		if h.Flags&FlagMPEG25 != 0 {
			h.SampleRate /= 2
		}
	}

	if b[2]&0x02 != 0 {
		h.Flags |= FlagPadding
	}
	h.PrivateBits = int(b[2] & 1)
	h.Mode = Mode(b[3] >> 6)
	h.ModeExtension = int(b[3] >> 4 & 3)
	if b[3]&0x08 != 0 {
		h.Flags |= FlagCopyright
	}
	if b[3]&0x04 != 0 {
		h.Flags |= FlagOriginal
	}
	h.Emphasis = Emphasis(b[3] & 3)

	if h.Flags&FlagProtection != 0 && len(b) >= headerSize+crcSize {
		h.CRC = uint16(b[4])<<8 | uint16(b[5])
	}

	return h, nil
}

func (h Header) Channels() int {
	if h.Mode == ModeSingleChannel {
		return 1
	}

	return 2
}

// subbandSamples is the number of samples per subband in one frame.
func (h Header) subbandSamples() int {
	switch {
	case h.Layer == Layer1:
		return 12
	case h.Layer == Layer3 && h.Flags&FlagLSF != 0:
		return 18
	}

	return 36
}

// SamplesPerFrame is the number of PCM frames one MPEG frame decodes to.
func (h Header) SamplesPerFrame() int { return 32 * h.subbandSamples() }

func (h Header) slotsPerFrame() int {
	if h.Layer == Layer3 && h.Flags&FlagLSF != 0 {
		return 72
	}

	return 144
}

// FrameSize is the length of the frame in bytes, header included. It is
// zero while a free format bitrate is unknown.
func (h Header) FrameSize() int {
	if h.Bitrate == 0 || h.SampleRate == 0 {
		return 0
	}

	pad := 0
	if h.Flags&FlagPadding != 0 {
		pad = 1
	}
	if h.Layer == Layer1 {
		return (12*h.Bitrate/h.SampleRate + pad) * 4
	}

	return h.slotsPerFrame()*h.Bitrate/h.SampleRate + pad
}

// sideInfoSize is the Layer III side information length in bytes.
func (h Header) sideInfoSize() int {
	mono := h.Channels() == 1
	switch {
	case h.Flags&FlagLSF != 0 && mono:
		return 9
	case h.Flags&FlagLSF != 0, mono:
		return 17
	}

	return 32
}

// dataOffset is where the audio data starts, past the header and CRC.
func (h Header) dataOffset() int {
	if h.Flags&FlagProtection != 0 {
		return headerSize + crcSize
	}

	return headerSize
}

func (h Header) String() string {
	var b strings.Builder
	switch {
	case h.Flags&FlagMPEG25 != 0:
		b.WriteString("mpeg-2.5")
	case h.Flags&FlagLSF != 0:
		b.WriteString("mpeg-2")
	default:
		b.WriteString("mpeg-1")
	}
	b.WriteByte(',')
	b.WriteString(h.Layer.String())
	b.WriteByte(',')
	b.WriteString(h.Mode.String())
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(h.SampleRate))
	b.WriteString("-Hz,")
	b.WriteString(strconv.Itoa(h.Bitrate / 1000))
	b.WriteString("-kbit/s")
	if h.Flags&FlagProtection != 0 {
		b.WriteString(",crc")
	}

	return b.String()
}
