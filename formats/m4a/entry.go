// SPDX-License-Identifier: EPL-2.0

package m4a

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/ik5/audpipe/audio"
)

const (
	// AudioSampleEntry fields after the box header, up to and including
	// the 16.16 sample rate.
	sampleEntryBaseSize = 28
	sampleEntryV1Extra  = 16
	sampleEntryV2Extra  = 36

	lpcmFlagFloat     = 1 << 0
	lpcmFlagBigEndian = 1 << 1

	objectTypeMPEG2    = 0x69
	objectTypeMPEG1    = 0x6b
	esDescriptorTag    = 0x03
	decoderConfigTag   = 0x04
	decoderSpecificTag = 0x05
)

// formatIDs maps sample entry types to codec names.
var formatIDs = map[string]string{
	"twos": "lpcm",
	"sowt": "lpcm",
	"in24": "lpcm",
	"in32": "lpcm",
	"fl32": "lpcm",
	"fl64": "lpcm",
	"raw ": "lpcm",
	"NONE": "lpcm",
	"lpcm": "lpcm",
	"ulaw": "ulaw",
	"alaw": "alaw",
	".mp3": "mp3",
	"mp4a": "aac",
	"alac": "alac",
}

// bitsPerChannel overrides the sample size field, which QuickTime leaves
// at 16 for several of these.
var bitsPerChannel = map[string]int{
	"ulaw": 8,
	"alaw": 8,
	"in24": 24,
	"in32": 32,
	"fl32": 32,
	"fl64": 64,
}

// parseSampleEntry reads the single audio sample entry of an stsd payload.
// It returns the format and the codec cookie, if any.
func parseSampleEntry(stsd []byte) (audio.Format, []byte, error) {
	if len(stsd) < fullBoxSize+4+smallHeaderSize+sampleEntryBaseSize {
		return audio.Format{}, nil, fmt.Errorf("%w: stsd of %d bytes", ErrInvalidSampleEntry, len(stsd))
	}
	if n := binary.BigEndian.Uint32(stsd[4:8]); n != 1 {
		return audio.Format{}, nil, fmt.Errorf("%w: %d sample descriptions, want one", ErrInvalidSampleEntry, n)
	}

	entry := stsd[8:]
	size := int(binary.BigEndian.Uint32(entry[0:4]))
	if size < smallHeaderSize+sampleEntryBaseSize || size > len(entry) {
		return audio.Format{}, nil, fmt.Errorf("%w: entry of %d bytes", ErrInvalidSampleEntry, size)
	}
	typ := string(entry[4:8])
	body := entry[smallHeaderSize:size]

	version := binary.BigEndian.Uint16(body[8:10])
	f := audio.Format{
		FormatID:         strings.TrimSpace(typ),
		ChannelsPerFrame: int(binary.BigEndian.Uint16(body[16:18])),
		BitsPerChannel:   int(binary.BigEndian.Uint16(body[18:20])),
		SampleRate:       float64(binary.BigEndian.Uint32(body[24:28]) >> 16),
	}
	if id, ok := formatIDs[typ]; ok {
		f.FormatID = id
	}

	pos := sampleEntryBaseSize
	var lpcmFlags uint32
	switch version {
	case 1:
		if len(body) < pos+sampleEntryV1Extra {
			return audio.Format{}, nil, fmt.Errorf("%w: short version 1 entry", ErrInvalidSampleEntry)
		}
		pos += sampleEntryV1Extra
	case 2:
		if len(body) < pos+sampleEntryV2Extra {
			return audio.Format{}, nil, fmt.Errorf("%w: short version 2 entry", ErrInvalidSampleEntry)
		}
		v2 := body[pos:]
		f.SampleRate = math.Float64frombits(binary.BigEndian.Uint64(v2[4:12]))
		f.ChannelsPerFrame = int(binary.BigEndian.Uint32(v2[12:16]))
		f.BitsPerChannel = int(binary.BigEndian.Uint32(v2[20:24]))
		lpcmFlags = binary.BigEndian.Uint32(v2[24:28])
		pos += sampleEntryV2Extra
	}
	children := body[pos:]

	if bits, ok := bitsPerChannel[typ]; ok {
		f.BitsPerChannel = bits
	}

	var cookie []byte
	switch f.FormatID {
	case "lpcm":
		f.LittleEndian = typ == "sowt" || littleEndianAtom(children)
		f.FloatingPoint = typ == "fl32" || typ == "fl64"
		f.Unsigned = typ == "raw "
		if typ == "lpcm" {
			f.FloatingPoint = lpcmFlags&lpcmFlagFloat != 0
			f.LittleEndian = lpcmFlags&lpcmFlagBigEndian == 0
		}
		if f.BitsPerChannel <= 8 {
			f.LittleEndian = false
		}
	case "aac":
		esds, ok := findChild(children, "esds")
		if !ok {
			// QuickTime nests it inside a wave atom.
			esds, ok = findPath(children, "wave", "esds")
		}
		if ok {
			var objectType byte
			objectType, cookie = parseESDS(esds)
			if objectType == objectTypeMPEG1 || objectType == objectTypeMPEG2 {
				f.FormatID = "mp3"
			}
		}
	case "alac":
		if c, ok := findChild(children, "alac"); ok {
			cookie = c
		}
	}

	switch f.FormatID {
	case "lpcm", "ulaw", "alaw":
		f.BytesPerPacket = f.BitsPerChannel / 8 * f.ChannelsPerFrame
		f.FramesPerPacket = 1
		f.Bitrate = int(f.SampleRate) * f.BytesPerPacket * 8
	}

	return f, cookie, nil
}

// littleEndianAtom reports a QuickTime enda atom set to little endian.
func littleEndianAtom(children []byte) bool {
	enda, ok := findPath(children, "wave", "enda")

	return ok && len(enda) >= 2 && binary.BigEndian.Uint16(enda[0:2]) == 1
}

// parseESDS returns the object type indication and decoder specific info of
// an esds payload.
func parseESDS(esds []byte) (byte, []byte) {
	if len(esds) < fullBoxSize {
		return 0, nil
	}
	b := esds[fullBoxSize:]

	tag, body := readDescriptor(b)
	if tag != esDescriptorTag || len(body) < 3 {
		return 0, nil
	}
	flags := body[2]
	body = body[3:]
	if flags&0x80 != 0 {
		body = skipBytes(body, 2)
	}
	if flags&0x40 != 0 && len(body) > 0 {
		body = skipBytes(body, 1+int(body[0]))
	}
	if flags&0x20 != 0 {
		body = skipBytes(body, 2)
	}

	tag, config := readDescriptor(body)
	if tag != decoderConfigTag || len(config) < 13 {
		return 0, nil
	}
	objectType := config[0]

	tag, info := readDescriptor(config[13:])
	if tag != decoderSpecificTag {
		return objectType, nil
	}

	return objectType, info
}

// readDescriptor reads an MPEG-4 descriptor tag and its variable length
// size.
func readDescriptor(b []byte) (byte, []byte) {
	if len(b) < 2 {
		return 0, nil
	}
	tag := b[0]
	size := 0
	i := 1
	for ; i < len(b) && i <= 4; i++ {
		size = size<<7 | int(b[i]&0x7f)
		if b[i]&0x80 == 0 {
			i++
			break
		}
	}
	if i+size > len(b) {
		return tag, b[i:]
	}

	return tag, b[i : i+size]
}

func skipBytes(b []byte, n int) []byte {
	if n > len(b) {
		return nil
	}

	return b[n:]
}
