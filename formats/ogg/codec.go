// SPDX-License-Identifier: EPL-2.0

package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	VorbisID = "vorbis"
	OpusID   = "opus"
)

// Opus granule positions always count 48 kHz samples.
const opusRate = 48000

var (
	vorbisIdent    = []byte("\x01vorbis")
	vorbisComments = []byte("\x03vorbis")
	opusIdent      = []byte("OpusHead")
	opusComments   = []byte("OpusTags")
)

// codec describes the logical stream found in the first packet.
type codec struct {
	id string
	// headers is the number of header packets before audio starts.
	headers  int
	preSkip  int64
	comments []byte
}

// identify reads the identification header of a logical stream.
func identify(pkt []byte) (audio.Format, codec, error) {
	switch {
	case bytes.HasPrefix(pkt, vorbisIdent):
		if len(pkt) < 30 {
			return audio.Format{}, codec{}, fmt.Errorf("%w: vorbis identification is %d bytes", ErrBadHeader, len(pkt))
		}
		f := audio.Format{
			FormatID:         VorbisID,
			SampleRate:       float64(binary.LittleEndian.Uint32(pkt[12:])),
			ChannelsPerFrame: int(pkt[11]),
			BitsPerChannel:   32,
			FloatingPoint:    true,
		}
		if nominal := int32(binary.LittleEndian.Uint32(pkt[20:])); nominal > 0 {
			f.Bitrate = int(nominal)
		}

		return f, codec{id: VorbisID, headers: 3, comments: vorbisComments}, nil

	case bytes.HasPrefix(pkt, opusIdent):
		if len(pkt) < 19 {
			return audio.Format{}, codec{}, fmt.Errorf("%w: opus identification is %d bytes", ErrBadHeader, len(pkt))
		}
		f := audio.Format{
			FormatID:         OpusID,
			SampleRate:       opusRate,
			ChannelsPerFrame: int(pkt[9]),
			BitsPerChannel:   32,
			FloatingPoint:    true,
		}
		c := codec{
			id:       OpusID,
			headers:  2,
			preSkip:  int64(binary.LittleEndian.Uint16(pkt[10:])),
			comments: opusComments,
		}

		return f, c, nil
	}

	return audio.Format{}, codec{}, ErrUnknownCodec
}

var commentKeys = map[string]string{
	"TITLE":       "title",
	"ARTIST":      "artist",
	"ALBUMARTIST": "albumArtist",
	"ALBUM":       "album",
	"DATE":        "year",
	"GENRE":       "genre",
	"TRACKNUMBER": "trackNumber",
	"DISCNUMBER":  "discNumber",
	"COMMENT":     "comments",
	"DESCRIPTION": "comments",
	"COMPOSER":    "composer",
	"ENCODER":     "encoder",
	"COPYRIGHT":   "copyright",
	"LYRICS":      "lyrics",
}

// parseComments reads a Vorbis comment block, as carried by both Vorbis
// and Opus. Unknown fields keep their lower-cased name; repeated fields
// are joined with "/". The vendor string becomes the encoder unless an
// ENCODER field is present.
func parseComments(block []byte) (audio.Metadata, error) {
	s := stream.FromBytes(block)

	n, err := s.ReadUInt32(true)
	if err != nil {
		return nil, err
	}
	vendor, err := s.ReadString(int(n), stream.UTF8)
	if err != nil {
		return nil, err
	}
	count, err := s.ReadUInt32(true)
	if err != nil {
		return nil, err
	}

	meta := audio.Metadata{}
	for range count {
		n, err := s.ReadUInt32(true)
		if err != nil {
			return nil, err
		}
		field, err := s.ReadString(int(n), stream.UTF8)
		if err != nil {
			return nil, err
		}

		name, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			continue
		}
		key, ok := commentKeys[strings.ToUpper(name)]
		if !ok {
			key = strings.ToLower(name)
		}
		if old, ok := meta[key]; ok {
			value = old + "/" + value
		}
		meta[key] = value
	}

	if _, ok := meta["encoder"]; !ok && vendor != "" {
		meta["encoder"] = vendor
	}

	return meta, nil
}
