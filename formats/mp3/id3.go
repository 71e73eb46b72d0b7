// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"strings"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/stream"
)

const (
	id3HeaderSize = 10

	id3Unsync   = 0x80
	id3Extended = 0x40
	id3Footer   = 0x10
)

// id3Keys maps ID3v2.3 and v2.4 frame IDs to metadata keys.
var id3Keys = map[string]string{
	"TIT1": "grouping",
	"TIT2": "title",
	"TIT3": "subtitle",
	"TPE1": "artist",
	"TPE2": "albumArtist",
	"TPE3": "conductor",
	"TALB": "album",
	"TYER": "year",
	"TDRC": "year",
	"TCON": "genre",
	"TRCK": "trackNumber",
	"TPOS": "discNumber",
	"TCOM": "composer",
	"TEXT": "lyricist",
	"TENC": "encoder",
	"TSSE": "encoderSettings",
	"TCOP": "copyright",
	"TPUB": "publisher",
	"TBPM": "bpm",
	"TLEN": "length",
	"TLAN": "language",
	"TSRC": "isrc",
	"COMM": "comments",
	"USLT": "lyrics",
	"WCOM": "commercialURL",
	"WCOP": "copyrightURL",
	"WOAF": "fileURL",
	"WOAR": "artistURL",
	"WOAS": "sourceURL",
	"WPUB": "publisherURL",
	"WXXX": "url",
}

// id3v22Frames renames ID3v2.2 frame IDs to their v2.3 equivalents.
var id3v22Frames = map[string]string{
	"TT1": "TIT1",
	"TT2": "TIT2",
	"TT3": "TIT3",
	"TP1": "TPE1",
	"TP2": "TPE2",
	"TP3": "TPE3",
	"TAL": "TALB",
	"TYE": "TYER",
	"TCO": "TCON",
	"TRK": "TRCK",
	"TPA": "TPOS",
	"TCM": "TCOM",
	"TXT": "TEXT",
	"TEN": "TENC",
	"TSS": "TSSE",
	"TCR": "TCOP",
	"TPB": "TPUB",
	"TBP": "TBPM",
	"TLE": "TLEN",
	"TLA": "TLAN",
	"TRC": "TSRC",
	"TXX": "TXXX",
	"COM": "COMM",
	"ULT": "USLT",
	"WCM": "WCOM",
	"WCP": "WCOP",
	"WAF": "WOAF",
	"WAR": "WOAR",
	"WAS": "WOAS",
	"WPB": "WPUB",
	"WXX": "WXXX",
}

// textEncodings is indexed by the encoding byte of a text frame.
var textEncodings = [4]stream.Encoding{stream.Latin1, stream.UTF16BOM, stream.UTF16BE, stream.UTF8}

func synchsafe(b []byte) int {
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f)
}

// TagSize returns the length of the ID3v2 tag at the start of b, header
// and footer included, or 0 when b does not start with one.
func TagSize(b []byte) int {
	if len(b) < id3HeaderSize || string(b[:3]) != "ID3" || b[3] == 0xff || b[4] == 0xff {
		return 0
	}

	size := id3HeaderSize + synchsafe(b[6:10])
	if b[5]&id3Footer != 0 {
		size += id3HeaderSize
	}

	return size
}

// removeUnsync undoes unsynchronisation: every 0xff 0x00 pair loses its
// zero.
func removeUnsync(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xff && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}

	return out
}

// parseID3 reads the text, URL and comment frames of a complete tag.
// Frames it cannot decode are skipped.
func parseID3(tag []byte) audio.Metadata {
	if len(tag) < id3HeaderSize {
		return nil
	}

	version := tag[3]
	flags := tag[5]
	body := tag[id3HeaderSize:min(len(tag), id3HeaderSize+synchsafe(tag[6:10]))]
	if flags&id3Unsync != 0 && version < 4 {
		body = removeUnsync(body)
	}

	if flags&id3Extended != 0 && version >= 3 && len(body) >= 4 {
		// v2.3 counts the size field itself out, v2.4 counts it in.
		skip := int(body[0])<<24 | int(body[1])<<16 | int(body[2])<<8 | int(body[3])
		skip += 4
		if version == 4 {
			skip = synchsafe(body)
		}
		if skip > len(body) {
			return nil
		}
		body = body[skip:]
	}

	idLen, headLen := 4, 10
	if version == 2 {
		idLen, headLen = 3, 6
	}

	m := audio.Metadata{}
	for len(body) >= headLen && body[0] != 0 {
		id := string(body[:idLen])

		var size, frameFlags int
		switch version {
		case 2:
			size = int(body[3])<<16 | int(body[4])<<8 | int(body[5])
		case 3:
			size = int(body[4])<<24 | int(body[5])<<16 | int(body[6])<<8 | int(body[7])
			frameFlags = int(body[8])<<8 | int(body[9])
		default:
			size = synchsafe(body[4:8])
			frameFlags = int(body[8])<<8 | int(body[9])
		}
		if size > len(body)-headLen {
			break
		}
		data := body[headLen : headLen+size]
		body = body[headLen+size:]

		if version == 2 {
			var ok bool
			if id, ok = id3v22Frames[id]; !ok {
				continue
			}
		}

		data, ok := frameData(data, version, frameFlags)
		if !ok {
			continue
		}
		readFrame(m, id, data)
	}

	if len(m) == 0 {
		return nil
	}

	return m
}

// frameData strips the per frame prefixes of v2.3 and v2.4. Compressed and
// encrypted frames are not supported.
func frameData(data []byte, version byte, flags int) ([]byte, bool) {
	switch version {
	case 3:
		if flags&0x00c0 != 0 {
			return nil, false
		}
		if flags&0x0020 != 0 && len(data) > 0 {
			data = data[1:]
		}
	case 4:
		if flags&0x000c != 0 {
			return nil, false
		}
		if flags&0x0040 != 0 && len(data) > 0 {
			data = data[1:]
		}
		if flags&0x0001 != 0 {
			if len(data) < 4 {
				return nil, false
			}
			data = data[4:]
		}
		if flags&0x0002 != 0 {
			data = removeUnsync(data)
		}
	}

	return data, true
}

func readFrame(m audio.Metadata, id string, data []byte) {
	if len(data) == 0 {
		return
	}

	switch {
	case id == "TXXX", id == "WXXX":
		enc, ok := encodingOf(data[0])
		if !ok {
			return
		}
		s := stream.FromBytes(data[1:])
		desc, err := s.ReadString(-1, enc)
		if err != nil {
			return
		}

		var value string
		if id == "TXXX" {
			value, err = s.ReadString(s.RemainingBytes(), enc)
		} else {
			value, err = s.ReadString(s.RemainingBytes(), stream.Latin1)
		}
		if err != nil {
			return
		}

		key := desc
		if id == "WXXX" || key == "" {
			key = id3Keys[id]
			if key == "" {
				key = strings.ToLower(id)
			}
		}
		setTag(m, key, value)

	case id == "COMM", id == "USLT":
		enc, ok := encodingOf(data[0])
		if !ok || len(data) < 4 {
			return
		}
		s := stream.FromBytes(data[4:])
		if _, err := s.ReadString(-1, enc); err != nil {
			return
		}
		value, err := s.ReadString(s.RemainingBytes(), enc)
		if err != nil {
			return
		}
		setTag(m, id3Keys[id], value)

	case id[0] == 'T':
		enc, ok := encodingOf(data[0])
		if !ok {
			return
		}
		value, err := stream.FromBytes(data[1:]).ReadString(len(data)-1, enc)
		if err != nil {
			return
		}
		key, ok := id3Keys[id]
		if !ok {
			key = id
		}
		setTag(m, key, value)

	case id[0] == 'W':
		value, err := stream.FromBytes(data).ReadString(len(data), stream.Latin1)
		if err != nil {
			return
		}
		key, ok := id3Keys[id]
		if !ok {
			key = id
		}
		setTag(m, key, value)
	}
}

func encodingOf(b byte) (stream.Encoding, bool) {
	if int(b) >= len(textEncodings) {
		return "", false
	}

	return textEncodings[b], true
}

// setTag stores value with trailing terminators removed. ID3v2.4 separates
// multiple values with a null; they are joined with a slash.
func setTag(m audio.Metadata, key, value string) {
	value = strings.TrimRight(value, "\x00")
	value = strings.ReplaceAll(value, "\x00", "/")
	if key == "" || value == "" {
		return
	}

	m[key] = value
}
