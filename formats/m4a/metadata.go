// SPDX-License-Identifier: EPL-2.0

package m4a

import (
	"encoding/binary"
	"strconv"
	"unicode/utf8"

	"github.com/ik5/audpipe/audio"
)

const dataTypeUTF8 = 1

// ilstKeys maps iTunes item atoms to metadata keys.
var ilstKeys = map[string]string{
	"\xa9nam": "title",
	"\xa9ART": "artist",
	"aART":    "albumArtist",
	"\xa9alb": "album",
	"\xa9day": "year",
	"\xa9gen": "genre",
	"\xa9cmt": "comments",
	"\xa9wrt": "composer",
	"\xa9too": "encoder",
	"\xa9grp": "grouping",
	"\xa9lyr": "lyrics",
	"desc":    "description",
	"cprt":    "copyright",
}

// parseMetadata reads udta/meta/ilst of a complete moov box.
func parseMetadata(moov []byte) audio.Metadata {
	body, ok := findChild(moov, "moov")
	if !ok {
		return nil
	}
	meta, ok := findPath(body, "udta", "meta")
	if !ok {
		return nil
	}
	// MP4 carries meta as a full box, QuickTime does not.
	if len(meta) >= 8 && string(meta[4:8]) != "hdlr" {
		meta = meta[fullBoxSize:]
	}
	ilst, ok := findChild(meta, "ilst")
	if !ok {
		return nil
	}

	m := audio.Metadata{}
	eachChild(ilst, func(typ string, item []byte) bool {
		data, ok := findChild(item, "data")
		if !ok || len(data) < 8 {
			return false
		}
		kind := binary.BigEndian.Uint32(data[0:4]) & 0xffffff
		value := data[8:]

		switch typ {
		case "trkn", "disk":
			if len(value) >= 6 {
				key := "trackNumber"
				if typ == "disk" {
					key = "discNumber"
				}
				m[key] = strconv.Itoa(int(binary.BigEndian.Uint16(value[2:4])))
			}
		default:
			key, ok := ilstKeys[typ]
			if ok && kind == dataTypeUTF8 && utf8.Valid(value) {
				m[key] = string(value)
			}
		}

		return false
	})

	if len(m) == 0 {
		return nil
	}

	return m
}
