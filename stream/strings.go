// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// Encoding names a text encoding understood by ReadString.
type Encoding string

const (
	ASCII    Encoding = "ascii"
	Latin1   Encoding = "latin1"
	UTF8     Encoding = "utf8"
	UTF16BE  Encoding = "utf16-be"
	UTF16LE  Encoding = "utf16-le"
	UTF16BOM Encoding = "utf16-bom"
)

var encodingAliases = map[string]Encoding{
	"ascii":     ASCII,
	"latin1":    Latin1,
	"utf8":      UTF8,
	"utf-8":     UTF8,
	"utf16-be":  UTF16BE,
	"utf16be":   UTF16BE,
	"utf16-le":  UTF16LE,
	"utf16le":   UTF16LE,
	"utf16-bom": UTF16BOM,
	"utf16bom":  UTF16BOM,
}

// ParseEncoding resolves an encoding name, case-insensitively.
func ParseEncoding(name string) (Encoding, error) {
	enc, ok := encodingAliases[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	return enc, nil
}

// ReadString decodes length bytes as text. A negative length reads up to and
// including a null terminator.
func (s *Stream) ReadString(length int, enc Encoding) (string, error) {
	str, n, err := s.decodeString(0, length, enc)
	if err != nil {
		return "", err
	}

	return str, s.Advance(n)
}

// PeekString is ReadString without moving the cursor.
func (s *Stream) PeekString(offset, length int, enc Encoding) (string, error) {
	str, _, err := s.decodeString(offset, length, enc)
	return str, err
}

// decodeString returns the decoded text and the number of bytes it spans.
func (s *Stream) decodeString(offset, length int, enc Encoding) (string, int, error) {
	start := offset
	nullTerminated := length < 0
	end := offset + length
	if nullTerminated {
		end = offset + s.RemainingBytes() + 1
	}

	var (
		sb  strings.Builder
		err error
	)

	switch enc {
	case ASCII, Latin1:
		offset, err = s.decodeLatin1(&sb, offset, end, nullTerminated)
	case UTF8:
		offset, err = s.decodeUTF8(&sb, offset, end, nullTerminated)
	case UTF16BE, UTF16LE, UTF16BOM:
		offset, err = s.decodeUTF16(&sb, offset, end, enc, nullTerminated)
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
	}
	if err != nil {
		return "", 0, err
	}
	if !nullTerminated {
		offset = end
	}

	return sb.String(), offset - start, nil
}

func (s *Stream) decodeLatin1(sb *strings.Builder, offset, end int, nullTerminated bool) (int, error) {
	for offset < end {
		c, err := s.PeekUInt8(offset)
		if err != nil {
			return 0, err
		}
		offset++
		if nullTerminated && c == 0 {
			break
		}
		sb.WriteRune(rune(c))
	}

	return offset, nil
}

func (s *Stream) decodeUTF8(sb *strings.Builder, offset, end int, nullTerminated bool) (int, error) {
	cont := func(n int) ([3]rune, error) {
		var r [3]rune
		for i := range n {
			b, err := s.PeekUInt8(offset + i)
			if err != nil {
				return r, err
			}
			r[i] = rune(b & 0x3f)
		}

		return r, nil
	}

	for offset < end {
		b1, err := s.PeekUInt8(offset)
		if err != nil {
			return 0, err
		}
		offset++
		if nullTerminated && b1 == 0 {
			break
		}

		var n int
		switch {
		case b1&0x80 == 0:
			sb.WriteRune(rune(b1))
			continue
		case b1&0xe0 == 0xc0:
			n = 1
		case b1&0xf0 == 0xe0:
			n = 2
		case b1&0xf8 == 0xf0:
			n = 3
		default:
			sb.WriteRune(rune(b1))
			continue
		}

		c, err := cont(n)
		if err != nil {
			return 0, err
		}
		offset += n

		switch n {
		case 1:
			sb.WriteRune(rune(b1&0x1f)<<6 | c[0])
		case 2:
			sb.WriteRune(rune(b1&0x0f)<<12 | c[0]<<6 | c[1])
		case 3:
			sb.WriteRune(rune(b1&0x07)<<18 | c[0]<<12 | c[1]<<6 | c[2])
		}
	}

	return offset, nil
}

func (s *Stream) decodeUTF16(sb *strings.Builder, offset, end int, enc Encoding, nullTerminated bool) (int, error) {
	littleEndian := enc == UTF16LE

	if enc == UTF16BOM {
		if end-offset < 2 {
			return end, nil
		}
		bom, err := s.PeekUInt16(offset, false)
		if err != nil {
			return 0, err
		}
		offset += 2
		if nullTerminated && bom == 0 {
			return offset, nil
		}
		littleEndian = bom == 0xfffe
	}

	for offset+2 <= end {
		w1, err := s.PeekUInt16(offset, littleEndian)
		if err != nil {
			return 0, err
		}
		offset += 2
		if nullTerminated && w1 == 0 {
			break
		}

		if w1 < 0xd800 || w1 > 0xdfff {
			sb.WriteRune(rune(w1))
			continue
		}
		if w1 > 0xdbff {
			return 0, ErrInvalidUTF16
		}

		w2, err := s.PeekUInt16(offset, littleEndian)
		if err != nil {
			return 0, err
		}
		if w2 < 0xdc00 || w2 > 0xdfff {
			return 0, ErrInvalidUTF16
		}
		offset += 2
		sb.WriteRune(utf16.DecodeRune(rune(w1), rune(w2)))
	}

	return offset, nil
}
