// SPDX-License-Identifier: EPL-2.0

package m4a

import (
	"encoding/binary"
)

const (
	smallHeaderSize = 8
	largeHeaderSize = 16
	fullBoxSize     = 4 // version(1) + flags(3)
)

// eachChild calls fn for every box laid out back to back in b. It stops at
// the first truncated box or when fn returns true.
func eachChild(b []byte, fn func(typ string, body []byte) (stop bool)) {
	for len(b) >= smallHeaderSize {
		size := uint64(binary.BigEndian.Uint32(b[0:4]))
		typ := string(b[4:8])
		header := uint64(smallHeaderSize)

		switch size {
		case 0:
			size = uint64(len(b))
		case 1:
			if len(b) < largeHeaderSize {
				return
			}
			size = binary.BigEndian.Uint64(b[8:16])
			header = largeHeaderSize
		}
		if size < header || size > uint64(len(b)) {
			return
		}

		if fn(typ, b[header:size]) {
			return
		}
		b = b[size:]
	}
}

// findChild returns the body of the first child of type typ.
func findChild(b []byte, typ string) ([]byte, bool) {
	var (
		found []byte
		ok    bool
	)
	eachChild(b, func(t string, body []byte) bool {
		if t == typ {
			found, ok = body, true
		}

		return ok
	})

	return found, ok
}

// findPath descends one level per element of path.
func findPath(b []byte, path ...string) ([]byte, bool) {
	for _, typ := range path {
		body, ok := findChild(b, typ)
		if !ok {
			return nil, false
		}
		b = body
	}

	return b, true
}
