// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	// ErrNotAiffFile indicates the file is not a valid AIFF file
	ErrNotAiffFile = fmt.Errorf("%w: not an AIFF file", audio.ErrFormat)

	// ErrUnsupportedCompression indicates an AIFC compression type with no codec
	ErrUnsupportedCompression = fmt.Errorf("%w: unsupported AIFC compression", audio.ErrCodecNotFound)

	// ErrMissingCommonChunk indicates sound data before the COMM chunk
	ErrMissingCommonChunk = fmt.Errorf("%w: SSND chunk before COMM chunk", audio.ErrMalformed)
)
