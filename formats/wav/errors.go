// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	ErrNotWavFile          = fmt.Errorf("%w: not a WAV file", audio.ErrFormat)
	ErrUnsupportedEncoding = fmt.Errorf("%w: unsupported WAV encoding", audio.ErrCodecNotFound)
	ErrMissingFormatChunk  = fmt.Errorf("%w: data chunk before fmt chunk", audio.ErrMalformed)
	ErrShortFormatChunk    = fmt.Errorf("%w: fmt chunk is too short", audio.ErrMalformed)
	ErrUnsupportedBitDepth = fmt.Errorf("%w: unsupported WAV bit depth", audio.ErrCodecNotFound)
)
