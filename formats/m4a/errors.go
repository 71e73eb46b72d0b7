// SPDX-License-Identifier: EPL-2.0

package m4a

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	ErrNotM4AFile         = fmt.Errorf("%w: not an MP4 audio file", audio.ErrFormat)
	ErrNoAudioTrack       = fmt.Errorf("%w: no sound track in moov", audio.ErrFormat)
	ErrInvalidBoxSize     = fmt.Errorf("%w: invalid box size", audio.ErrMalformed)
	ErrInvalidSampleEntry = fmt.Errorf("%w: invalid audio sample entry", audio.ErrMalformed)
	ErrMissingTable       = fmt.Errorf("%w: incomplete sample table", audio.ErrMalformed)
	ErrPacketOutOfRange   = fmt.Errorf("%w: sample lies outside the buffered data", audio.ErrMalformed)
)
