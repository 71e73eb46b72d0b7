// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	ErrBadHeader = fmt.Errorf("%w: bad vorbis header", audio.ErrMalformed)
	ErrBadPacket = fmt.Errorf("%w: bad vorbis audio packet", audio.ErrMalformed)
	ErrNotVorbis = fmt.Errorf("%w: not an ogg vorbis file", audio.ErrFormat)
)
