// SPDX-License-Identifier: EPL-2.0

package ogg

import (
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	ErrNotOggFile   = fmt.Errorf("%w: no Ogg page found", audio.ErrFormat)
	ErrNoBOS        = fmt.Errorf("%w: first page does not begin a stream", audio.ErrFormat)
	ErrBadVersion   = fmt.Errorf("%w: unsupported page version", audio.ErrFormat)
	ErrUnknownCodec = fmt.Errorf("%w: unrecognized Ogg codec", audio.ErrCodecNotFound)
	ErrBadHeader    = fmt.Errorf("%w: short codec header", audio.ErrMalformed)
)
