// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"errors"
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	// ErrNoFormat is returned by Open when the input ends before the
	// container described its audio.
	ErrNoFormat = fmt.Errorf("%w: input ended before the audio format", audio.ErrMalformed)
	ErrClosed   = errors.New("audpipe: asset is closed")
)
