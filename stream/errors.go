// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrUnderflow reports that a read needed more bytes than are buffered.
	ErrUnderflow = errors.New("stream: not enough data buffered")

	ErrTooManyBits     = errors.New("stream: cannot read more than 40 bits at once")
	ErrUnknownEncoding = errors.New("stream: unknown string encoding")
	ErrInvalidUTF16    = errors.New("stream: invalid utf16 sequence")
)
