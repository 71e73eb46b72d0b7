// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrFormat marks input that is not a valid instance of its container.
	ErrFormat = errors.New("invalid container format")
	// ErrCodecNotFound marks a container that carries an encoding it does
	// not support.
	ErrCodecNotFound = errors.New("unsupported codec")
	// ErrDecoderNotFound is returned when no decoder is registered for a
	// format ID.
	ErrDecoderNotFound = errors.New("decoder not found")
	// ErrDemuxerNotFound is returned when no registered container probe
	// matches the input.
	ErrDemuxerNotFound = errors.New("a demuxer for this container was not found")
	// ErrMalformed marks a bitstream that violates its codec syntax.
	ErrMalformed = errors.New("malformed data")
	// ErrSeekUnsupported is returned by streams that have neither constant
	// packets nor a seek table.
	ErrSeekUnsupported = errors.New("seeking is not supported by this stream")
)
