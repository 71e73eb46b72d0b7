// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"

	"github.com/ik5/audpipe/stream"
)

// Status is the outcome of one parse or decode step.
type Status int

const (
	// Complete means the step produced its result.
	Complete Status = iota
	// NeedMoreData means the step ran out of buffered input and must be
	// retried from the same position once more arrives.
	NeedMoreData
	// Fatal means the step failed and the pipeline must stop.
	Fatal
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case NeedMoreData:
		return "need more data"
	case Fatal:
		return "fatal"
	}

	return "unknown"
}

// StatusOf maps the error of a step to its outcome.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return Complete
	case errors.Is(err, stream.ErrUnderflow):
		return NeedMoreData
	}

	return Fatal
}

// Kind classifies errors raised while demuxing and decoding.
type Kind int

const (
	KindNone Kind = iota
	KindUnderflow
	KindFormat
	KindCodecNotFound
	KindDecoderNotFound
	KindMalformed
	KindOther
)

func (k Kind) String() string {
	return [...]string{"none", "underflow", "format", "codec not found", "decoder not found", "malformed", "other"}[k]
}

// KindOf reports the class of err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, stream.ErrUnderflow):
		return KindUnderflow
	case errors.Is(err, ErrFormat), errors.Is(err, ErrDemuxerNotFound):
		return KindFormat
	case errors.Is(err, ErrCodecNotFound):
		return KindCodecNotFound
	case errors.Is(err, ErrDecoderNotFound):
		return KindDecoderNotFound
	case errors.Is(err, ErrMalformed),
		errors.Is(err, stream.ErrInvalidUTF16),
		errors.Is(err, stream.ErrUnknownEncoding),
		errors.Is(err, stream.ErrTooManyBits):
		return KindMalformed
	}

	return KindOther
}
