// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"log/slog"

	"github.com/ik5/audpipe/audio"
)

const (
	// DefaultChunkSize is how many bytes are read from the input at a time.
	DefaultChunkSize = 64 * 1024
	// DefaultQueueSize is how many decoded buffers are kept ahead of the
	// reader.
	DefaultQueueSize = 8

	// probeSize bytes are read before the container is chosen.
	probeSize = 4096
	// maxProbeSize caps the probe read behind a large ID3v2 tag.
	maxProbeSize = 16 << 20
	// readFrames sizes BufSize.
	readFrames = 1024
)

type Option func(*Options)

type Options struct {
	ChunkSize int
	QueueSize int
	Registry  *audio.Registry
	Logger    *slog.Logger
}

func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

func WithQueueSize(n int) Option {
	return func(o *Options) {
		o.QueueSize = n
	}
}

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *audio.Registry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithLogger receives debug records about probing, codec selection and
// seeking. Nothing is logged by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
