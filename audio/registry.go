// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"sync"

	"github.com/ik5/audpipe/stream"
)

// Probe reports whether the stream, positioned at the start of the input,
// looks like its container. Probes must only peek.
type Probe func(s *stream.Stream) bool

// Container registers one demuxer.
type Container struct {
	Name  string
	Probe Probe
	New   func() Demuxer
}

// Registry maps input to demuxers by probing, in registration order, and
// format IDs to decoders.
type Registry struct {
	containers []Container
	codecs     map[string]NewDecoderFunc

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]NewDecoderFunc),
		mtx:    &sync.Mutex{},
	}
}

// RegisterContainer appends c to the probe order. The first matching probe
// wins.
func (r *Registry) RegisterContainer(c Container) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.containers = append(r.containers, c)
}

// RegisterCodec binds a format ID to a decoder constructor.
func (r *Registry) RegisterCodec(formatID string, fn NewDecoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[formatID] = fn
}

// Containers returns the registered container names in probe order.
func (r *Registry) Containers() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, len(r.containers))
	for i, c := range r.containers {
		names[i] = c.Name
	}

	return names
}

// FindContainer probes head against every registered container.
func (r *Registry) FindContainer(head []byte) (Container, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, c := range r.containers {
		if c.Probe(stream.FromBytes(head)) {
			return c, nil
		}
	}

	return Container{}, ErrDemuxerNotFound
}

// FindCodec returns the decoder constructor for formatID.
func (r *Registry) FindCodec(formatID string) (NewDecoderFunc, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	fn, ok := r.codecs[formatID]
	if !ok {
		return nil, fmt.Errorf("%w: a decoder for %q was not found", ErrDecoderNotFound, formatID)
	}

	return fn, nil
}

// NewDecoder finds the codec for format and builds it.
func (r *Registry) NewDecoder(format Format, seeker Seeker) (Decoder, error) {
	fn, err := r.FindCodec(format.FormatID)
	if err != nil {
		return nil, err
	}

	return fn(format, seeker)
}
