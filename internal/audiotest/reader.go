// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"io"
)

// ErrBroken is returned by FailingReader.
var ErrBroken = errors.New("audiotest: broken reader")

// ChunkReader hands out at most size bytes per Read, so that parsers see
// input split at arbitrary points.
type ChunkReader struct {
	data []byte
	size int
}

func NewChunkReader(data []byte, size int) *ChunkReader {
	return &ChunkReader{data: data, size: max(size, 1)}
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}

	n := copy(p[:min(len(p), r.size)], r.data)
	r.data = r.data[n:]

	return n, nil
}

// FailingReader returns data, then ErrBroken.
type FailingReader struct {
	data []byte
}

func NewFailingReader(data []byte) *FailingReader { return &FailingReader{data: data} }

func (r *FailingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, ErrBroken
	}

	n := copy(p, r.data)
	r.data = r.data[n:]

	return n, nil
}
