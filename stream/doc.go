// SPDX-License-Identifier: EPL-2.0

// Package stream provides the byte and bit cursors every demuxer and decoder
// in audpipe reads through.
//
// Input arrives as a sequence of chunks. Each chunk is wrapped in a Buffer
// and appended to a BufferList. A Stream walks the list as one contiguous
// byte sequence, and a Bitstream walks a Stream bit by bit.
//
//	list := stream.NewBufferList()
//	list.Append(stream.NewBuffer(chunk))
//	s := stream.New(list)
//	tag, err := s.ReadString(4, stream.ASCII)
//
// Buffers are never released when the cursor moves past them, so a Stream
// can always rewind to any earlier position.
//
// # Underflow
//
// Every read, peek or advance that needs more bytes than are currently
// buffered fails with ErrUnderflow and leaves the cursor where it was. This
// is the only recoverable error in the package: callers are expected to
// restore their own position and retry once more input has been appended.
//
//	if errors.Is(err, stream.ErrUnderflow) {
//		// wait for the next chunk
//	}
package stream
