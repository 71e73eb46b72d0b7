// SPDX-License-Identifier: EPL-2.0

package audio

// Source is a pull-based stream of normalized PCM.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Format describes the packets a demuxer emits and selects the codec that
// decodes them.
type Format struct {
	// FormatID names the codec ("lpcm", "ulaw", "alaw", "mp3", "vorbis", ...).
	FormatID         string
	SampleRate       float64
	ChannelsPerFrame int
	BitsPerChannel   int
	// BytesPerPacket and FramesPerPacket are zero for variable sized packets.
	BytesPerPacket  int
	FramesPerPacket int
	FloatingPoint   bool
	LittleEndian    bool
	// Unsigned marks 8-bit samples stored with a 128 offset.
	Unsigned bool
	// Bitrate in bits per second, when the container knows it.
	Bitrate int
}

// Constant reports whether packets have a fixed size, which allows seeking
// by arithmetic alone.
func (f Format) Constant() bool {
	return f.BytesPerPacket > 0 && f.FramesPerPacket > 0
}

// Metadata holds textual tags such as title or artist.
type Metadata map[string]string
