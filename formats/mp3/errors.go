// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"

	"github.com/ik5/audpipe/audio"
)

var (
	ErrNotMP3File = fmt.Errorf("%w: no MPEG audio frame found", audio.ErrFormat)

	ErrBadLayer      = fmt.Errorf("%w: reserved layer", audio.ErrMalformed)
	ErrBadBitrate    = fmt.Errorf("%w: forbidden bitrate", audio.ErrMalformed)
	ErrBadSampleRate = fmt.Errorf("%w: reserved sample rate", audio.ErrMalformed)
	ErrBadMPEG25     = fmt.Errorf("%w: MPEG 2.5 requires the LSF id", audio.ErrMalformed)
	ErrBadFrameLen   = fmt.Errorf("%w: bad frame length", audio.ErrMalformed)
	ErrBadBitAlloc   = fmt.Errorf("%w: forbidden bit allocation", audio.ErrMalformed)
	ErrBadMode       = fmt.Errorf("%w: bad bitrate/mode combination", audio.ErrMalformed)
	ErrBadBigValues  = fmt.Errorf("%w: big_values above 288", audio.ErrMalformed)
	ErrBadBlockType  = fmt.Errorf("%w: reserved block_type", audio.ErrMalformed)
	ErrBadScfsi      = fmt.Errorf("%w: scalefactor selection with short blocks", audio.ErrMalformed)
	ErrBadDataPtr    = fmt.Errorf("%w: main_data_begin before the bit reservoir", audio.ErrMalformed)
	ErrBadPart3Len   = fmt.Errorf("%w: part2_3_length shorter than its scalefactors", audio.ErrMalformed)
	ErrBadHuffTable  = fmt.Errorf("%w: unused Huffman table selected", audio.ErrMalformed)
	ErrBadHuffData   = fmt.Errorf("%w: Huffman data overruns part2_3_length", audio.ErrMalformed)
	ErrBadStereo     = fmt.Errorf("%w: joint stereo with mismatched block types", audio.ErrMalformed)
)

// errLostSync is internal: the scanner skips a byte and retries.
var errLostSync = errors.New("mp3: lost sync")
