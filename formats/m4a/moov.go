// SPDX-License-Identifier: EPL-2.0

package m4a

import (
	"bytes"
	"fmt"

	mp4 "github.com/abema/go-mp4"

	"github.com/ik5/audpipe/audio"
)

// packet is one run of samples, located by absolute file offset.
type packet struct {
	offset int64
	size   int64
	// timestamp of the first sample, in sample frames.
	timestamp int64
}

type track struct {
	format   audio.Format
	cookie   []byte
	metadata audio.Metadata
	duration int64 // sample frames
	packets  []packet
}

type sampleTables struct {
	timescale    uint32
	duration     uint64
	stts         []mp4.SttsEntry
	stsc         []mp4.StscEntry
	constantSize uint32
	sizes        []uint32
	sampleCount  uint32
	chunkOffsets []uint64
}

func stblPath(box mp4.BoxType) mp4.BoxPath {
	return mp4.BoxPath{mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl(), box}
}

// parseMoov selects the first sound track of a complete moov box, header
// included.
func parseMoov(moov []byte) (*track, error) {
	r := bytes.NewReader(moov)

	traks, err := mp4.ExtractBox(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak()})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrMalformed, err)
	}

	for _, trak := range traks {
		hdlrs, err := mp4.ExtractBoxWithPayload(r, trak, mp4.BoxPath{mp4.BoxTypeMdia(), mp4.BoxTypeHdlr()})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", audio.ErrMalformed, err)
		}
		if len(hdlrs) == 0 {
			continue
		}
		hdlr, ok := hdlrs[0].Payload.(*mp4.Hdlr)
		if !ok || string(hdlr.HandlerType[:]) != "soun" {
			continue
		}

		stsds, err := mp4.ExtractBox(r, trak, stblPath(mp4.BoxTypeStsd()))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", audio.ErrMalformed, err)
		}
		if len(stsds) == 0 {
			return nil, fmt.Errorf("%w: no stsd", ErrInvalidSampleEntry)
		}
		stsd := stsds[0]
		if stsd.Offset+stsd.Size > uint64(len(moov)) {
			return nil, ErrInvalidBoxSize
		}

		format, cookie, err := parseSampleEntry(moov[stsd.Offset+stsd.HeaderSize : stsd.Offset+stsd.Size])
		if err != nil {
			return nil, err
		}

		tables, err := readTables(r, trak)
		if err != nil {
			return nil, err
		}
		if format.SampleRate == 0 {
			format.SampleRate = float64(tables.timescale)
		}

		t := &track{format: format, cookie: cookie}
		t.build(tables)
		t.metadata = parseMetadata(moov)

		return t, nil
	}

	return nil, ErrNoAudioTrack
}

func readTables(r *bytes.Reader, trak *mp4.BoxInfo) (*sampleTables, error) {
	boxes, err := mp4.ExtractBoxesWithPayload(r, trak, []mp4.BoxPath{
		{mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
		stblPath(mp4.BoxTypeStts()),
		stblPath(mp4.BoxTypeStsc()),
		stblPath(mp4.BoxTypeStsz()),
		stblPath(mp4.BoxTypeStco()),
		stblPath(mp4.BoxTypeCo64()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrMalformed, err)
	}

	t := &sampleTables{}
	var haveSizes, haveChunks bool
	for _, b := range boxes {
		switch p := b.Payload.(type) {
		case *mp4.Mdhd:
			t.timescale = p.Timescale
			if p.GetVersion() == 0 {
				t.duration = uint64(p.DurationV0)
			} else {
				t.duration = p.DurationV1
			}
		case *mp4.Stts:
			t.stts = p.Entries
		case *mp4.Stsc:
			t.stsc = p.Entries
		case *mp4.Stsz:
			t.constantSize, t.sizes, t.sampleCount = p.SampleSize, p.EntrySize, p.SampleCount
			haveSizes = true
		case *mp4.Stco:
			for _, o := range p.ChunkOffset {
				t.chunkOffsets = append(t.chunkOffsets, uint64(o))
			}
			haveChunks = true
		case *mp4.Co64:
			t.chunkOffsets = append(t.chunkOffsets, p.ChunkOffset...)
			haveChunks = true
		}
	}

	switch {
	case t.timescale == 0:
		return nil, fmt.Errorf("%w: mdhd", ErrMissingTable)
	case !haveSizes:
		return nil, fmt.Errorf("%w: stsz", ErrMissingTable)
	case !haveChunks:
		return nil, fmt.Errorf("%w: stco/co64", ErrMissingTable)
	case len(t.stsc) == 0:
		return nil, fmt.Errorf("%w: stsc", ErrMissingTable)
	}
	if t.constantSize == 0 && len(t.sizes) < int(t.sampleCount) {
		return nil, fmt.Errorf("%w: stsz lists %d of %d samples", ErrMissingTable, len(t.sizes), t.sampleCount)
	}

	return t, nil
}

// samplesPerChunk finds the run of the stsc table for a 1-based chunk
// number.
func samplesPerChunk(entries []mp4.StscEntry, chunk uint32) uint32 {
	var n uint32
	for _, e := range entries {
		if e.FirstChunk > chunk {
			break
		}
		n = e.SamplesPerChunk
	}

	return n
}

// sampleClock walks the stts table.
type sampleClock struct {
	entries []mp4.SttsEntry
	entry   int
	used    uint32
	now     uint64
}

// next returns the decode time of the next sample, in timescale units.
func (c *sampleClock) next() uint64 {
	ts := c.now
	for c.entry < len(c.entries) && c.used >= c.entries[c.entry].SampleCount {
		c.entry++
		c.used = 0
	}
	if c.entry < len(c.entries) {
		c.now += uint64(c.entries[c.entry].SampleDelta)
		c.used++
	}

	return ts
}

// build flattens the sample tables into packets. Raw PCM keeps one packet
// per chunk, everything else one packet per sample.
func (t *track) build(st *sampleTables) {
	f := &t.format
	raw := f.Constant() && f.FramesPerPacket == 1
	scale := f.SampleRate / float64(st.timescale)
	toFrames := func(ts uint64) int64 { return int64(float64(ts) * scale) }

	clock := &sampleClock{entries: st.stts}
	sample := uint32(0)

	for i, chunkOffset := range st.chunkOffsets {
		offset := int64(chunkOffset)
		n := samplesPerChunk(st.stsc, uint32(i+1))

		if raw {
			n = min(n, st.sampleCount-sample)
			if n == 0 {
				break
			}
			start := clock.next()
			for range n - 1 {
				clock.next()
			}
			size := int64(n) * int64(f.BytesPerPacket)
			t.packets = append(t.packets, packet{offset: offset, size: size, timestamp: toFrames(start)})
			sample += n
			continue
		}

		for j := uint32(0); j < n && sample < st.sampleCount; j++ {
			size := int64(st.constantSize)
			if size == 0 {
				size = int64(st.sizes[sample])
			}
			t.packets = append(t.packets, packet{offset: offset, size: size, timestamp: toFrames(clock.next())})
			offset += size
			sample++
		}
	}

	t.duration = toFrames(st.duration)

	// A single stts run gives a fixed frame count per packet.
	if !raw && len(st.stts) == 1 && scale == 1 {
		f.FramesPerPacket = int(st.stts[0].SampleDelta)
	}
}
