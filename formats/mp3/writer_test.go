// SPDX-License-Identifier: EPL-2.0

package mp3

// bitWriter packs MSB-first fields.
type bitWriter struct {
	buf  []byte
	bits int
}

func (w *bitWriter) write(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.bits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[w.bits/8] |= 0x80 >> (w.bits % 8)
		}
		w.bits++
	}
}

func (w *bitWriter) sign(v int) {
	if v < 0 {
		w.write(1, 1)
	} else if v > 0 {
		w.write(0, 1)
	}
}

// testGranule is one granule channel of a test frame. values are the
// big_values lines, coded with table (1 when zero); quads are the count1
// lines, values in -1..1, coded with count1 table A or B.
type testGranule struct {
	gain   int
	table  int
	values []int
	quads  []int
	// count1Table selects table B.
	count1Table int

	// blockType is 0 for long blocks; anything else sets the window
	// switching flag.
	blockType    int
	mixed        bool
	subblockGain [3]int

	scalefacCompress int
	// scalefac is in bitstream order; missing entries are zero.
	scalefac []int
}

func (g testGranule) huffTable() int {
	if g.table == 0 {
		return 1
	}

	return g.table
}

// slens returns the width of every scalefactor the granule carries.
func (g testGranule) slens() []int {
	slen1, slen2 := slenTable[g.scalefacCompress][0], slenTable[g.scalefacCompress][1]
	n1, n2 := 11, 10
	switch {
	case g.blockType == 2 && g.mixed:
		n1, n2 = 17, 18
	case g.blockType == 2:
		n1, n2 = 18, 18
	}

	out := make([]int, 0, n1+n2)
	for range n1 {
		out = append(out, slen1)
	}
	for range n2 {
		out = append(out, slen2)
	}

	return out
}

func (g testGranule) encode() *bitWriter {
	w := &bitWriter{}

	for i, n := range g.slens() {
		sf := 0
		if i < len(g.scalefac) {
			sf = g.scalefac[i]
		}
		w.write(uint64(sf), n)
	}

	table := g.huffTable()
	src := table
	switch {
	case table >= 24:
		src = 24
	case table >= 16:
		src = 16
	}
	t := pairCodes[src]
	linbits := pairTables[table].linbits

	for i := 0; i+1 < len(g.values); i += 2 {
		x, y := g.values[i], g.values[i+1]
		k := min(abs(x), 15)*t.width + min(abs(y), 15)
		w.write(uint64(t.codes[k]), int(t.lens[k]))
		for _, v := range [2]int{x, y} {
			if linbits > 0 && abs(v) >= 15 {
				w.write(uint64(abs(v)-15), linbits)
			}
			w.sign(v)
		}
	}

	for i := 0; i+3 < len(g.quads); i += 4 {
		q := g.quads[i : i+4]
		k := 0
		for _, v := range q {
			k <<= 1
			if v != 0 {
				k |= 1
			}
		}
		if g.count1Table == 0 {
			w.write(uint64(quadCodesA.codes[k]), int(quadCodesA.lens[k]))
		} else {
			w.write(uint64(15-k), 4)
		}
		for _, v := range q {
			w.sign(v)
		}
	}

	return w
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}

const (
	testFrameSize = 417
	testBitrate   = 128000
	testRate      = 44100
)

// Mode bytes of the fourth header byte.
const (
	modeByteStereo = 0x00
	modeByteJoint  = 0x40
	modeByteMono   = 0xc0
)

// writeLayer3 builds MPEG-1 Layer III frames at 128 kbit/s and 44.1 kHz.
// frames[i] holds granule 0 then granule 1, each with one entry per
// channel. Every frame after the first starts its main data reservoir bytes
// into the previous one.
func writeLayer3(nch int, frames [][2][]testGranule, reservoir int) []byte {
	mode := byte(modeByteStereo)
	if nch == 1 {
		mode = modeByteMono
	}

	return writeLayer3Mode(mode, frames, reservoir)
}

// writeLayer3Mode is writeLayer3 with an explicit mode and mode extension
// byte.
func writeLayer3Mode(mode byte, frames [][2][]testGranule, reservoir int) []byte {
	nch := 2
	siLen := 32
	if mode&0xc0 == modeByteMono {
		nch = 1
		siLen = 17
	}
	payload := testFrameSize - headerSize - siLen

	main := make([]byte, len(frames)*payload+reservoir)
	lengths := make([][2][2]int, len(frames))
	begins := make([]int, len(frames))

	for i, fr := range frames {
		var w bitWriter
		for gr := range 2 {
			for ch := range nch {
				g := fr[gr][ch].encode()
				lengths[i][gr][ch] = g.bits
				for b := range g.bits {
					w.write(uint64(g.buf[b/8]>>(7-b%8)&1), 1)
				}
			}
		}
		if len(w.buf) > payload-reservoir {
			panic("mp3: test frame main data does not fit")
		}

		if i > 0 {
			begins[i] = reservoir
		}
		copy(main[i*payload-begins[i]:], w.buf)
	}

	var out []byte
	for i, fr := range frames {
		out = append(out, 0xff, 0xfb, 0x90, mode)

		var si bitWriter
		si.write(uint64(begins[i]), 9)
		if nch == 1 {
			si.write(0, 5)
		} else {
			si.write(0, 3)
		}
		si.write(0, 4*nch)
		for gr := range 2 {
			for ch := range nch {
				g := fr[gr][ch]
				table := uint64(g.huffTable())
				si.write(uint64(lengths[i][gr][ch]), 12)
				si.write(uint64(len(g.values)/2), 9)
				si.write(uint64(g.gain), 8)
				si.write(uint64(g.scalefacCompress), 4)
				if g.blockType != 0 {
					si.write(1, 1)
					si.write(uint64(g.blockType), 2)
					if g.mixed {
						si.write(1, 1)
					} else {
						si.write(0, 1)
					}
					si.write(table, 5)
					si.write(table, 5)
					for _, sg := range g.subblockGain {
						si.write(uint64(sg), 3)
					}
				} else {
					si.write(0, 1)
					si.write(table, 5)
					si.write(table, 5)
					si.write(table, 5)
					si.write(7, 4)
					si.write(7, 3)
				}
				// preflag, scalefac_scale
				si.write(0, 2)
				si.write(uint64(g.count1Table), 1)
			}
		}
		out = append(out, si.buf...)
		out = append(out, main[i*payload:(i+1)*payload]...)
	}

	return out
}

// frameStyle shapes the granules testFrames returns.
type frameStyle struct {
	table int
	// peak is the largest big_values magnitude; 1 when zero.
	peak int
	// lines is the number of big_values lines; 32 when zero.
	lines int
	quads int
	gain  int
	// blocks is the block type of consecutive granules, repeated.
	blocks      []int
	mixed       bool
	subblock    [3]int
	scalefacs   bool
	count1Table int
}

// testFrames returns n frames of a deterministic pattern over the lowest
// lines, quiet enough never to clip.
func testFrames(nch, n int) [][2][]testGranule {
	return styledFrames(nch, n, frameStyle{})
}

func styledFrames(nch, n int, s frameStyle) [][2][]testGranule {
	peak := max(s.peak, 1)
	lines := s.lines
	if lines == 0 {
		lines = 32
	}
	gain := s.gain
	if gain == 0 {
		gain = 180
	}

	frames := make([][2][]testGranule, n)
	seed := 7
	next := func(span int) int {
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		return seed >> 16 % span
	}

	for i := range frames {
		for gr := range 2 {
			blockType := 0
			if len(s.blocks) > 0 {
				blockType = s.blocks[(2*i+gr)%len(s.blocks)]
			}

			frames[i][gr] = make([]testGranule, nch)
			for ch := range nch {
				g := testGranule{
					gain:        gain,
					table:       s.table,
					values:      make([]int, lines),
					quads:       make([]int, 4*s.quads),
					count1Table: s.count1Table,
					blockType:   blockType,
				}
				for k := range g.values {
					g.values[k] = next(2*peak+1) - peak
				}
				for k := range g.quads {
					g.quads[k] = next(3) - 1
				}
				if blockType == 2 {
					g.mixed = s.mixed
					g.subblockGain = s.subblock
				}
				if s.scalefacs {
					// slen1 2, slen2 3
					g.scalefacCompress = 10
					for _, n := range g.slens() {
						g.scalefac = append(g.scalefac, next(1<<n))
					}
				}
				frames[i][gr][ch] = g
			}
		}
	}

	return frames
}
