// SPDX-License-Identifier: EPL-2.0

package mp3

import "math"

// mainDataSize bounds the bit reservoir: the largest main_data_begin, the
// largest frame payload and a read guard.
const mainDataSize = 511 + 2048 + 8

var pretab = [22]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 3, 3, 3, 2, 0}

// slenTable maps an MPEG-1 scalefac_compress to slen1 and slen2.
var slenTable = [16][2]int{
	{0, 0}, {0, 1}, {0, 2}, {0, 3}, {3, 0}, {1, 1}, {1, 2}, {1, 3},
	{2, 1}, {2, 2}, {2, 3}, {3, 1}, {3, 2}, {3, 3}, {4, 2}, {4, 3},
}

// nsfbTable is ISO/IEC 13818-3 Table 3-B.2: bands per slen part, for long,
// short and mixed blocks of each scalefac_compress class.
var nsfbTable = [6][3][4]int{
	{{6, 5, 5, 5}, {9, 9, 9, 9}, {6, 9, 9, 9}},
	{{6, 5, 7, 3}, {9, 9, 12, 6}, {6, 9, 12, 6}},
	{{11, 10, 0, 0}, {18, 18, 0, 0}, {15, 18, 0, 0}},
	{{7, 7, 7, 0}, {12, 12, 12, 0}, {6, 15, 12, 0}},
	{{6, 6, 6, 3}, {12, 9, 9, 6}, {6, 12, 9, 6}},
	{{8, 8, 5, 0}, {15, 12, 9, 0}, {6, 18, 9, 0}},
}

// isRatio holds tan(p*pi/12) / (1 + tan(p*pi/12)) per MPEG-1 intensity
// position.
var isRatio = [7]float32{0, 0.211324865, 0.366025404, 0.5, 0.633974596, 0.788675135, 1}

var (
	// pow43 is |v|^(4/3) for every value big_values can code.
	pow43 [8207]float64
	// rootTable is 2^(i/4) for i in -3..3.
	rootTable [7]float64
	isLSF     [2][15]float32
)

func init() {
	for i := range pow43 {
		pow43[i] = math.Pow(float64(i), 4.0/3)
	}
	for i := range rootTable {
		rootTable[i] = math.Pow(2, float64(i-3)/4)
	}
	for i := range 15 {
		isLSF[0][i] = float32(math.Pow(2, -float64(i+1)/4))
		isLSF[1][i] = float32(math.Pow(2, -float64(i+1)/2))
	}
}

func requantize(value, exp int) float32 {
	frac := exp % 4
	v := math.Ldexp(pow43[value], exp/4)
	if frac != 0 {
		v *= rootTable[3+frac]
	}

	return float32(v)
}

type granuleChannel struct {
	part23Length     int
	bigValues        int
	globalGain       int
	scalefacCompress int

	blockType    int
	mixed        bool
	tableSelect  [3]int
	subblockGain [3]int
	region0Count int
	region1Count int

	preflag       bool
	scalefacScale bool
	count1Table   int

	scalefac [39]int
}

type sideInfo struct {
	mainDataBegin int
	privateBits   int
	scfsi         [2]int
	gr            [2][2]granuleChannel
}

// readSideInfo parses the side information. A semantic error is returned
// separately from the fields, which are still complete: the reservoir is
// maintained even for a frame that cannot be decoded.
func readSideInfo(b []byte, nch int, lsf bool) (si sideInfo, bad error, err error) {
	f := newFieldReader(b)
	fail := func(e error) {
		if bad == nil {
			bad = e
		}
	}

	ngr := 2
	if lsf {
		ngr = 1
		si.mainDataBegin = f.read(8)
		si.privateBits = f.read(nch)
	} else {
		si.mainDataBegin = f.read(9)
		if nch == 1 {
			si.privateBits = f.read(5)
		} else {
			si.privateBits = f.read(3)
		}
		for ch := range nch {
			si.scfsi[ch] = f.read(4)
		}
	}

	for gr := range ngr {
		for ch := range nch {
			g := &si.gr[gr][ch]
			g.part23Length = f.read(12)
			g.bigValues = f.read(9)
			if g.bigValues > 288 {
				fail(ErrBadBigValues)
			}
			g.globalGain = f.read(8)
			if lsf {
				g.scalefacCompress = f.read(9)
			} else {
				g.scalefacCompress = f.read(4)
			}

			if f.read(1) == 1 {
				g.blockType = f.read(2)
				if g.blockType == 0 {
					fail(ErrBadBlockType)
				}
				if !lsf && g.blockType == 2 && si.scfsi[ch] != 0 {
					fail(ErrBadScfsi)
				}

				g.region0Count = 7
				g.region1Count = 36
				if f.read(1) == 1 {
					g.mixed = true
				} else if g.blockType == 2 {
					g.region0Count = 8
				}
				for i := range 2 {
					g.tableSelect[i] = f.read(5)
				}
				for i := range 3 {
					g.subblockGain[i] = f.read(3)
				}
			} else {
				for i := range 3 {
					g.tableSelect[i] = f.read(5)
				}
				g.region0Count = f.read(4)
				g.region1Count = f.read(3)
			}

			if !lsf {
				g.preflag = f.read(1) == 1
			}
			g.scalefacScale = f.read(1) == 1
			g.count1Table = f.read(1)
		}
	}

	return si, bad, f.Err()
}

// readScalefactors reads MPEG-1 scalefactors. Bands whose scfsi bit is set
// are shared with granule 0.
func readScalefactors(r *bitReader, g, gr0 *granuleChannel, scfsi int) {
	slen1, slen2 := slenTable[g.scalefacCompress][0], slenTable[g.scalefacCompress][1]

	if g.blockType == 2 {
		n := 18
		if g.mixed {
			n = 17
		}

		i := 0
		for ; i < n; i++ {
			g.scalefac[i] = int(r.read(slen1))
		}
		for range 18 {
			g.scalefac[i] = int(r.read(slen2))
			i++
		}
		for range 3 {
			g.scalefac[i] = 0
			i++
		}

		return
	}

	groups := [4]struct {
		from, to, slen, bit int
	}{
		{0, 6, slen1, 8},
		{6, 11, slen1, 4},
		{11, 16, slen2, 2},
		{16, 21, slen2, 1},
	}
	for _, grp := range groups {
		for i := grp.from; i < grp.to; i++ {
			if scfsi&grp.bit != 0 {
				g.scalefac[i] = gr0.scalefac[i]
			} else {
				g.scalefac[i] = int(r.read(grp.slen))
			}
		}
	}
	g.scalefac[21] = 0
}

// readScalefactorsLSF reads MPEG-2 scalefactors. For the intensity coded
// right channel gr1 is granule 1 of that channel, which LSF frames do not
// use otherwise; it receives a flag per band marking an illegal intensity
// position.
func readScalefactorsLSF(r *bitReader, g, gr1 *granuleChannel, modeExtension int) {
	index := 0
	if g.blockType == 2 {
		index = 1
		if g.mixed {
			index = 2
		}
	}

	var (
		slen [4]int
		nsfb [4]int
		sc   = g.scalefacCompress
	)

	if modeExtension&iStereo == 0 || gr1 == nil {
		switch {
		case sc < 400:
			slen = [4]int{(sc >> 4) / 5, (sc >> 4) % 5, (sc % 16) >> 2, sc % 4}
			nsfb = nsfbTable[0][index]
		case sc < 500:
			sc -= 400
			slen = [4]int{(sc >> 2) / 5, (sc >> 2) % 5, sc % 4, 0}
			nsfb = nsfbTable[1][index]
		default:
			sc -= 500
			slen = [4]int{sc / 3, sc % 3, 0, 0}
			g.preflag = true
			nsfb = nsfbTable[2][index]
		}

		n := 0
		for part := range 4 {
			for range nsfb[part] {
				g.scalefac[n] = int(r.read(slen[part]))
				n++
			}
		}
		for ; n < 39; n++ {
			g.scalefac[n] = 0
		}

		return
	}

	sc >>= 1
	switch {
	case sc < 180:
		slen = [4]int{sc / 36, (sc % 36) / 6, (sc % 36) % 6, 0}
		nsfb = nsfbTable[3][index]
	case sc < 244:
		sc -= 180
		slen = [4]int{(sc % 64) >> 4, (sc % 16) >> 2, sc % 4, 0}
		nsfb = nsfbTable[4][index]
	default:
		sc -= 244
		slen = [4]int{sc / 3, sc % 3, 0, 0}
		nsfb = nsfbTable[5][index]
	}

	n := 0
	for part := range 4 {
		limit := 1<<slen[part] - 1
		for range nsfb[part] {
			pos := int(r.read(slen[part]))
			g.scalefac[n] = pos
			gr1.scalefac[n] = 0
			if pos == limit {
				gr1.scalefac[n] = 1
			}
			n++
		}
	}
	for ; n < 39; n++ {
		g.scalefac[n] = 0
		gr1.scalefac[n] = 0
	}
}

// exponents computes the quarter-step exponent of every scalefactor band.
func exponents(g *granuleChannel, widths []int, exp *[39]int) {
	gain := g.globalGain - 210
	shift := 1
	if g.scalefacScale {
		shift = 2
	}

	if g.blockType != 2 {
		for i := range 22 {
			sf := g.scalefac[i]
			if g.preflag {
				sf += pretab[i]
			}
			exp[i] = gain - sf<<shift
		}

		return
	}

	i, l := 0, 0
	if g.mixed {
		for l < 36 {
			sf := g.scalefac[i]
			if g.preflag {
				sf += pretab[i]
			}
			exp[i] = gain - sf<<shift
			l += widths[i]
			i++
		}
	}

	var gains [3]int
	for w := range gains {
		gains[w] = gain - 8*g.subblockGain[w]
	}
	for l < 576 {
		for w := range 3 {
			exp[i+w] = gains[w] - g.scalefac[i+w]<<shift
		}
		l += 3 * widths[i]
		i += 3
	}
}

// huffDecode decodes and requantizes the spectrum of one granule channel.
// r is positioned after the scalefactors, part2 bits into the part; it is
// left at the end of the part.
func huffDecode(r *bitReader, xr *[576]float32, g *granuleChannel, widths []int, part2 int) error {
	left := g.part23Length - part2
	if left < 0 {
		return ErrBadPart3Len
	}

	var exps [39]int
	exponents(g, widths, &exps)

	c := bitCache{r: *r}
	r.skip(left)
	c.left = left

	size := c.r.bitsLeft()
	c.fill(size + ((31-24)+(24-size))&^7)

	var (
		xi     int
		band   = 1
		bound  = widths[0]
		rcount = g.region0Count + 1
		region int
		tab    = &pairTables[g.tableSelect[0]]
		ei     = 1
		exp    = exps[0]

		reqcache [16]float32
		reqhits  uint32
	)
	if tab.nodes == nil {
		return ErrBadHuffTable
	}

	nextBand := func() {
		if band < len(widths) {
			bound += widths[band]
		}
		band++
	}

	value := func(v, reserve int) float32 {
		if v == 0 {
			return 0
		}

		var q float32
		switch {
		case v == 15 && tab.linbits > 0:
			if c.size < tab.linbits+reserve {
				c.fill(16)
			}
			v += c.take(tab.linbits)
			q = requantize(v, exp)
		case reqhits&(1<<v) != 0:
			q = reqcache[v]
		default:
			reqhits |= 1 << v
			q = requantize(v, exp)
			reqcache[v] = q
		}

		if c.take(1) != 0 {
			return -q
		}

		return q
	}

	for n := g.bigValues; n > 0 && c.size+c.left > 0; n-- {
		if xi == bound {
			nextBand()

			rcount--
			if rcount == 0 {
				if region == 0 {
					rcount = g.region1Count + 1
				}
				region++
				tab = &pairTables[g.tableSelect[region]]
				if tab.nodes == nil {
					return ErrBadHuffTable
				}
			}

			if exp != exps[ei] {
				exp = exps[ei]
				reqhits = 0
			}
			ei++
		}

		if c.size < 21 {
			c.fill(((31 - 21) + (21 - c.size)) &^ 7)
		}

		clump := tab.start
		e := tab.nodes[c.mask(clump)]
		for !e.final {
			c.size -= clump
			clump = int(e.bits)
			e = tab.nodes[int(e.next)+c.mask(clump)]
		}
		c.size -= int(e.bits)

		xr[xi] = value(int(e.value>>4), 2)
		xr[xi+1] = value(int(e.value&15), 1)
		xi += 2
	}

	if c.size+c.left < 0 {
		return ErrBadHuffData
	}

	quad := &quadTables[g.count1Table]
	one := requantize(1, exp)
	sign := func(bit uint8) float32 {
		if bit == 0 {
			return 0
		}
		if c.take(1) != 0 {
			return -one
		}

		return one
	}
	crossBand := func() {
		if xi != bound {
			return
		}
		nextBand()
		if exp != exps[ei] {
			exp = exps[ei]
			one = requantize(1, exp)
		}
		ei++
	}

	for c.size+c.left > 0 && xi <= 572 {
		if c.size < 10 {
			c.fill(16)
		}

		e := quad.nodes[c.mask(4)]
		if !e.final {
			c.size -= 4
			e = quad.nodes[int(e.next)+c.mask(int(e.bits))]
		}
		c.size -= int(e.bits)

		crossBand()
		xr[xi] = sign(e.value >> 3 & 1)
		xr[xi+1] = sign(e.value >> 2 & 1)
		xi += 2

		crossBand()
		xr[xi] = sign(e.value >> 1 & 1)
		xr[xi+1] = sign(e.value & 1)
		xi += 2
	}

	// Some encoders stuff the part with an incomplete quadruple.
	if c.size+c.left < 0 {
		xi -= 4
	}

	for ; xi < 576; xi++ {
		xr[xi] = 0
	}

	return nil
}

// stereoModes returns the stereo processing of every scalefactor band of
// granule g: the frame mode_extension with the intensity bit cleared below
// the intensity bound, which is the last band with nonzero right channel
// lines.
func stereoModes(right *[576]float32, rc *granuleChannel, widths []int, modeExtension int) [39]int {
	var modes [39]int
	for i := range modes {
		modes[i] = modeExtension
	}
	if modeExtension&iStereo == 0 {
		return modes
	}

	nonzero := func(l, n int) bool {
		for _, v := range right[l : l+n] {
			if v != 0 {
				return true
			}
		}

		return false
	}

	if rc.blockType != 2 {
		bound := 0
		for i, l := 0, 0; l < 576; i++ {
			n := widths[i]
			if nonzero(l, n) {
				bound = i + 1
			}
			l += n
		}
		for i := range bound {
			modes[i] &^= iStereo
		}

		return modes
	}

	var (
		lower, start, highest int
		bounds                [3]int
		i, l                  int
	)
	if rc.mixed {
		for l < 36 {
			n := widths[i]
			i++
			if nonzero(l, n) {
				lower = i
			}
			l += n
		}
		start = i
	}

	for w := 0; l < 576; w = (w + 1) % 3 {
		n := widths[i]
		i++
		if nonzero(l, n) {
			highest = i
			bounds[w] = i
		}
		l += n
	}

	if highest != 0 {
		lower = start
	}
	for i := range lower {
		modes[i] &^= iStereo
	}
	for i, w := start, 0; i < highest; i, w = i+1, (w+1)%3 {
		if i < bounds[w] {
			modes[i] &^= iStereo
		}
	}

	return modes
}

// jointStereo undoes intensity and mid/side coding of one granule.
func jointStereo(xr *[2][576]float32, si *sideInfo, gr int, h *Header, widths []int) error {
	g := &si.gr[gr]
	if g[0].blockType != g[1].blockType || g[0].mixed != g[1].mixed {
		return ErrBadStereo
	}

	rc := &g[1]
	modes := stereoModes(&xr[1], rc, widths, h.ModeExtension)

	if h.ModeExtension&iStereo != 0 {
		h.Flags |= FlagIStereo

		for sfb, l := 0, 0; l < 576; sfb++ {
			n := widths[sfb]
			band := l
			l += n

			if modes[sfb]&iStereo == 0 {
				continue
			}

			if h.Flags&FlagLSF != 0 {
				if si.gr[1][1].scalefac[sfb] != 0 {
					modes[sfb] &^= iStereo
					continue
				}

				pos := rc.scalefac[sfb]
				scale := &isLSF[rc.scalefacCompress&1]
				for i := band; i < band+n; i++ {
					left := xr[0][i]
					switch {
					case pos == 0:
						xr[1][i] = left
					case pos&1 != 0:
						xr[0][i] = left * scale[(pos-1)/2]
						xr[1][i] = left
					default:
						xr[1][i] = left * scale[(pos-1)/2]
					}
				}
				continue
			}

			pos := rc.scalefac[sfb]
			if pos >= 7 {
				modes[sfb] &^= iStereo
				continue
			}
			for i := band; i < band+n; i++ {
				left := xr[0][i]
				xr[0][i] = left * isRatio[pos]
				xr[1][i] = left * isRatio[6-pos]
			}
		}
	}

	if h.ModeExtension&msStereo != 0 {
		h.Flags |= FlagMSStereo

		for sfb, l := 0, 0; l < 576; sfb++ {
			n := widths[sfb]
			if modes[sfb] == msStereo {
				for i := l; i < l+n; i++ {
					m, s := xr[0][i], xr[1][i]
					xr[0][i] = (m + s) * math.Sqrt2 / 2
					xr[1][i] = (m - s) * math.Sqrt2 / 2
				}
			}
			l += n
		}
	}

	return nil
}

// reorder groups the lines of each short block subband window by window.
func reorder(xr *[576]float32, g *granuleChannel, widths []int) {
	var tmp [32][3][6]float32

	sb, bi := 0, 0
	if g.mixed {
		sb = 2
		for l := 0; l < 36; bi++ {
			l += widths[bi]
		}
	}

	sbw := [3]int{sb, sb, sb}
	var sw [3]int
	f := widths[bi]
	bi++
	w := 0

	for l := 18 * sb; l < 576; l++ {
		if f == 0 {
			f = widths[bi]
			bi++
			w = (w + 1) % 3
		}
		f--

		tmp[sbw[w]][w][sw[w]] = xr[l]
		sw[w]++
		if sw[w] == 6 {
			sw[w] = 0
			sbw[w]++
		}
	}

	for s := sb; s < 32; s++ {
		for w := range 3 {
			copy(xr[18*s+6*w:18*s+6*w+6], tmp[s][w][:])
		}
	}
}

// hybrid runs reorder, alias reduction, the IMDCT, overlap-add and
// frequency inversion for one granule channel.
func (d *Decoder) hybrid(xr *[576]float32, g *granuleChannel, widths []int, ch, gr int) {
	sample := &d.sbsample[ch]
	overlap := &d.overlap[ch]

	if g.blockType == 2 {
		reorder(xr, g, widths)
		if g.mixed {
			aliasReduce(xr, 36)
		}
	} else {
		aliasReduce(xr, 576)
	}

	lines := func(sb int) *[18]float32 {
		return (*[18]float32)(xr[18*sb : 18*sb+18])
	}

	for sb := range 2 {
		var z [36]float32
		if g.blockType != 2 || g.mixed {
			blockType := g.blockType
			if g.mixed {
				blockType = 0
			}
			z = imdctLong(lines(sb), blockType)
		} else {
			z = imdctShortBlocks(lines(sb))
		}
		overlapAdd(&z, &overlap[sb], sample, gr, sb)
	}
	frequencyInvert(sample, gr, 1)

	i := 576
	for i > 36 && xr[i-1] == 0 {
		i--
	}
	limit := 32 - (576-i)/18

	for sb := 2; sb < limit; sb++ {
		var z [36]float32
		if g.blockType != 2 {
			z = imdctLong(lines(sb), g.blockType)
		} else {
			z = imdctShortBlocks(lines(sb))
		}
		overlapAdd(&z, &overlap[sb], sample, gr, sb)
		if sb&1 != 0 {
			frequencyInvert(sample, gr, sb)
		}
	}

	var zero [36]float32
	for sb := limit; sb < 32; sb++ {
		overlapAdd(&zero, &overlap[sb], sample, gr, sb)
		if sb&1 != 0 {
			frequencyInvert(sample, gr, sb)
		}
	}
}

func sampleRateIndex(rate int) int {
	switch rate {
	case 48000:
		return 0
	case 44100:
		return 1
	case 32000:
		return 2
	case 24000:
		return 3
	case 22050:
		return 4
	case 16000:
		return 5
	case 11025:
		return 6
	case 12000:
		return 7
	}

	return 8
}

// decodeMainData decodes every granule of the frame into sbsample.
func (d *Decoder) decodeMainData(r *bitReader, h *Header, si *sideInfo) error {
	nch := h.Channels()
	lsf := h.Flags&FlagLSF != 0
	tables := sfbTable[sampleRateIndex(h.SampleRate)]

	ngr := 2
	if lsf {
		ngr = 1
	}

	for gr := range ngr {
		var widths [2][]int

		for ch := range nch {
			g := &si.gr[gr][ch]
			widths[ch] = tables.long
			if g.blockType == 2 {
				widths[ch] = tables.short
				if g.mixed {
					widths[ch] = tables.mixed
				}
			}

			start := r.pos
			if lsf {
				var gr1 *granuleChannel
				if ch != 0 {
					gr1 = &si.gr[1][1]
				}
				readScalefactorsLSF(r, g, gr1, h.ModeExtension)
			} else {
				scfsi := 0
				if gr != 0 {
					scfsi = si.scfsi[ch]
				}
				readScalefactors(r, g, &si.gr[0][ch], scfsi)
			}

			if err := huffDecode(r, &d.xr[ch], g, widths[ch], r.pos-start); err != nil {
				return err
			}
		}

		if h.Mode == ModeJointStereo && h.ModeExtension != 0 {
			if err := jointStereo(&d.xr, si, gr, h, widths[0]); err != nil {
				return err
			}
		}

		for ch := range nch {
			d.hybrid(&d.xr[ch], &si.gr[gr][ch], widths[ch], ch, gr)
		}
	}

	return nil
}

// nextMainDataBegin reads main_data_begin from the Layer III frame that
// starts at b, or returns 0 when b does not start one.
func nextMainDataBegin(b []byte) int {
	if len(b) < 4 {
		return 0
	}

	h := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	if h&0xffe60000 != 0xffe20000 {
		return 0
	}

	off := headerSize
	if h&0x10000 == 0 {
		off += crcSize
	}
	if h&0x80000 == 0 {
		if len(b) <= off {
			return 0
		}
		return int(b[off])
	}
	if len(b) < off+2 {
		return 0
	}

	return (int(b[off])<<8 | int(b[off+1])) >> 7
}

// decodeLayer3 decodes one frame through the bit reservoir. nextMD is the
// main_data_begin of the following frame: that many bytes at the end of
// this frame belong to it and are kept in the reservoir.
func (d *Decoder) decodeLayer3(h *Header, frame []byte, nextMD int) error {
	start := h.dataOffset()
	siLen := h.sideInfoSize()
	if len(frame)-start < siLen {
		d.mdLen = 0
		return ErrBadFrameLen
	}

	si, result, err := readSideInfo(frame[start:start+siLen], h.Channels(), h.Flags&FlagLSF != 0)
	if err != nil {
		d.mdLen = 0
		return err
	}

	payload := frame[start+siLen:]
	space := len(payload)
	mdb := si.mainDataBegin
	if nextMD > mdb+space {
		nextMD = 0
	}
	mainLen := mdb + space - nextMD

	var (
		data []byte
		used int
	)
	switch {
	case mdb == 0:
		data = payload
		d.mdLen = 0
		used = mainLen
	case mdb > d.mdLen:
		if result == nil {
			result = ErrBadDataPtr
		}
	default:
		from := d.mdLen - mdb
		if mainLen > mdb {
			if d.mdLen+mainLen-mdb > len(d.mainData) {
				d.mdLen = 0
				return ErrBadFrameLen
			}
			used = mainLen - mdb
			copy(d.mainData[d.mdLen:], payload[:used])
			d.mdLen += used
		}
		data = d.mainData[from:d.mdLen]
	}
	free := space - used

	if result == nil {
		result = d.decodeMainData(&bitReader{data: data}, h, &si)
	}

	if free >= nextMD {
		copy(d.mainData[:], payload[space-nextMD:])
		d.mdLen = nextMD
	} else {
		if mainLen < mdb {
			extra := mdb - mainLen
			if extra+free > nextMD {
				extra = nextMD - free
			}
			if extra < d.mdLen {
				copy(d.mainData[:], d.mainData[d.mdLen-extra:d.mdLen])
				d.mdLen = extra
			}
		} else {
			d.mdLen = 0
		}
		copy(d.mainData[d.mdLen:], payload[space-free:])
		d.mdLen += free
	}

	return result
}
