// SPDX-License-Identifier: EPL-2.0

package mp3

import "math"

// sfTable holds the Layer I/II scalefactors 2^(1 - i/3); index 63 is not
// a valid scalefactor and decodes as silence.
var sfTable [64]float32

func init() {
	for i := range 63 {
		sfTable[i] = float32(math.Pow(2, 1-float64(i)/3))
	}
}

// sbquant selects, per subband, the allocation table row of one Layer II
// table: ISO/IEC 11172-3 Tables B.2a-d and ISO/IEC 13818-3 Table B.1.
type sbquant struct {
	sblimit int
	offsets [30]int
}

var sbquantTable = [5]sbquant{
	{27, [30]int{7, 7, 7, 6, 6, 6, 6, 6, 6, 6, 6, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 0, 0, 0, 0}},
	{30, [30]int{7, 7, 7, 6, 6, 6, 6, 6, 6, 6, 6, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 0, 0, 0, 0, 0, 0, 0}},
	{8, [30]int{5, 5, 2, 2, 2, 2, 2, 2}},
	{12, [30]int{5, 5, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2}},
	{30, [30]int{4, 4, 4, 4, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
}

// bitalloc is the allocation field width and the offsetTable row of one
// allocation table row.
var bitalloc = [8]struct {
	nbal   int
	offset int
}{
	{2, 0}, {2, 3}, {3, 3}, {3, 1}, {4, 2}, {4, 3}, {4, 4}, {4, 5},
}

// offsetTable maps an allocation to its quantClasses index.
var offsetTable = [6][15]int{
	{0, 1, 16},
	{0, 1, 2, 3, 4, 5, 16},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
	{0, 1, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 16},
	{0, 2, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
}

// quantClass is one Layer II quantizer. Grouped classes code three samples
// in one codeword of bits; group is then the sample width the degrouped
// values are scaled as.
type quantClass struct {
	levels int
	group  int
	bits   int
	c, d   float32
}

var quantClasses [17]quantClass

func init() {
	classes := [17]struct {
		levels, group, bits int
		d                   float32
	}{
		{3, 2, 5, 0.5},
		{5, 3, 7, 0.5},
		{7, 0, 3, 0.25},
		{9, 4, 10, 0.5},
		{15, 0, 4, 0.125},
		{31, 0, 5, 0.0625},
		{63, 0, 6, 0.03125},
		{127, 0, 7, 0.015625},
		{255, 0, 8, 0.0078125},
		{511, 0, 9, 0.00390625},
		{1023, 0, 10, 0.001953125},
		{2047, 0, 11, 0.0009765625},
		{4095, 0, 12, 0.00048828125},
		{8191, 0, 13, 0.000244140625},
		{16383, 0, 14, 0.0001220703125},
		{32767, 0, 15, 0.00006103515625},
		{65535, 0, 16, 0.000030517578125},
	}

	for i, c := range classes {
		pow := 1
		for pow < c.levels {
			pow <<= 1
		}
		quantClasses[i] = quantClass{
			levels: c.levels,
			group:  c.group,
			bits:   c.bits,
			c:      float32(pow) / float32(c.levels),
			d:      c.d,
		}
	}
}

// dequantize maps an nb-bit sample code to a fraction in (-1, 1): the msb
// is inverted and the result read as two's complement.
func dequantize(code, nb int) float32 {
	v := code ^ 1<<(nb-1)
	if v&(1<<(nb-1)) != 0 {
		v -= 1 << nb
	}

	return float32(v) / float32(int(1)<<(nb-1))
}

func layerSample(f *fieldReader, nb int) float32 {
	s := dequantize(f.read(nb), nb)
	s += 1 / float32(int(1)<<(nb-1))

	return s * float32(int(1)<<nb) / float32(int(1)<<nb-1)
}

// intensityBound is the first subband whose samples the two channels share.
func intensityBound(h *Header) int {
	if h.Mode != ModeJointStereo {
		return 32
	}
	h.Flags |= FlagIStereo

	return 4 + 4*h.ModeExtension
}

func (d *Decoder) decodeLayer1(h *Header, frame []byte) error {
	f := newFieldReader(frame[h.dataOffset():])
	nch := h.Channels()
	bound := intensityBound(h)

	var (
		alloc [2][32]int
		scale [2][32]int
	)

	for sb := range 32 {
		for ch := range nch {
			if sb >= bound && ch > 0 {
				alloc[ch][sb] = alloc[0][sb]
				continue
			}

			nb := f.read(4)
			if nb == 15 {
				return ErrBadBitAlloc
			}
			if nb != 0 {
				nb++
			}
			alloc[ch][sb] = nb
		}
	}

	for sb := range 32 {
		for ch := range nch {
			if alloc[ch][sb] != 0 {
				scale[ch][sb] = f.read(6)
			}
		}
	}

	var sample float32
	for s := range 12 {
		for sb := range 32 {
			for ch := range nch {
				nb := alloc[ch][sb]
				if nb == 0 {
					d.sbsample[ch][s][sb] = 0
					continue
				}

				if ch == 0 || sb < bound {
					sample = layerSample(f, nb)
				}
				d.sbsample[ch][s][sb] = sample * sfTable[scale[ch][sb]]
			}
		}
	}

	return f.Err()
}

// layer2Table picks the allocation table from the bitrate per channel and
// the sample rate.
func layer2Table(h *Header) (int, error) {
	if h.Flags&FlagLSF != 0 {
		return 4, nil
	}

	if h.Flags&FlagFreeFormat == 0 {
		perChannel := h.Bitrate
		if h.Channels() == 2 {
			perChannel /= 2
		} else if perChannel > 192000 {
			return 0, ErrBadMode
		}

		switch {
		case perChannel <= 48000:
			if h.SampleRate == 32000 {
				return 3, nil
			}
			return 2, nil
		case perChannel <= 80000:
			return 0, nil
		}
	}

	if h.SampleRate == 48000 {
		return 0, nil
	}

	return 1, nil
}

func (d *Decoder) decodeLayer2(h *Header, frame []byte) error {
	index, err := layer2Table(h)
	if err != nil {
		return err
	}

	f := newFieldReader(frame[h.dataOffset():])
	nch := h.Channels()
	quant := &sbquantTable[index]
	bound := min(intensityBound(h), quant.sblimit)

	var (
		alloc [2][32]int
		scfsi [2][32]int
		scale [2][32][3]int
	)

	for sb := range quant.sblimit {
		nbal := bitalloc[quant.offsets[sb]].nbal
		if sb < bound {
			for ch := range nch {
				alloc[ch][sb] = f.read(nbal)
			}
			continue
		}
		alloc[0][sb] = f.read(nbal)
		alloc[1][sb] = alloc[0][sb]
	}

	for sb := range quant.sblimit {
		for ch := range nch {
			if alloc[ch][sb] != 0 {
				scfsi[ch][sb] = f.read(2)
			}
		}
	}

	for sb := range quant.sblimit {
		for ch := range nch {
			if alloc[ch][sb] == 0 {
				continue
			}

			sf := &scale[ch][sb]
			sf[0] = f.read(6)
			switch scfsi[ch][sb] {
			case 0:
				sf[1] = f.read(6)
				sf[2] = f.read(6)
			case 1:
				sf[1] = sf[0]
				sf[2] = f.read(6)
			case 2:
				sf[1] = sf[0]
				sf[2] = sf[0]
			case 3:
				sf[2] = f.read(6)
				sf[1] = sf[2]
			}
		}
	}

	var samples [3]float32
	for gr := range 12 {
		for sb := range 32 {
			if sb >= quant.sblimit {
				for ch := range nch {
					for s := range 3 {
						d.sbsample[ch][3*gr+s][sb] = 0
					}
				}
				continue
			}

			for ch := range nch {
				a := alloc[ch][sb]
				if a == 0 {
					for s := range 3 {
						d.sbsample[ch][3*gr+s][sb] = 0
					}
					continue
				}

				if ch == 0 || sb < bound {
					q := &quantClasses[offsetTable[bitalloc[quant.offsets[sb]].offset][a-1]]
					samples = layer2Samples(f, q)
				}
				for s := range 3 {
					d.sbsample[ch][3*gr+s][sb] = samples[s] * sfTable[scale[ch][sb][gr/4]]
				}
			}
		}
	}

	return f.Err()
}

func layer2Samples(f *fieldReader, q *quantClass) (out [3]float32) {
	var codes [3]int
	nb := q.bits
	if q.group != 0 {
		nb = q.group
		c := f.read(q.bits)
		for s := range codes {
			codes[s] = c % q.levels
			c /= q.levels
		}
	} else {
		for s := range codes {
			codes[s] = f.read(nb)
		}
	}

	for s, code := range codes {
		out[s] = (dequantize(code, nb) + q.d) * q.c
	}

	return out
}
