// SPDX-License-Identifier: EPL-2.0

package mp3

import "math"

// The windows and cosine terms follow the IMDCT and windowing equations of
// ISO/IEC 11172-3 clause 2.4.3.4.10.
var (
	// windowLong and windowShort are the sine windows of block types 0
	// and 2.
	windowLong  [36]float32
	windowShort [12]float32

	// imdctShort[i][k] holds cos(pi/24 * (2i + 1 + 6) * (2k + 1)), the
	// 12-point IMDCT kernel.
	imdctShort [12][6]float32

	// dctIVScale and dctIIScale are the 2cos factors of the Lee DCT-IV
	// decomposition.
	dctIVScale [18]float32
	dctIIScale [9]float32
	dct9Cos    [9][9]float32

	// aliasCS and aliasCA are the butterfly coefficients of ISO/IEC
	// 11172-3 Table B.9.
	aliasCS, aliasCA [8]float32
)

func init() {
	for i := range windowLong {
		windowLong[i] = float32(math.Sin(math.Pi / 36 * (float64(i) + 0.5)))
	}
	for i := range windowShort {
		windowShort[i] = float32(math.Sin(math.Pi / 12 * (float64(i) + 0.5)))
	}
	for i := range imdctShort {
		for k := range imdctShort[i] {
			imdctShort[i][k] = float32(math.Cos(math.Pi / 24 * float64(2*i+7) * float64(2*k+1)))
		}
	}

	for i := range dctIVScale {
		dctIVScale[i] = float32(2 * math.Cos(math.Pi*float64(2*i+1)/72))
	}
	for i := range dctIIScale {
		dctIIScale[i] = float32(2 * math.Cos(math.Pi*float64(2*i+1)/36))
	}
	for k := range dct9Cos {
		for n := range dct9Cos[k] {
			dct9Cos[k][n] = float32(math.Cos(math.Pi * float64((2*n+1)*k) / 18))
		}
	}

	for i, c := range [8]float64{-0.6, -0.535, -0.33, -0.185, -0.095, -0.041, -0.0142, -0.0037} {
		sq := math.Sqrt(1 + c*c)
		aliasCS[i] = float32(1 / sq)
		aliasCA[i] = float32(c / sq)
	}
}

// dct9 is an unnormalized 9-point DCT-II.
func dct9(x *[9]float32) (out [9]float32) {
	for k := range out {
		var sum float32
		for n, v := range x {
			sum += v * dct9Cos[k][n]
		}
		out[k] = sum
	}

	return out
}

// sdctII is an 18-point DCT-II split into even and odd halves of 9 points.
func sdctII(x *[18]float32) (out [18]float32) {
	var even, odd [9]float32
	for i := range 9 {
		even[i] = x[i] + x[17-i]
		odd[i] = (x[i] - x[17-i]) * dctIIScale[i]
	}

	e := dct9(&even)
	o := dct9(&odd)
	for k := range 9 {
		out[2*k] = e[k]
	}
	out[1] = o[0] / 2
	for m := 1; m < 9; m++ {
		out[2*m+1] = o[m] - out[2*m-1]
	}

	return out
}

// dctIV is the 18-point DCT-IV after Szu-Wei Lee, "Improved algorithm for
// efficient computation of the forward and backward MDCT in MPEG audio
// coder".
func dctIV(y *[18]float32) [18]float32 {
	var t [18]float32
	for i := range t {
		t[i] = y[i] * dctIVScale[i]
	}

	out := sdctII(&t)
	out[0] /= 2
	for i := 1; i < 18; i++ {
		out[i] -= out[i-1]
	}

	return out
}

// imdctLong is the 36-point inverse MDCT of one long block, windowed for
// blockType.
func imdctLong(x *[18]float32, blockType int) (z [36]float32) {
	t := dctIV(x)
	for i := range 9 {
		z[i] = t[9+i]
	}
	for i := 9; i < 27; i++ {
		z[i] = -t[26-i]
	}
	for i := 27; i < 36; i++ {
		z[i] = -t[i-27]
	}

	switch blockType {
	case 0:
		for i := range z {
			z[i] *= windowLong[i]
		}
	case 1:
		for i := range 18 {
			z[i] *= windowLong[i]
		}
		for i := 24; i < 30; i++ {
			z[i] *= windowShort[i-18]
		}
		for i := 30; i < 36; i++ {
			z[i] = 0
		}
	case 3:
		for i := range 6 {
			z[i] = 0
		}
		for i := 6; i < 12; i++ {
			z[i] *= windowShort[i-6]
		}
		for i := 18; i < 36; i++ {
			z[i] *= windowLong[i]
		}
	}

	return z
}

// imdctShortBlocks runs the 12-point inverse MDCT on the three windows of
// a short block and overlaps them into one 36-sample output.
func imdctShortBlocks(x *[18]float32) (z [36]float32) {
	for w := range 3 {
		for i := range 12 {
			var sum float32
			for k := range 6 {
				sum += x[w*6+k] * imdctShort[i][k]
			}
			z[6+6*w+i] += sum * windowShort[i]
		}
	}

	return z
}

// aliasReduce applies the butterflies between the first lines/18 subbands.
func aliasReduce(xr *[576]float32, lines int) {
	for sb := 18; sb < lines; sb += 18 {
		for i := range 8 {
			a := xr[sb-1-i]
			b := xr[sb+i]
			xr[sb-1-i] = a*aliasCS[i] - b*aliasCA[i]
			xr[sb+i] = b*aliasCS[i] + a*aliasCA[i]
		}
	}
}

// overlapAdd writes one granule of subband sb into sample and keeps the
// second half of z for the next granule.
func overlapAdd(z *[36]float32, overlap *[18]float32, sample *[36][32]float32, gr, sb int) {
	for i := range 18 {
		sample[18*gr+i][sb] = z[i] + overlap[i]
		overlap[i] = z[i+18]
	}
}

// frequencyInvert negates the odd time samples of an odd subband.
func frequencyInvert(sample *[36][32]float32, gr, sb int) {
	for i := 1; i < 18; i += 2 {
		sample[18*gr+i][sb] = -sample[18*gr+i][sb]
	}
}
