// SPDX-License-Identifier: EPL-2.0

package mp3

// Scalefactor band widths of ISO/IEC 11172-3 Table B.8 and ISO/IEC 13818-3
// Table B.2, per sample rate. Short and mixed tables list each band three
// times, once per window.
var (
	sfb48000Long = []int{
		4, 4, 4, 4, 4, 4, 6, 6, 6, 8, 10, 12, 16, 18, 22, 28,
		34, 40, 46, 54, 54, 192,
	}
	sfb44100Long = []int{
		4, 4, 4, 4, 4, 4, 6, 6, 8, 8, 10, 12, 16, 20, 24, 28,
		34, 42, 50, 54, 76, 158,
	}
	sfb32000Long = []int{
		4, 4, 4, 4, 4, 4, 6, 6, 8, 10, 12, 16, 20, 24, 30, 38,
		46, 56, 68, 84, 102, 26,
	}
	sfb24000Long = []int{
		6, 6, 6, 6, 6, 6, 8, 10, 12, 14, 16, 18, 22, 26, 32, 38,
		46, 54, 62, 70, 76, 36,
	}
	sfb22050Long = []int{
		6, 6, 6, 6, 6, 6, 8, 10, 12, 14, 16, 20, 24, 28, 32, 38,
		46, 52, 60, 68, 58, 54,
	}
	sfb8000Long = []int{
		12, 12, 12, 12, 12, 12, 16, 20, 24, 28, 32, 40, 48, 56, 64, 76,
		90, 2, 2, 2, 2, 2,
	}
	sfb48000Short = []int{
		4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 6, 6, 6, 6,
		6, 6, 10, 10, 10, 12, 12, 12, 14, 14, 14, 16, 16, 16, 20, 20,
		20, 26, 26, 26, 66, 66, 66,
	}
	sfb44100Short = []int{
		4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 6, 6, 6, 8,
		8, 8, 10, 10, 10, 12, 12, 12, 14, 14, 14, 18, 18, 18, 22, 22,
		22, 30, 30, 30, 56, 56, 56,
	}
	sfb32000Short = []int{
		4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 6, 6, 6, 8,
		8, 8, 12, 12, 12, 16, 16, 16, 20, 20, 20, 26, 26, 26, 34, 34,
		34, 42, 42, 42, 12, 12, 12,
	}
	sfb24000Short = []int{
		4, 4, 4, 4, 4, 4, 4, 4, 4, 6, 6, 6, 8, 8, 8, 10,
		10, 10, 12, 12, 12, 14, 14, 14, 18, 18, 18, 24, 24, 24, 32, 32,
		32, 44, 44, 44, 12, 12, 12,
	}
	sfb22050Short = []int{
		4, 4, 4, 4, 4, 4, 4, 4, 4, 6, 6, 6, 6, 6, 6, 8,
		8, 8, 10, 10, 10, 14, 14, 14, 18, 18, 18, 26, 26, 26, 32, 32,
		32, 42, 42, 42, 18, 18, 18,
	}
	sfb16000Short = []int{
		4, 4, 4, 4, 4, 4, 4, 4, 4, 6, 6, 6, 8, 8, 8, 10,
		10, 10, 12, 12, 12, 14, 14, 14, 18, 18, 18, 24, 24, 24, 30, 30,
		30, 40, 40, 40, 18, 18, 18,
	}
	sfb8000Short = []int{
		8, 8, 8, 8, 8, 8, 8, 8, 8, 12, 12, 12, 16, 16, 16, 20,
		20, 20, 24, 24, 24, 28, 28, 28, 36, 36, 36, 2, 2, 2, 2, 2,
		2, 2, 2, 2, 26, 26, 26,
	}
	sfb48000Mixed = []int{
		4, 4, 4, 4, 4, 4, 6, 6, 4, 4, 4, 6, 6, 6, 6, 6,
		6, 10, 10, 10, 12, 12, 12, 14, 14, 14, 16, 16, 16, 20, 20, 20,
		26, 26, 26, 66, 66, 66,
	}
	sfb44100Mixed = []int{
		4, 4, 4, 4, 4, 4, 6, 6, 4, 4, 4, 6, 6, 6, 8, 8,
		8, 10, 10, 10, 12, 12, 12, 14, 14, 14, 18, 18, 18, 22, 22, 22,
		30, 30, 30, 56, 56, 56,
	}
	sfb32000Mixed = []int{
		4, 4, 4, 4, 4, 4, 6, 6, 4, 4, 4, 6, 6, 6, 8, 8,
		8, 12, 12, 12, 16, 16, 16, 20, 20, 20, 26, 26, 26, 34, 34, 34,
		42, 42, 42, 12, 12, 12,
	}
	sfb24000Mixed = []int{
		6, 6, 6, 6, 6, 6, 6, 6, 6, 8, 8, 8, 10, 10, 10, 12,
		12, 12, 14, 14, 14, 18, 18, 18, 24, 24, 24, 32, 32, 32, 44, 44,
		44, 12, 12, 12,
	}
	sfb22050Mixed = []int{
		6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 8, 8, 8, 10,
		10, 10, 14, 14, 14, 18, 18, 18, 26, 26, 26, 32, 32, 32, 42, 42,
		42, 18, 18, 18,
	}
	sfb16000Mixed = []int{
		6, 6, 6, 6, 6, 6, 6, 6, 6, 8, 8, 8, 10, 10, 10, 12,
		12, 12, 14, 14, 14, 18, 18, 18, 24, 24, 24, 30, 30, 30, 40, 40,
		40, 18, 18, 18,
	}
	sfb8000Mixed = []int{
		12, 12, 12, 4, 4, 4, 8, 8, 8, 12, 12, 12, 16, 16, 16, 20,
		20, 20, 24, 24, 24, 28, 28, 28, 36, 36, 36, 2, 2, 2, 2, 2,
		2, 2, 2, 2, 26, 26, 26,
	}
)

type sfbWidths struct {
	long, short, mixed []int
}

// sfbTable is indexed by sampleRateIndex.
var sfbTable = [9]sfbWidths{
	{sfb48000Long, sfb48000Short, sfb48000Mixed}, // 48000
	{sfb44100Long, sfb44100Short, sfb44100Mixed}, // 44100
	{sfb32000Long, sfb32000Short, sfb32000Mixed}, // 32000
	{sfb24000Long, sfb24000Short, sfb24000Mixed}, // 24000
	{sfb22050Long, sfb22050Short, sfb22050Mixed}, // 22050
	{sfb22050Long, sfb16000Short, sfb16000Mixed}, // 16000
	{sfb22050Long, sfb16000Short, sfb16000Mixed}, // 11025
	{sfb22050Long, sfb16000Short, sfb16000Mixed}, // 12000
	{sfb8000Long, sfb8000Short, sfb8000Mixed},    // 8000
}

// synthesisWindow is the D window of ISO/IEC 11172-3 Table 3-B.3, in
// multiples of 2^-15.
var synthesisWindow = [512]float32{
	0.0, -0.5, -0.5, -0.5, -0.5, -0.5, -0.5, -1.0,
	-1.0, -1.0, -1.0, -1.5, -1.5, -2.0, -2.0, -2.5,
	-2.5, -3.0, -3.5, -3.5, -4.0, -4.5, -5.0, -5.5,
	-6.5, -7.0, -8.0, -8.5, -9.5, -10.5, -12.0, -13.0,
	-14.5, -15.5, -17.5, -19.0, -20.5, -22.5, -24.5, -26.5,
	-29.0, -31.5, -34.0, -36.5, -39.5, -42.5, -45.5, -48.5,
	-52.0, -55.5, -58.5, -62.5, -66.0, -69.5, -73.5, -77.0,
	-80.5, -84.5, -88.0, -91.5, -95.0, -98.0, -101.0, -104.0,
	106.5, 109.0, 111.0, 112.5, 113.5, 114.0, 114.0, 113.5,
	112.0, 110.5, 107.5, 104.0, 100.0, 94.5, 88.5, 81.5,
	73.0, 63.5, 53.0, 41.5, 28.5, 14.5, -1.0, -18.0,
	-36.0, -55.5, -76.5, -98.5, -122.0, -147.0, -173.5, -200.5,
	-229.5, -259.5, -290.5, -322.5, -355.5, -389.5, -424.0, -459.5,
	-495.5, -532.0, -568.5, -605.0, -641.5, -678.0, -714.0, -749.0,
	-783.5, -817.0, -849.0, -879.5, -908.5, -935.0, -959.5, -981.0,
	-1000.5, -1016.0, -1028.5, -1037.5, -1042.5, -1043.5, -1040.0, -1031.5,
	1018.5, 1000.0, 976.0, 946.5, 911.0, 869.5, 822.0, 767.5,
	707.0, 640.0, 565.5, 485.0, 397.0, 302.5, 201.0, 92.5,
	-22.5, -144.0, -272.5, -407.0, -547.5, -694.0, -846.0, -1003.0,
	-1165.0, -1331.5, -1502.0, -1675.5, -1852.5, -2031.5, -2212.5, -2394.0,
	-2576.5, -2758.5, -2939.5, -3118.5, -3294.5, -3467.5, -3635.5, -3798.5,
	-3955.0, -4104.5, -4245.5, -4377.5, -4499.0, -4609.5, -4708.0, -4792.5,
	-4863.5, -4919.0, -4958.0, -4979.5, -4983.0, -4967.5, -4931.5, -4875.0,
	-4796.0, -4694.5, -4569.5, -4420.0, -4246.0, -4046.0, -3820.0, -3567.0,
	3287.0, 2979.5, 2644.0, 2280.5, 1888.0, 1467.5, 1018.5, 541.0,
	35.0, -499.0, -1061.0, -1650.0, -2266.5, -2909.0, -3577.0, -4270.0,
	-4987.5, -5727.5, -6490.0, -7274.0, -8077.5, -8899.5, -9739.0, -10594.5,
	-11464.5, -12347.0, -13241.0, -14144.5, -15056.0, -15973.5, -16895.5, -17820.0,
	-18744.5, -19668.0, -20588.0, -21503.0, -22410.5, -23308.5, -24195.0, -25068.5,
	-25926.5, -26767.0, -27589.0, -28389.0, -29166.5, -29919.0, -30644.5, -31342.0,
	-32009.5, -32645.0, -33247.0, -33814.5, -34346.0, -34839.5, -35295.0, -35710.0,
	-36084.5, -36417.5, -36707.5, -36954.0, -37156.5, -37315.0, -37428.0, -37496.0,
	37519.0, 37496.0, 37428.0, 37315.0, 37156.5, 36954.0, 36707.5, 36417.5,
	36084.5, 35710.0, 35295.0, 34839.5, 34346.0, 33814.5, 33247.0, 32645.0,
	32009.5, 31342.0, 30644.5, 29919.0, 29166.5, 28389.0, 27589.0, 26767.0,
	25926.5, 25068.5, 24195.0, 23308.5, 22410.5, 21503.0, 20588.0, 19668.0,
	18744.5, 17820.0, 16895.5, 15973.5, 15056.0, 14144.5, 13241.0, 12347.0,
	11464.5, 10594.5, 9739.0, 8899.5, 8077.5, 7274.0, 6490.0, 5727.5,
	4987.5, 4270.0, 3577.0, 2909.0, 2266.5, 1650.0, 1061.0, 499.0,
	-35.0, -541.0, -1018.5, -1467.5, -1888.0, -2280.5, -2644.0, -2979.5,
	3287.0, 3567.0, 3820.0, 4046.0, 4246.0, 4420.0, 4569.5, 4694.5,
	4796.0, 4875.0, 4931.5, 4967.5, 4983.0, 4979.5, 4958.0, 4919.0,
	4863.5, 4792.5, 4708.0, 4609.5, 4499.0, 4377.5, 4245.5, 4104.5,
	3955.0, 3798.5, 3635.5, 3467.5, 3294.5, 3118.5, 2939.5, 2758.5,
	2576.5, 2394.0, 2212.5, 2031.5, 1852.5, 1675.5, 1502.0, 1331.5,
	1165.0, 1003.0, 846.0, 694.0, 547.5, 407.0, 272.5, 144.0,
	22.5, -92.5, -201.0, -302.5, -397.0, -485.0, -565.5, -640.0,
	-707.0, -767.5, -822.0, -869.5, -911.0, -946.5, -976.0, -1000.0,
	1018.5, 1031.5, 1040.0, 1043.5, 1042.5, 1037.5, 1028.5, 1016.0,
	1000.5, 981.0, 959.5, 935.0, 908.5, 879.5, 849.0, 817.0,
	783.5, 749.0, 714.0, 678.0, 641.5, 605.0, 568.5, 532.0,
	495.5, 459.5, 424.0, 389.5, 355.5, 322.5, 290.5, 259.5,
	229.5, 200.5, 173.5, 147.0, 122.0, 98.5, 76.5, 55.5,
	36.0, 18.0, 1.0, -14.5, -28.5, -41.5, -53.0, -63.5,
	-73.0, -81.5, -88.5, -94.5, -100.0, -104.0, -107.5, -110.5,
	-112.0, -113.5, -114.0, -114.0, -113.5, -112.5, -111.0, -109.0,
	106.5, 104.0, 101.0, 98.0, 95.0, 91.5, 88.0, 84.5,
	80.5, 77.0, 73.5, 69.5, 66.0, 62.5, 58.5, 55.5,
	52.0, 48.5, 45.5, 42.5, 39.5, 36.5, 34.0, 31.5,
	29.0, 26.5, 24.5, 22.5, 20.5, 19.0, 17.5, 15.5,
	14.5, 13.0, 12.0, 10.5, 9.5, 8.5, 8.0, 7.0,
	6.5, 5.5, 5.0, 4.5, 4.0, 3.5, 3.5, 3.0,
	2.5, 2.5, 2.0, 2.0, 1.5, 1.5, 1.0, 1.0,
	1.0, 1.0, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5,
}
