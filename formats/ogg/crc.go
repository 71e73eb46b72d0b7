// SPDX-License-Identifier: EPL-2.0

package ogg

// crcTable is the MSB-first CRC-32 of polynomial 0x04c11db7 used by Ogg.
var crcTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}

	return t
}()

func crcUpdate(crc uint32, b []byte) uint32 {
	for _, v := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^v]
	}

	return crc
}

// pageCRC computes the checksum of page with its CRC field taken as zero.
func pageCRC(page []byte) uint32 {
	crc := crcUpdate(0, page[:crcOffset])
	crc = crcUpdate(crc, []byte{0, 0, 0, 0})

	return crcUpdate(crc, page[crcOffset+4:])
}
