// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

func clampUnit(x float32) float32 { return min(max(x, -1), 1) }

// Float32ToInt16 scales x to 16-bit PCM. Values outside [-1,1] are clamped
// and the result is truncated toward zero.
func Float32ToInt16(x float32) int16 {
	return int16(clampUnit(x) * math.MaxInt16)
}

// Float32ToInt scales x into a signed integer of the given bit depth, the
// same way.
func Float32ToInt(x float32, bits int) int {
	full := float64(int64(1)<<(bits-1) - 1)

	return int(float64(clampUnit(x)) * full)
}
