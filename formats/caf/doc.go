// SPDX-License-Identifier: EPL-2.0

// Package caf demuxes Apple Core Audio Format files.
//
// The desc chunk gives the format, kuki the codec cookie, pakt the packet
// table used for durations and seeking of variable sized packets, and info
// the textual metadata. A data chunk of size -1 runs to the end of the input.
package caf
