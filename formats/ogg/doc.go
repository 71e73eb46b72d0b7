// SPDX-License-Identifier: EPL-2.0

// Package ogg demuxes Ogg bitstreams (RFC 3533) into codec packets.
//
// Pages are checked against their CRC; damaged pages are skipped and the
// demuxer resynchronizes on the next capture pattern. Only the first
// logical stream is followed; pages of other serial numbers, including
// chained streams, are ignored.
//
// Every packet is emitted as one Data event, so a decoder that reads its
// input with stream.Stream.ReadSingleBuffer sees the packet boundaries. The
// codec header packets are emitted too. Vorbis and Opus streams are
// recognized by their identification header; their comment header becomes
// Metadata and the granule position of the last page becomes the Duration.
// Each page that ends a packet after the headers adds a seek point.
package ogg
