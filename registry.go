// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/aiff"
	"github.com/ik5/audpipe/formats/au"
	"github.com/ik5/audpipe/formats/caf"
	"github.com/ik5/audpipe/formats/lpcm"
	"github.com/ik5/audpipe/formats/m4a"
	"github.com/ik5/audpipe/formats/mp3"
	"github.com/ik5/audpipe/formats/ogg"
	"github.com/ik5/audpipe/formats/vorbis"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/formats/xlaw"
)

// DefaultRegistry returns a new registry holding every container and
// codec of the module. Containers whose probes are stricter come first.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()

	r.RegisterContainer(audio.Container{Name: "caf", Probe: caf.Probe, New: caf.NewDemuxer})
	r.RegisterContainer(audio.Container{Name: "m4a", Probe: m4a.Probe, New: m4a.NewDemuxer})
	r.RegisterContainer(audio.Container{Name: "aiff", Probe: aiff.Probe, New: aiff.NewDemuxer})
	r.RegisterContainer(audio.Container{Name: "wave", Probe: wav.Probe, New: wav.NewDemuxer})
	r.RegisterContainer(audio.Container{Name: "au", Probe: au.Probe, New: au.NewDemuxer})
	r.RegisterContainer(audio.Container{Name: "mp3", Probe: mp3.Probe, New: mp3.NewDemuxer})
	r.RegisterContainer(audio.Container{Name: "ogg", Probe: ogg.Probe, New: ogg.NewDemuxer})

	r.RegisterCodec(lpcm.FormatID, lpcm.NewDecoder)
	r.RegisterCodec(xlaw.ULaw, xlaw.NewDecoder)
	r.RegisterCodec(xlaw.ALaw, xlaw.NewDecoder)
	r.RegisterCodec(mp3.FormatID, mp3.NewDecoder)
	r.RegisterCodec(vorbis.FormatID, vorbis.NewDecoder)

	return r
}
