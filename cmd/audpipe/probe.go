// SPDX-License-Identifier: EPL-2.0

package main

import (
	"os"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/vorbis"
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>...",
		Short: "Print the container, codec and tags of audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				info, err := a.probe(path)
				if err != nil {
					return err
				}
				if err := probeTmpl.Execute(cmd.OutOrStdout(), info); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

type probeInfo struct {
	Path      string
	Container string
	Format    audio.Format
	Duration  time.Duration
	Metadata  audio.Metadata
}

var probeTmpl = template.Must(template.New("probe").Parse(
	`{{.Path}}
	container:    {{.Container}}
	codec:        {{.Format.FormatID}}
	sample rate:  {{.Format.SampleRate}} Hz
	channels:     {{.Format.ChannelsPerFrame}}
	{{if .Format.BitsPerChannel}}bits:         {{.Format.BitsPerChannel}}
	{{end}}{{if .Format.Bitrate}}bitrate:      {{.Format.Bitrate}} bit/s
	{{end}}duration:     {{if .Duration}}{{.Duration}}{{else}}unknown{{end}}
{{range $k, $v := .Metadata}}	{{$k}}: {{$v}}
{{end}}`,
))

func (a *app) probe(path string) (*probeInfo, error) {
	asset, err := a.open(path)
	if err != nil {
		return nil, err
	}
	defer asset.Close()

	info := &probeInfo{
		Path:      path,
		Container: asset.Container(),
		Format:    asset.Format(),
		Duration:  asset.Duration(),
		Metadata:  asset.Metadata(),
	}

	// Ogg only states its length on the last page.
	if info.Duration == 0 && info.Format.FormatID == vorbis.FormatID {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if d, err := vorbis.Length(f); err == nil {
			info.Duration = d.Round(time.Millisecond)
		} else {
			a.log.Debug("vorbis length", "file", path, "err", err)
		}
	}

	return info, nil
}
