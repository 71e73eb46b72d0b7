// SPDX-License-Identifier: EPL-2.0

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/graph"
)

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <input> <output.wav>",
		Short: "Play an audio file through a gain stage into a WAV file",
		Long: `render plays the input through an audio graph: the file source, resampled
to the render rate, feeds a gain node that feeds the destination. The
output holds whole render blocks, so its tail is padded with silence.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.render(args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.Int("sample-rate", 0, "render rate in Hz, 0 keeps the input rate")
	flags.Float64("gain", 1, "linear gain")
	flags.Duration("fade-in", 0, "ramp the gain up from silence over this long")
	flags.Int("block-size", graph.DefaultBlockSize, "frames rendered per tick")

	_ = a.v.BindPFlag("render.sample_rate", flags.Lookup("sample-rate"))
	_ = a.v.BindPFlag("render.gain", flags.Lookup("gain"))
	_ = a.v.BindPFlag("render.fade_in", flags.Lookup("fade-in"))
	_ = a.v.BindPFlag("render.block_size", flags.Lookup("block-size"))

	return cmd
}

func (a *app) render(in, out string) error {
	asset, err := a.open(in)
	if err != nil {
		return err
	}
	defer asset.Close()

	rate := a.v.GetInt("render.sample_rate")
	if rate == 0 {
		rate = asset.SampleRate()
	}
	block := a.v.GetInt("render.block_size")
	channels := asset.Channels()

	ctx := graph.NewContext(
		graph.WithSampleRate(rate),
		graph.WithBlockSize(block),
		graph.WithChannels(channels),
	)
	src := graph.NewSourceNode(ctx, asset)
	gain := graph.NewGainNode(ctx)

	level := a.v.GetFloat64("render.gain")
	if fade := a.v.GetDuration("render.fade_in"); fade > 0 {
		_ = gain.Gain.SetValueAtTime(0, 0)
		if err := gain.Gain.LinearRampToValueAtTime(level, fade.Seconds()); err != nil {
			return err
		}
	} else {
		gain.Gain.SetValue(level)
	}

	if err := src.Connect(gain, 0, 0); err != nil {
		return err
	}
	if err := gain.Connect(ctx.Destination(), 0, 0); err != nil {
		return err
	}
	a.log.Info("rendering", "rate", rate, "block", block, "channels", channels, "gain", level)

	err = writeWAV(out, rate, channels, a.v.GetInt("output.bit_depth"), func(w *wav.Writer) error {
		buf := make([]float32, block*channels)
		for !src.Ended() {
			n := ctx.Render(buf)
			if err := w.WriteFloat32(buf[:n]); err != nil {
				return err
			}
		}

		return src.Err()
	})
	if err != nil {
		return err
	}
	a.log.Info("rendered", "frames", ctx.CurrentFrame(), "seconds", time.Duration(ctx.CurrentTime()*float64(time.Second)))

	return nil
}
