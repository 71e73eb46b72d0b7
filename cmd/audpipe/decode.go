// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audpipe"
	"github.com/ik5/audpipe/formats/wav"
)

func newDecodeCmd(a *app) *cobra.Command {
	var start time.Duration

	cmd := &cobra.Command{
		Use:   "decode <input> <output.wav>",
		Short: "Decode an audio file into a PCM WAV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.decode(args[0], args[1], start)
		},
	}
	cmd.Flags().DurationVar(&start, "start", 0, "position to start decoding at")

	return cmd
}

func (a *app) decode(in, out string, start time.Duration) error {
	asset, err := a.open(in)
	if err != nil {
		return err
	}
	defer asset.Close()

	if start > 0 {
		at, err := asset.Seek(start)
		if err != nil {
			return err
		}
		a.log.Info("seeked", "requested", start, "at", at)
	}

	return writeWAV(out, asset.SampleRate(), asset.Channels(), a.v.GetInt("output.bit_depth"), func(w *wav.Writer) error {
		return copySamples(w, asset)
	})
}

func copySamples(w *wav.Writer, asset *audpipe.Asset) error {
	buf := make([]float32, asset.BufSize())
	for {
		n, err := asset.ReadSamples(buf)
		if n > 0 {
			if werr := w.WriteFloat32(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// writeWAV creates path and hands fn a writer for it. The header is
// finalized even when fn fails.
func writeWAV(path string, rate, channels, bitDepth int, fn func(*wav.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w, err := wav.NewWriter(f, rate, channels, bitDepth)
	if err != nil {
		return errors.Join(err, f.Close())
	}

	err = fn(w)
	if cerr := w.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("finalize %s: %w", path, cerr))
	}

	return errors.Join(err, f.Close())
}
