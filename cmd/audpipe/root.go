// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ik5/audpipe"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "audpipe",
		Short: "Probe, decode and render audio files",
		Long: `audpipe reads WAV, AIFF, AU, CAF, M4A, MP3 and Ogg Vorbis files.

Settings are read from flags, from AUDPIPE_* environment variables
(AUDPIPE_RENDER_GAIN for render.gain) and from $HOME/.audpipe.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.audpipe.yaml)")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Int("chunk-size", audpipe.DefaultChunkSize, "bytes read from the input at a time")
	flags.Int("bit-depth", 16, "bit depth of written WAV files: 16, 24 or 32")

	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("input.chunk_size", flags.Lookup("chunk-size"))
	_ = a.v.BindPFlag("output.bit_depth", flags.Lookup("bit-depth"))

	root.AddCommand(newProbeCmd(a), newDecodeCmd(a), newRenderCmd(a), newVersionCmd())

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v := a.v
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".audpipe")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("AUDPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	readErr := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if readErr != nil && (a.cfgFile != "" || !errors.As(readErr, &notFound)) {
		return fmt.Errorf("read config: %w", readErr)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return &paramError{param: "log.level", msg: "allowed values are debug, info, warn, error"}
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if readErr == nil {
		a.log.Info("using config file", "file", v.ConfigFileUsed())
	}

	return checkParameters(v)
}

// open opens path as an Asset. Closing the Asset closes the file.
func (a *app) open(path string) (*audpipe.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	asset, err := audpipe.Open(f,
		audpipe.WithChunkSize(a.v.GetInt("input.chunk_size")),
		audpipe.WithLogger(a.log),
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return asset, nil
}
