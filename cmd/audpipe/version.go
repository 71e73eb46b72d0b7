// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commitHash=...".
var (
	version    = "dev"
	commitHash = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of audpipe",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "audpipe Version: %s, %s/%s, %s, Commit: %s\n",
				version, runtime.GOOS, runtime.GOARCH, runtime.Version(), commitHash)
		},
	}
}
