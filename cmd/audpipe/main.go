// SPDX-License-Identifier: EPL-2.0

// Command audpipe probes, decodes and renders audio files.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
