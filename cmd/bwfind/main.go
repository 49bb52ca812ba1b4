// Package main provides the entry point for the bwfind CLI.
package main

import (
	"os"

	"github.com/audio-forge-rs/find-all-bitwig/cmd/bwfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
