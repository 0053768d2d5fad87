// Package main provides the entry point for the oale CLI.
package main

import (
	"os"

	"github.com/openauslaw/oale/cmd/oale/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
