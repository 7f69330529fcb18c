// Package main provides the Artifice command line.
package main

import (
	"os"

	"github.com/veetance/artifice/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
