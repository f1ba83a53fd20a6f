// Package main provides rlzbuild, the CLI for building and inspecting
// RLZ compressed text indexes over a collection directory.
package main

import (
	"os"

	"github.com/rlzstore/rlzstore/internal/cli"
)

func main() {
	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args)

	os.Exit(exitCode)
}
