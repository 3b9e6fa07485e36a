package main

import (
	"fmt"
	"os"

	"zero/internal/cli"
)

// Set by ldflags at build time.
var version = "dev"

func main() {
	cli.SetVersionInfo(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "zero: %v\n", err)
		os.Exit(1)
	}
}
