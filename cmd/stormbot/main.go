// Package main is the entry point for the stormbot CLI.
package main

import (
	"os"

	"github.com/stormix/stormbot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
