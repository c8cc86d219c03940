// Package main is the entry point for the tln CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/talon/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
