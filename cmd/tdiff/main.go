// Package main provides the tdiff command.
package main

import (
	"os"

	"github.com/leapstack-labs/tdiff/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
