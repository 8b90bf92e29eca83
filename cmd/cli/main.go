// Package main is the entry point for the lease-analyzer CLI.
package main

import (
	"os"

	"lease-analyzer/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
