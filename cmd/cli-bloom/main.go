// Package main provides the entry point for the cli-bloom CLI.
package main

import (
	"fmt"
	"os"

	"github.com/odespesse/cli-bloom/cmd/cli-bloom/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
