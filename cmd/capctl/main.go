// Package main is the entry point for the capplane CLI.
// The CLI is the operator terminal tool for interacting with the orchestrator API.
package main

import (
	"os"

	"capplane/cmd/capctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
