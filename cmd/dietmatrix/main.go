// Package main provides the entry point for the dietmatrix CLI tool.
package main

import (
	"github.com/pelagiclab/dietmatrix/cmd/dietmatrix/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
