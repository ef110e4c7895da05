// Package main provides the entry point for the solarsync CLI tool.
package main

import "github.com/alexatafm/solar-hub-sync/cmd/solarsync/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
