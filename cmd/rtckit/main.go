// Package main is the entry point for the rtckit CLI.
//
// Usage:
//
//	rtckit [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config     - Configuration management (contexts)
//	connect    - Open an interactive realtime session
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/rtckit/cmd/rtckit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
