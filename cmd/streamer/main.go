// Package main provides the streamer CLI tool.
//
// Usage:
//
//	streamer [flags] <command> [args]
//
// Commands:
//
//	config   - Profile management
//	index    - Inspect the asset index of a character
//	resolve  - Resolve logical layer paths or keywords to files
//	compose  - Compose a single frame
//	run      - Run the frame render loop
//
// Configuration:
//
//	The CLI stores configuration in ~/.rtmp-streamer/streamer/
//	Use 'streamer config' commands to manage profiles.
package main

import (
	"fmt"
	"os"

	"github.com/youzoom64/RTMP-streamer/cmd/streamer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
