// Package cli provides the configuration and terminal helpers of the
// streamer command.
//
// This package includes:
//   - Configuration management (named animator profiles)
//   - Output formatting (JSON, YAML, raw)
//   - Styled messages and status panels (lipgloss)
//   - Human readable sizes, counts and durations
//
// Configuration is stored in ~/.rtmp-streamer/<app>/config.yaml:
//
//	current_profile: zunda
//	profiles:
//	  zunda:
//	    asset_root: assets/zundamon
//	    output_dir: /tmp/frames
//	    fps: 30
//	    mode: layered
//
// Relative paths in a profile are resolved against the config directory.
package cli
