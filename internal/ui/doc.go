// Package ui provides the terminal interface for cattlelens.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model owns a navigation stack of screens
// and routes keys to the screen on top:
//
//   - Home: image path input, the canned samples and recent classifications
//   - Result: predicted breed, ranked confidence bars and detail rows
//   - Live: repeated /detect captures from a frame source file
//   - Diagnostics: per-endpoint probe results, health check and the log tail
//
// Blocking work (classify, detect, health checks, history and log reads) runs
// in tea.Cmds that report back through messages defined in commands.go. The
// connectivity poller in package app writes to state.Store; the UI only
// reads snapshots from it on each tick.
//
// # Key Bindings
//
//   - / or i: Edit the path input on Home and Live
//   - 1-3: Open a sample result
//   - l: Live detection
//   - d: Diagnostics
//   - space: Capture a frame (Live)
//   - r: Check health (Diagnostics)
//   - T: Cycle theme
//   - esc: Back
//   - q or Ctrl+C: Quit
package ui
