// Package cmd implements the apictl CLI commands using Cobra.
//
// Available commands:
//   - requests: List configured requests or run them ad hoc
//   - contexts: List configured contexts
//   - tests: List, describe, or run configured tests
//   - benchmark: Send requests repeatedly and report latency statistics
//   - validate: Check the configuration without sending anything
//   - init: Create a starter configuration file
//   - version: Show apictl version information
//
// The CLI supports context selection, inline variable overrides, several
// output formats, and watch mode for development workflows.
package cmd
