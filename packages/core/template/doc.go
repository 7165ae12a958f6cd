// Package template resolves ${...} placeholders in configuration strings.
//
// It provides functionality for:
//   - Context variable substitution using ${name} syntax
//   - Response field references using ${response.<request>.<path>}
//   - Strict resolution, failing on any unknown placeholder
package template
