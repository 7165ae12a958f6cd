// Package output renders configuration listings and test results.
//
// Supported renderings:
//   - Lists: table, tsv and yaml views of requests, contexts and tests
//   - Console: human-readable colored result trees
//   - JSON: machine-readable result document
//
// The console and JSON formatters consume runner result values; the
// runner itself never prints.
package output
