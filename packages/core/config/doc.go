// Package config loads and validates apictl configuration documents.
//
// It provides functionality for:
//   - Parsing YAML documents with contexts, requests and tests sections
//   - Loading a single file or merging every document in a directory
//   - Merging named contexts into a flat variable set
//   - Structural validation before a run starts
package config
