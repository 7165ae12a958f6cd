// Package http provides HTTP client functionality for apictl execution.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, redirects and proxies
//   - Request building from configuration with template resolution
//   - Payload rendering for raw, form and multipart bodies
//   - Response handling with case-insensitive header lookup
package http
