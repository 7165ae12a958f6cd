// Package runner executes tests and standalone requests from a loaded
// configuration.
//
// It provides functionality for:
//   - Running a test's steps strictly in declaration order
//   - Chaining responses between steps through a run-scoped store
//   - Collecting assertion and SQL assertion results per step
//   - Executing ad-hoc request lists with the same chaining rules
//
// Each run owns its response store and resolver, so independent runs
// may execute concurrently while a single run stays sequential.
package runner
