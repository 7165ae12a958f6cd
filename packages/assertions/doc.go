// Package assertions evaluates response checks for apictl test steps.
//
// It supports status code, header and body field assertions plus JSON Schema
// validation. Body fields are addressed with dot paths where numeric segments
// index arrays, and compared by their string representation.
package assertions
