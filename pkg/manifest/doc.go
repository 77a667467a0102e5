// Package manifest models the declarative questions documents that dynamic
// flows are generated from.
//
// Documents are JSON (or YAML with the same shape), validated against an
// embedded JSON Schema before decoding. Any failure is returned as a
// *ParseError so that callers can disable the affected flow type without
// stopping the process.
package manifest
