// Package discovery expands granule glob patterns into file paths.
//
// Patterns are walked lazily with doublestar, in the order given, and each
// match is handed to the load queue as soon as it is found. A pattern with no
// glob metacharacters is passed through verbatim so that a missing file is
// reported by the worker that validates it rather than silently dropped.
package discovery
