// Package logging provides the mosaic.Logger implementations used by the CLI.
//
//   - ConsoleLogger: zerolog-backed, human-readable console output or JSON lines
//   - NullLogger: discards everything (tests, library use)
//
// All implementations are safe for concurrent use by multiple goroutines.
package logging
