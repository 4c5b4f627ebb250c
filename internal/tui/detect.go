package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for a load.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, cron jobs and redirected output.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is watching the terminal.
	ModeInteractive
)

// DetectMode determines whether a live progress display may be drawn.
//
// Returns ModeNonInteractive if:
//   - stderr is not a terminal (logs are redirected or captured)
//   - IMAGEMOSAIC_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//
// Returns ModeInteractive otherwise.
func DetectMode() Mode {
	if os.Getenv("IMAGEMOSAIC_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	// The display renders on stderr, next to the logs
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
