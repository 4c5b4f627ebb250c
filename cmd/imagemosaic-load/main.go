package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/asc1/imagemosaic-load/internal/cli"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(mosaic.ExitPanic)
		}
	}()

	if os.Getenv("IMAGEMOSAIC_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(mosaic.ExitCodeForError(err))
	}
}
