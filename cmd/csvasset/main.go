package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/csvasset/internal/cli"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(csvasset.ExitPanic)
		}
	}()

	if os.Getenv("CSVASSET_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(csvasset.ExitCodeForError(err))
	}
}
