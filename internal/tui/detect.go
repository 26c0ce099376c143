package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode is whether a human is driving the terminal.
type Mode int

const (
	ModeNonInteractive Mode = iota
	ModeInteractive
)

// EnvNonInteractive forces non-interactive mode when set to "1".
const EnvNonInteractive = "CSVASSET_NON_INTERACTIVE"

// DetectMode reports ModeNonInteractive when CSVASSET_NON_INTERACTIVE=1,
// CI or NO_COLOR is set, or stdin or stdout is not a terminal.
func DetectMode() Mode {
	if os.Getenv(EnvNonInteractive) == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
