package cli

import (
	"os"

	"golang.org/x/term"
)

// IsNonInteractive reports whether the terminal player must not be used.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("STORYTELLER_NON_INTERACTIVE"); ok {
		return true
	}
	return !hasTTY()
}

// IsInteractive reports whether the session can run the terminal player.
func IsInteractive() bool {
	return !IsNonInteractive()
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
