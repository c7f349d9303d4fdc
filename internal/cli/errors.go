package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// PreflightError explains why a command cannot run and what to do instead.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
	Err      error
}

func (e *PreflightError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PreflightError) Unwrap() error {
	return e.Err
}

func formatError(err error) string {
	var preflight *PreflightError
	if !errors.As(err, &preflight) {
		return colorize("Error: ", colorRed) + err.Error()
	}

	var b strings.Builder
	b.WriteString(colorize("Error: ", colorRed))
	b.WriteString(preflight.Error())
	if preflight.Hint != "" {
		b.WriteString("\n  Hint: " + preflight.Hint)
	}
	if preflight.NextStep != "" {
		b.WriteString("\n  Try:  " + preflight.NextStep)
	}
	return b.String()
}

func printError(err error) {
	if IsJSONOutput() || IsJSONLOutput() {
		_ = WriteOutput(os.Stderr, map[string]string{"error": err.Error()})
		return
	}
	fmt.Fprintln(os.Stderr, formatError(err))
}
