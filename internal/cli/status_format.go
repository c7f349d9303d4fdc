package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/survivalburger/storyteller/internal/models"
)

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

func colorEnabled() bool {
	if noColor || IsJSONOutput() || IsJSONLOutput() {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func colorize(text, color string) string {
	if color == "" || !colorEnabled() {
		return text
	}
	return color + text + colorReset
}

func formatRunOutcome(record *models.RunRecord) string {
	label, color := outcomeLabel(record)
	status := "completed"
	if record.Skipped {
		status = "skipped"
	}
	return colorize(formatStatusLabel(label, status), color)
}

func outcomeLabel(record *models.RunRecord) (string, string) {
	switch {
	case record.LinesTotal == 0:
		return "EMPTY", colorMagenta
	case record.Skipped:
		return "SKIP", colorYellow
	default:
		return "OK", colorGreen
	}
}

func formatPhase(phase models.Phase) string {
	switch phase {
	case models.PhaseStart:
		return colorize(string(phase), colorCyan)
	default:
		return colorize(string(phase), colorMagenta)
	}
}

func formatStatusLabel(label, status string) string {
	normalized := strings.TrimSpace(status)
	if normalized != "" {
		normalized = strings.ReplaceAll(normalized, "_", " ")
	}
	if normalized == "" {
		return label
	}
	return fmt.Sprintf("%s %s", label, normalized)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	if d < time.Second {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
