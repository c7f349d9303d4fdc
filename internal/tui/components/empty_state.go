package components

import (
	"fmt"

	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

// EmptyState is a one-line notice shown when there is nothing to list.
type EmptyState struct {
	Icon  string
	Title string
	// Try is a command that would produce something to show.
	Try string
}

// Render renders the notice on a single line.
func (e EmptyState) Render(styleSet styles.Styles) string {
	line := e.Title
	if e.Icon != "" {
		line = e.Icon + " " + line
	}
	if e.Try != "" {
		line += fmt.Sprintf(" Try: %s", e.Try)
	}
	return styleSet.Muted.Render(line)
}

// EmptyLineSet is shown after a run that had no story lines.
func EmptyLineSet(phase models.Phase, lang models.Language) EmptyState {
	return EmptyState{
		Icon:  "📜",
		Title: fmt.Sprintf("No story lines for %s/%s.", phase, lang),
		Try:   "storyteller scripts",
	}
}

// EmptyHistory is shown when no runs are logged.
func EmptyHistory() EmptyState {
	return EmptyState{
		Icon:  "📋",
		Title: "No runs logged yet.",
		Try:   "storyteller play",
	}
}

// EmptyScripts is shown when no line sets resolve.
func EmptyScripts() EmptyState {
	return EmptyState{
		Icon:  "🔍",
		Title: "No line sets found.",
		Try:   "storyteller scripts --dir <path>",
	}
}
