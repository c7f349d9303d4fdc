package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

// QuickAction represents a keyboard-triggered action.
type QuickAction struct {
	Key     string // Keyboard key (e.g., "enter", "s")
	Label   string // Display label (e.g., "Continue", "Skip")
	Enabled bool   // Whether the action is available
}

// RenderQuickActionBar renders a horizontal bar of available quick actions.
// Format: "enter:Continue  s:Skip  l:Backlog  q:Quit"
func RenderQuickActionBar(styleSet styles.Styles, actions []QuickAction) string {
	if len(actions) == 0 {
		return ""
	}

	var parts []string
	for _, action := range actions {
		if !action.Enabled {
			continue
		}
		keyStyle := styleSet.Accent.Copy().Bold(true)
		part := fmt.Sprintf("%s:%s", keyStyle.Render(action.Key), styleSet.Muted.Render(action.Label))
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, "  ")
}

// PlayerQuickActions returns the actions available to the player in a
// reveal state. Labels come from the active line set.
func PlayerQuickActions(state models.RevealState, labels models.Labels, acknowledging bool) []QuickAction {
	continueLabel := defaultIfEmpty(labels.Continue, "Continue")
	skipLabel := defaultIfEmpty(labels.Skip, "Skip")

	return []QuickAction{
		{Key: "enter", Label: continueLabel, Enabled: state == models.RevealAwaitingContinue && !acknowledging},
		{Key: "s", Label: skipLabel, Enabled: state.Active()},
		{Key: "l", Label: "Backlog", Enabled: state != models.RevealIdle},
		{Key: "q", Label: "Quit", Enabled: true},
	}
}

// RenderPlayerHint renders the centered action bar below the dialogue box.
func RenderPlayerHint(styleSet styles.Styles, state models.RevealState, labels models.Labels, acknowledging bool, width int) string {
	bar := RenderQuickActionBar(styleSet, PlayerQuickActions(state, labels, acknowledging))
	if bar == "" || width <= 0 {
		return bar
	}

	containerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(styleSet.Theme.Tokens.TextMuted)).
		Width(width).
		Align(lipgloss.Center)

	return containerStyle.Render(bar)
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
