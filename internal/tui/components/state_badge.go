// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

// RenderRevealStateBadge renders a reveal state with icon and color.
func RenderRevealStateBadge(styleSet styles.Styles, state models.RevealState) string {
	icon, label, style := stateDescriptor(styleSet, state)
	return style.Render(fmt.Sprintf("%s %s", icon, label))
}

func stateDescriptor(styleSet styles.Styles, state models.RevealState) (string, string, lipgloss.Style) {
	switch state {
	case models.RevealRevealing:
		return ">", "Typing", styleSet.StateReveal
	case models.RevealAwaitingContinue:
		return "..", "Waiting", styleSet.StateWait
	case models.RevealFinished:
		return "OK", "Finished", styleSet.StateDone
	default:
		return "-", "Idle", styleSet.StateIdle
	}
}
