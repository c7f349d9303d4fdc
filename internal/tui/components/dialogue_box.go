package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/survivalburger/storyteller/internal/tui/styles"
)

// DialogueBox renders the story text panel with its affordances.
type DialogueBox struct {
	// Text is the revealed part of the current line.
	Text string
	// Width is the outer width of the box; zero lets the text decide.
	Width int
	// Line and Total describe the position within the run (1-based Line).
	Line  int
	Total int

	ContinueLabel string
	SkipLabel     string
	ShowContinue  bool
	ShowSkip      bool
}

// Render renders the box with the given styles.
func (b DialogueBox) Render(styleSet styles.Styles) string {
	box := styleSet.Box
	if b.Width > 0 {
		frame := box.GetHorizontalFrameSize()
		if inner := b.Width - frame; inner > 0 {
			box = box.Width(inner)
		}
	}

	body := b.Text
	if body == "" {
		body = " "
	}
	rendered := box.Render(styleSet.Text.Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, rendered, b.footer(styleSet))
}

func (b DialogueBox) footer(styleSet styles.Styles) string {
	parts := make([]string, 0, 3)
	if b.Total > 0 {
		parts = append(parts, styleSet.Muted.Render(fmt.Sprintf("%d/%d", b.Line, b.Total)))
	}
	if b.ShowSkip && b.SkipLabel != "" {
		parts = append(parts, styleSet.Muted.Render("[s] "+b.SkipLabel))
	}
	if b.ShowContinue && b.ContinueLabel != "" {
		parts = append(parts, styleSet.Focus.Render("[enter] "+b.ContinueLabel))
	}
	return strings.Join(parts, "   ")
}

// RenderFade renders a transition progress bar toward a destination.
func RenderFade(styleSet styles.Styles, progress float64, width int, destination string) string {
	if width <= 0 {
		width = 40
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	bar := styleSet.Accent.Render(strings.Repeat("█", filled)) +
		styleSet.Fade.Render(strings.Repeat("░", width-filled))
	return lipgloss.JoinVertical(lipgloss.Left, bar, styleSet.Muted.Render("→ "+destination))
}
