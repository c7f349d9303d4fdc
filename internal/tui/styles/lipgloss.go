package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Theme       Theme
	Title       lipgloss.Style
	Text        lipgloss.Style
	Muted       lipgloss.Style
	Accent      lipgloss.Style
	Box         lipgloss.Style
	Focus       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
	Fade        lipgloss.Style
	StateIdle   lipgloss.Style
	StateReveal lipgloss.Style
	StateWait   lipgloss.Style
	StateDone   lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	tokens := theme.Tokens

	return Styles{
		Theme:       theme,
		Title:       lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Accent)).Bold(true),
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Text)),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.TextMuted)),
		Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Accent)),
		Box:         lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Text)).Background(lipgloss.Color(tokens.Panel)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(tokens.Border)).Padding(1, 2),
		Focus:       lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Focus)).Bold(true),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Success)),
		Warning:     lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Warning)),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Error)),
		Fade:        lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Fade)),
		StateIdle:   lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.TextMuted)),
		StateReveal: lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Accent)),
		StateWait:   lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Focus)),
		StateDone:   lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Success)),
	}
}
