// Package tui implements the storyteller terminal player.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/scene"
	"github.com/survivalburger/storyteller/internal/tui/components"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

const (
	minWidth    = 40
	minHeight   = 10
	maxBoxWidth = 72

	// DefaultFrameInterval is roughly 60 frames per second.
	DefaultFrameInterval = 16 * time.Millisecond
)

// Config describes a single playback of one phase.
type Config struct {
	Source             dialogue.LineSource
	Dialogue           dialogue.Config
	Phase              models.Phase
	Language           models.Language
	Title              string
	Router             *scene.Router
	TransitionDuration time.Duration
	FrameInterval      time.Duration
	Theme              string
	Subscribers        []dialogue.Subscriber
	// OnArrive runs once the fade reaches its destination.
	OnArrive func(scene.Arrival)

	AltScreen bool
	Input     io.Reader
	Output    io.Writer
}

// Result reports how a playback ended.
type Result struct {
	Completion  dialogue.Completion
	Destination string
	Arrived     bool
	// Quit is set when the player left before reaching the destination.
	Quit bool
}

// Run plays the configured phase until the scene transition finishes or
// the player quits.
func Run(cfg Config) (Result, error) {
	m := newModel(cfg)

	opts := []tea.ProgramOption{}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}

	program := tea.NewProgram(m, opts...)
	if _, err := program.Run(); err != nil {
		return Result{}, err
	}
	return m.result(), nil
}

type outcome struct {
	arrival *scene.Arrival
	quit    bool
}

type model struct {
	seq      *dialogue.Sequencer
	director *scene.Director
	backlog  *components.Backlog
	outcome  *outcome

	styles        styles.Styles
	title         string
	frameInterval time.Duration
	lastFrame     time.Time
	showBacklog   bool
	width         int
	height        int
}

func newModel(cfg Config) model {
	theme, _ := styles.ThemeByName(cfg.Theme)

	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	out := &outcome{}
	backlog := components.NewBacklog()

	director := scene.NewDirector(cfg.Router, cfg.TransitionDuration, func(a scene.Arrival) {
		out.arrival = &a
		if cfg.OnArrive != nil {
			cfg.OnArrive(a)
		}
	})

	// Caller subscribers see completion before the director can arrive.
	opts := make([]dialogue.Option, 0, len(cfg.Subscribers)+2)
	for _, sub := range cfg.Subscribers {
		opts = append(opts, dialogue.WithSubscriber(sub))
	}
	opts = append(opts,
		dialogue.WithSubscriber(director),
		dialogue.WithSubscriber(dialogue.SubscriberFunc(func(e dialogue.Event) {
			switch e.Type {
			case models.EventTypeRunStarted:
				backlog.Reset()
			case models.EventTypeLineRevealed:
				backlog.Append(e.Text)
			}
		})),
	)

	seq := dialogue.New(cfg.Source, cfg.Dialogue, opts...)
	seq.Start(cfg.Phase, cfg.Language)

	return model{
		seq:           seq,
		director:      director,
		backlog:       backlog,
		outcome:       out,
		styles:        styles.BuildStyles(theme),
		title:         titleFor(cfg.Title, cfg.Phase),
		frameInterval: interval,
	}
}

func titleFor(title string, phase models.Phase) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	switch phase {
	case models.PhaseEnd:
		return "Epilogue"
	default:
		return "Prologue"
	}
}

func (m model) result() Result {
	res := Result{Quit: m.outcome.quit}
	if c, ok := m.seq.Completion(); ok {
		res.Completion = c
	}
	if m.outcome.arrival != nil {
		res.Arrived = true
		res.Destination = m.outcome.arrival.Destination
	} else if t := m.director.Transition(); t != nil {
		res.Destination = t.Destination
	}
	return res
}

func (m model) Init() tea.Cmd {
	if m.director.Arrived() {
		return tea.Quit
	}
	return frameCmd(m.frameInterval)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case frameMsg:
		elapsed := m.frameInterval
		if !m.lastFrame.IsZero() {
			elapsed = time.Time(msg).Sub(m.lastFrame)
		}
		m.lastFrame = time.Time(msg)

		m.seq.Tick(elapsed)
		m.director.Tick(elapsed)
		if m.director.Arrived() {
			return m, tea.Quit
		}
		return m, frameCmd(m.frameInterval)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showBacklog {
		switch msg.String() {
		case "up", "k":
			m.backlog.ScrollUp(1)
			return m, nil
		case "down", "j":
			m.backlog.ScrollDown(1)
			return m, nil
		case "l", "esc":
			m.showBacklog = false
			return m, nil
		case "enter", " ", "s":
			// The dialogue is hidden; close the backlog first.
			return m, nil
		}
	}

	switch msg.String() {
	case "enter", " ":
		m.seq.Continue()
	case "s":
		m.seq.Skip()
	case "l":
		if m.seq.State() != models.RevealIdle {
			m.showBacklog = !m.showBacklog
		}
	case "q", "esc", "ctrl+c":
		m.outcome.quit = true
		return m, tea.Quit
	}

	if m.director.Arrived() {
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 {
		if m.width < minWidth || m.height < minHeight {
			return fmt.Sprintf("%s\n", strings.Join(m.smallViewLines(), "\n"))
		}
	}

	lines := []string{
		m.styles.Title.Render(m.title) + "  " + components.RenderRevealStateBadge(m.styles, m.seq.State()),
		"",
	}

	width := m.boxWidth()
	switch {
	case m.showBacklog:
		lines = append(lines, components.RenderBacklogPanel(m.styles, m.backlog, "Backlog", width))
	case m.director.Transition() != nil:
		lines = append(lines, m.transitionLines(width)...)
	default:
		line, total := m.seq.LineIndex()+1, m.seq.Total()
		labels := m.seq.Labels()
		box := components.DialogueBox{
			Text:          m.seq.Text(),
			Width:         width,
			Line:          line,
			Total:         total,
			ContinueLabel: labels.Continue,
			SkipLabel:     labels.Skip,
			ShowContinue:  m.seq.CanContinue(),
			ShowSkip:      m.seq.State().Active(),
		}
		lines = append(lines, box.Render(m.styles))
	}

	lines = append(lines, "", components.RenderPlayerHint(m.styles, m.seq.State(), m.seq.Labels(), m.seq.Acknowledging(), width))

	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m model) transitionLines(width int) []string {
	t := m.director.Transition()
	var lines []string
	if c, ok := m.seq.Completion(); ok && c.LinesTotal == 0 {
		lines = append(lines, components.EmptyLineSet(c.Phase, c.Language).Render(m.styles), "")
	}
	return append(lines, components.RenderFade(m.styles, t.Progress(), width-2, t.Destination))
}

func (m model) boxWidth() int {
	if m.width <= 0 {
		return 60
	}
	if m.width > maxBoxWidth {
		return maxBoxWidth
	}
	return m.width
}

func (m model) smallViewLines() []string {
	message := fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)
	hint := fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)

	return []string{
		m.styles.Warning.Render(message),
		m.styles.Muted.Render(hint),
		m.styles.Muted.Render("Press q to quit."),
	}
}

type frameMsg time.Time

func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
