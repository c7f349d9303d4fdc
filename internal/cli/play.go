package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/survivalburger/storyteller/internal/config"
	"github.com/survivalburger/storyteller/internal/db"
	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/events"
	"github.com/survivalburger/storyteller/internal/i18n"
	"github.com/survivalburger/storyteller/internal/logging"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/scene"
	"github.com/survivalburger/storyteller/internal/script"
	"github.com/survivalburger/storyteller/internal/tui"
)

var (
	playPhase      string
	playLang       string
	playPlain      bool
	playScriptsDir string
	playPause      time.Duration
	playNoLog      bool
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playPhase, "phase", string(models.PhaseStart), "story phase to play (start, end)")
	playCmd.Flags().StringVar(&playLang, "lang", "", "language (en, zh, or a locale such as zh_CN.UTF-8; default: from config or LANG)")
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "print lines to stdout instead of opening the terminal player")
	playCmd.Flags().StringVar(&playScriptsDir, "scripts-dir", "", "directory searched before the default script paths")
	playCmd.Flags().DurationVar(&playPause, "pause", 800*time.Millisecond, "plain mode: how long a revealed line stays before continuing")
	playCmd.Flags().BoolVar(&playNoLog, "no-log", false, "don't record the run in the event log")
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a story phase",
	Long: `Play the opening or closing story.

Lines appear one character at a time. Press enter or space to continue once a
line is complete, s to skip the rest, l to open the backlog, q to quit.
Without a terminal the lines are printed and continue automatically.`,
	Example: `  # Opening story in the system language
  storyteller play

  # Ending in Chinese, printed to stdout
  storyteller play --phase end --lang zh --plain`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return runPlay(ctx, os.Stdout)
	},
}

// playback holds everything one run needs, for either frontend.
type playback struct {
	source     dialogue.LineSource
	dialogue   dialogue.Config
	phase      models.Phase
	language   models.Language
	title      string
	router     *scene.Router
	transition time.Duration
	frame      time.Duration
	theme      string
	recorder   *events.Recorder
}

// PlayResult is the payload printed by `storyteller play --json`.
type PlayResult struct {
	RunID       string          `json:"run_id"`
	Phase       models.Phase    `json:"phase"`
	Language    models.Language `json:"language"`
	LinesShown  int             `json:"lines_shown"`
	LinesTotal  int             `json:"lines_total"`
	Skipped     bool            `json:"skipped"`
	Elapsed     string          `json:"elapsed"`
	Destination string          `json:"destination"`
	Arrived     bool            `json:"arrived"`
}

func runPlay(ctx context.Context, out io.Writer) error {
	cfg := currentConfig()

	phase, err := models.ParsePhase(playPhase)
	if err != nil {
		return &PreflightError{
			Message: "invalid phase",
			Hint:    "Use --phase start or --phase end",
			Err:     err,
		}
	}
	language := i18n.Select(firstNonEmpty(playLang, cfg.Dialogue.Language))

	plain := playPlain || IsNonInteractive() || IsJSONOutput() || IsJSONLOutput()
	if !plain {
		closeLog, err := redirectLogs(cfg.Logging)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	catalog, err := loadCatalog(cfg, playScriptsDir)
	if err != nil {
		return err
	}

	pb := playback{
		source:     catalog,
		dialogue:   dialogueConfig(cfg),
		phase:      phase,
		language:   language,
		router:     scene.NewRouter(cfg.Scene.StartDestination, cfg.Scene.EndDestination),
		transition: cfg.Scene.TransitionDuration,
		frame:      cfg.TUI.FrameInterval,
		theme:      cfg.TUI.Theme,
	}
	if s, ok := catalog.Script(phase, language); ok {
		pb.title = s.Title
	}

	if !playNoLog && !cfg.Database.Disabled {
		database, err := openDatabase()
		if err != nil {
			logger := logging.Component("cli")
			logger.Warn().Err(err).Msg("event log unavailable, run will not be recorded")
		} else {
			defer database.Close()
			pb.recorder = events.NewRecorder(ctx, db.NewEventRepository(database), db.NewRunRepository(database))
		}
	}

	var res tui.Result
	if plain {
		textOut := out
		if IsJSONOutput() || IsJSONLOutput() {
			textOut = io.Discard
		}
		player := plainPlayer{out: textOut, frame: pb.frame, pause: playPause, sleep: time.Sleep}
		res, err = player.play(ctx, pb)
	} else {
		res, err = playInTerminal(pb)
	}
	if err != nil {
		return err
	}

	return writePlayResult(out, res)
}

func playInTerminal(pb playback) (tui.Result, error) {
	cfg := tui.Config{
		Source:             pb.source,
		Dialogue:           pb.dialogue,
		Phase:              pb.phase,
		Language:           pb.language,
		Title:              pb.title,
		Router:             pb.router,
		TransitionDuration: pb.transition,
		FrameInterval:      pb.frame,
		Theme:              pb.theme,
		AltScreen:          true,
	}
	if pb.recorder != nil {
		cfg.Subscribers = append(cfg.Subscribers, pb.recorder)
		cfg.OnArrive = pb.recorder.RecordArrival
	}
	return tui.Run(cfg)
}

func writePlayResult(out io.Writer, res tui.Result) error {
	c := res.Completion
	result := PlayResult{
		RunID:       c.RunID,
		Phase:       c.Phase,
		Language:    c.Language,
		LinesShown:  c.LinesShown,
		LinesTotal:  c.LinesTotal,
		Skipped:     c.Skipped,
		Elapsed:     formatDuration(c.Elapsed),
		Destination: res.Destination,
		Arrived:     res.Arrived,
	}

	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(out, result)
	}

	if !res.Arrived {
		fmt.Fprintln(out, colorize("Stopped before the story finished.", colorYellow))
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", colorize("→", colorCyan), result.Destination)
	return nil
}

// plainPlayer drives a sequencer from a fixed-step loop and prints the
// reveal as it happens.
type plainPlayer struct {
	out   io.Writer
	frame time.Duration
	pause time.Duration
	sleep func(time.Duration)
}

func (p plainPlayer) play(ctx context.Context, pb playback) (tui.Result, error) {
	frame := p.frame
	if frame <= 0 {
		frame = tui.DefaultFrameInterval
	}

	var arrival *scene.Arrival
	director := scene.NewDirector(pb.router, pb.transition, func(a scene.Arrival) {
		arrival = &a
		if pb.recorder != nil {
			pb.recorder.RecordArrival(a)
		}
	})

	tw := &typewriter{out: p.out}
	opts := []dialogue.Option{}
	if pb.recorder != nil {
		opts = append(opts, dialogue.WithSubscriber(pb.recorder))
	}
	opts = append(opts, dialogue.WithSubscriber(director), dialogue.WithSubscriber(tw))

	seq := dialogue.New(pb.source, pb.dialogue, opts...)
	if pb.title != "" {
		fmt.Fprintln(p.out, colorize(pb.title, colorCyan))
		fmt.Fprintln(p.out)
	}
	seq.Start(pb.phase, pb.language)

	var held time.Duration
	for arrival == nil {
		select {
		case <-ctx.Done():
			tw.close()
			res := tui.Result{Quit: true}
			if c, ok := seq.Completion(); ok {
				res.Completion = c
			}
			return res, nil
		default:
		}

		if seq.CanContinue() {
			if held >= p.pause {
				held = 0
				seq.Continue()
				continue
			}
			held += frame
		}

		if p.sleep != nil {
			p.sleep(frame)
		}
		seq.Tick(frame)
		director.Tick(frame)
	}

	completion, _ := seq.Completion()
	return tui.Result{
		Completion:  completion,
		Destination: arrival.Destination,
		Arrived:     true,
	}, nil
}

// typewriter prints each newly revealed character as it arrives.
type typewriter struct {
	out     io.Writer
	written int
	open    bool
}

func (w *typewriter) OnDialogueEvent(e dialogue.Event) {
	switch e.Type {
	case models.EventTypeLineStarted:
		w.written = 0
		w.open = true
	case models.EventTypeLineProgress:
		if len(e.Text) > w.written {
			fmt.Fprint(w.out, e.Text[w.written:])
			w.written = len(e.Text)
		}
	case models.EventTypeLineRevealed:
		w.close()
	case models.EventTypeSequenceCompleted:
		w.close()
		if e.Completion != nil && e.Completion.LinesTotal == 0 {
			fmt.Fprintln(w.out, colorize("(no story lines)", colorMagenta))
		}
	}
}

func (w *typewriter) close() {
	if w.open {
		fmt.Fprintln(w.out)
		w.open = false
	}
}

func loadCatalog(cfg *config.Config, overrideDir string) (*script.Catalog, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = ""
	}
	catalog, err := script.LoadCatalog(projectDir, firstNonEmpty(overrideDir, cfg.Scripts.Dir), cfg.Scripts.Vars)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	return catalog, nil
}

func dialogueConfig(cfg *config.Config) dialogue.Config {
	return dialogue.Config{
		Delays: map[models.Language]time.Duration{
			models.LanguageEnglish: cfg.Dialogue.EnglishDelay,
			models.LanguageChinese: cfg.Dialogue.ChineseDelay,
		},
		AckDelay: cfg.Dialogue.AckDelay,
	}
}

// redirectLogs keeps log output off the terminal while the player owns it.
func redirectLogs(cfg config.LoggingConfig) (func(), error) {
	if strings.TrimSpace(cfg.File) == "" {
		logging.Discard()
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := logging.Init(logging.Config{Level: cfg.Level, Format: cfg.Format, Output: f}); err != nil {
		f.Close()
		return nil, err
	}
	return func() { f.Close() }, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
