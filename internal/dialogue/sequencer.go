package dialogue

import (
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
	"github.com/rs/zerolog"

	"github.com/survivalburger/storyteller/internal/logging"
	"github.com/survivalburger/storyteller/internal/models"
)

// LineSource supplies the line set for a phase and language.
type LineSource interface {
	LineSet(phase models.Phase, lang models.Language) (models.LineSet, error)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSubscriber registers an event subscriber.
func WithSubscriber(sub Subscriber) Option {
	return func(s *Sequencer) {
		if sub != nil {
			s.subscribers = append(s.subscribers, sub)
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		if now != nil {
			s.now = now
		}
	}
}

// Sequencer reveals a queue of lines one character at a time.
// It is not safe for concurrent use; drive it from a single loop.
type Sequencer struct {
	source      LineSource
	config      Config
	logger      zerolog.Logger
	subscribers []Subscriber
	now         func() time.Time

	state    models.RevealState
	runID    string
	phase    models.Phase
	language models.Language
	labels   models.Labels
	queue    []string
	total    int
	shown    int
	elapsed  time.Duration

	// current line
	line     string
	ends     []int // byte offset after each grapheme cluster
	revealed int
	visible  bool
	accum    time.Duration

	acking       bool
	ackRemaining time.Duration

	completion *Completion
}

// New creates an idle Sequencer.
func New(source LineSource, cfg Config, opts ...Option) *Sequencer {
	s := &Sequencer{
		source: source,
		config: cfg,
		logger: logging.Component("dialogue"),
		now:    time.Now,
		state:  models.RevealIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a subscriber after construction.
func (s *Sequencer) Subscribe(sub Subscriber) {
	if sub != nil {
		s.subscribers = append(s.subscribers, sub)
	}
}

// Start begins a run for phase and lang. It returns false without side
// effects while a run is active. A missing or empty line set finishes the
// run immediately.
func (s *Sequencer) Start(phase models.Phase, lang models.Language) bool {
	if s.state.Active() {
		s.logger.Debug().Str("state", s.state.String()).Msg("start ignored, run in progress")
		return false
	}

	s.reset()
	s.runID = uuid.New().String()
	s.phase = phase
	s.language = lang
	s.labels = models.DefaultLabels(lang)

	var set models.LineSet
	if s.source != nil {
		loaded, err := s.source.LineSet(phase, lang)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("phase", string(phase)).
				Str("language", string(lang)).
				Msg("line set unavailable, finishing run")
		} else {
			set = loaded
		}
	}
	if set.Labels.Continue != "" {
		s.labels.Continue = set.Labels.Continue
	}
	if set.Labels.Skip != "" {
		s.labels.Skip = set.Labels.Skip
	}

	s.queue = append([]string(nil), set.Lines...)
	s.total = len(s.queue)

	s.logger.Debug().
		Str("run_id", s.runID).
		Str("phase", string(phase)).
		Str("language", string(lang)).
		Int("lines", s.total).
		Msg("run started")
	s.emit(models.EventTypeRunStarted)

	if len(s.queue) == 0 {
		s.finish(false)
		return true
	}

	s.state = models.RevealRevealing
	s.beginNextLine()
	return true
}

// Tick advances timed work by elapsed.
func (s *Sequencer) Tick(elapsed time.Duration) {
	if elapsed <= 0 || !s.state.Active() {
		return
	}
	s.elapsed += elapsed

	switch s.state {
	case models.RevealRevealing:
		s.accum += elapsed
		delay := s.config.Delay(s.language)
		for s.state == models.RevealRevealing && s.accum >= delay {
			s.accum -= delay
			s.revealNextCharacter()
		}

	case models.RevealAwaitingContinue:
		if !s.acking {
			return
		}
		s.ackRemaining -= elapsed
		if s.ackRemaining <= 0 {
			s.acking = false
			s.ackRemaining = 0
			s.advance()
		}
	}
}

// Continue acknowledges a fully revealed line. It returns false unless the
// continue affordance is showing.
func (s *Sequencer) Continue() bool {
	if !s.CanContinue() {
		s.logger.Debug().Str("state", s.state.String()).Msg("continue ignored")
		return false
	}

	s.visible = false
	s.emit(models.EventTypeLineAcknowledged)

	if s.config.AckDelay > 0 {
		s.acking = true
		s.ackRemaining = s.config.AckDelay
		return true
	}
	s.advance()
	return true
}

// Skip abandons the rest of the run and finishes it. It returns false when
// no run is active.
func (s *Sequencer) Skip() bool {
	if !s.state.Active() {
		s.logger.Debug().Str("state", s.state.String()).Msg("skip ignored")
		return false
	}

	s.queue = nil
	s.acking = false
	s.ackRemaining = 0
	s.accum = 0
	s.clearLine()
	s.finish(true)
	return true
}

// State returns the current reveal state.
func (s *Sequencer) State() models.RevealState {
	return s.state
}

// Text returns the visible buffer. It is empty while the text is hidden.
func (s *Sequencer) Text() string {
	if !s.visible {
		return ""
	}
	return s.line[:s.offset()]
}

// Line returns the full text of the line being revealed.
func (s *Sequencer) Line() string {
	return s.line
}

// Visible reports whether the text box shows the buffer.
func (s *Sequencer) Visible() bool {
	return s.visible
}

// CanContinue reports whether the continue affordance is showing.
func (s *Sequencer) CanContinue() bool {
	return s.state == models.RevealAwaitingContinue && !s.acking
}

// Acknowledging reports whether the acknowledgment cue is playing.
func (s *Sequencer) Acknowledging() bool {
	return s.acking
}

// Phase returns the phase of the current or last run.
func (s *Sequencer) Phase() models.Phase {
	return s.phase
}

// Language returns the language of the current or last run.
func (s *Sequencer) Language() models.Language {
	return s.language
}

// Labels returns the localized affordance labels for the run.
func (s *Sequencer) Labels() models.Labels {
	return s.labels
}

// Remaining returns the number of queued lines not yet started.
func (s *Sequencer) Remaining() int {
	return len(s.queue)
}

// LineIndex returns the zero-based index of the current line, or -1.
func (s *Sequencer) LineIndex() int {
	return s.shown - 1
}

// Total returns the number of lines in the run.
func (s *Sequencer) Total() int {
	return s.total
}

// Progress returns revealed and total characters of the current line.
func (s *Sequencer) Progress() (int, int) {
	return s.revealed, len(s.ends)
}

// Completion returns the summary of the last finished run.
func (s *Sequencer) Completion() (Completion, bool) {
	if s.completion == nil {
		return Completion{}, false
	}
	return *s.completion, true
}

func (s *Sequencer) reset() {
	s.state = models.RevealIdle
	s.queue = nil
	s.total = 0
	s.shown = 0
	s.elapsed = 0
	s.acking = false
	s.ackRemaining = 0
	s.completion = nil
	s.clearLine()
}

func (s *Sequencer) clearLine() {
	s.line = ""
	s.ends = nil
	s.revealed = 0
	s.visible = false
	s.accum = 0
}

func (s *Sequencer) beginNextLine() {
	s.line = s.queue[0]
	s.queue = s.queue[1:]
	s.shown++
	s.ends = graphemeEnds(s.line)
	s.revealed = 0
	s.accum = 0
	s.visible = true

	s.emit(models.EventTypeLineStarted)
	s.revealNextCharacter()
}

// revealNextCharacter appends one character to the buffer and moves to
// AwaitingContinue once the line is complete.
func (s *Sequencer) revealNextCharacter() {
	if s.revealed < len(s.ends) {
		s.revealed++
		s.emit(models.EventTypeLineProgress)
	}
	if s.revealed == len(s.ends) {
		s.state = models.RevealAwaitingContinue
		s.accum = 0
		s.emit(models.EventTypeLineRevealed)
	}
}

func (s *Sequencer) advance() {
	if len(s.queue) == 0 {
		s.clearLine()
		s.finish(false)
		return
	}
	s.state = models.RevealRevealing
	s.beginNextLine()
}

func (s *Sequencer) finish(skipped bool) {
	if s.completion != nil {
		return
	}
	s.state = models.RevealFinished
	s.completion = &Completion{
		RunID:      s.runID,
		Phase:      s.phase,
		Language:   s.language,
		LinesShown: s.shown,
		LinesTotal: s.total,
		Skipped:    skipped,
		Elapsed:    s.elapsed,
	}

	s.logger.Debug().
		Str("run_id", s.runID).
		Str("phase", string(s.phase)).
		Int("lines_shown", s.shown).
		Bool("skipped", skipped).
		Msg("sequence complete")
	s.emit(models.EventTypeSequenceCompleted)
}

func (s *Sequencer) offset() int {
	if s.revealed == 0 {
		return 0
	}
	return s.ends[s.revealed-1]
}

func (s *Sequencer) emit(eventType models.EventType) {
	if len(s.subscribers) == 0 {
		return
	}
	event := Event{
		Type:      eventType,
		RunID:     s.runID,
		Phase:     s.phase,
		Language:  s.language,
		LineIndex: s.LineIndex(),
		Text:      s.Text(),
		Timestamp: s.now(),
	}
	if eventType == models.EventTypeSequenceCompleted && s.completion != nil {
		c := *s.completion
		event.Completion = &c
	}
	for _, sub := range s.subscribers {
		sub.OnDialogueEvent(event)
	}
}

func graphemeEnds(line string) []int {
	ends := make([]int, 0, len(line))
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		_, to := g.Positions()
		ends = append(ends, to)
	}
	return ends
}
