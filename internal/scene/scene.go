// Package scene routes finished dialogue runs to their next destination.
package scene

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/logging"
	"github.com/survivalburger/storyteller/internal/models"
)

const (
	// DestinationGame is where the introductory phase leads.
	DestinationGame = "game"
	// DestinationMainMenu is where the closing phase leads.
	DestinationMainMenu = "main-menu"

	// DefaultTransitionDuration matches a 40-frame fade at 60fps.
	DefaultTransitionDuration = 40 * time.Second / 60
)

// Router maps phases to destinations.
type Router struct {
	destinations map[models.Phase]string
}

// NewRouter creates a router. Empty names fall back to the defaults.
func NewRouter(startDestination, endDestination string) *Router {
	if startDestination == "" {
		startDestination = DestinationGame
	}
	if endDestination == "" {
		endDestination = DestinationMainMenu
	}
	return &Router{
		destinations: map[models.Phase]string{
			models.PhaseStart: startDestination,
			models.PhaseEnd:   endDestination,
		},
	}
}

// Destination returns where a run of phase leads.
func (r *Router) Destination(phase models.Phase) string {
	if dest, ok := r.destinations[phase]; ok {
		return dest
	}
	return DestinationMainMenu
}

// Transition is a timed fade toward a destination.
type Transition struct {
	Phase       models.Phase
	Destination string
	duration    time.Duration
	elapsed     time.Duration
}

// Tick advances the fade and reports whether it has finished.
func (t *Transition) Tick(elapsed time.Duration) bool {
	if elapsed > 0 {
		t.elapsed += elapsed
	}
	return t.Done()
}

// Done reports whether the fade has finished.
func (t *Transition) Done() bool {
	return t.elapsed >= t.duration
}

// Progress returns the fade fraction in [0, 1].
func (t *Transition) Progress() float64 {
	if t.duration <= 0 || t.elapsed >= t.duration {
		return 1
	}
	return float64(t.elapsed) / float64(t.duration)
}

// Arrival reports a completed transition.
type Arrival struct {
	Completion  dialogue.Completion
	Destination string
}

// Director starts a transition when a dialogue run completes and reports
// the arrival once the fade ends.
type Director struct {
	router   *Router
	duration time.Duration
	logger   zerolog.Logger
	onArrive func(Arrival)

	current    *Transition
	completion dialogue.Completion
	arrived    bool
}

// NewDirector creates a Director. onArrive may be nil.
func NewDirector(router *Router, duration time.Duration, onArrive func(Arrival)) *Director {
	if router == nil {
		router = NewRouter("", "")
	}
	if duration < 0 {
		duration = 0
	}
	return &Director{
		router:   router,
		duration: duration,
		logger:   logging.Component("scene"),
		onArrive: onArrive,
	}
}

// OnDialogueEvent implements dialogue.Subscriber.
func (d *Director) OnDialogueEvent(e dialogue.Event) {
	switch e.Type {
	case models.EventTypeRunStarted:
		d.current = nil
		d.arrived = false
	case models.EventTypeSequenceCompleted:
		if e.Completion == nil || d.current != nil {
			return
		}
		d.completion = *e.Completion
		d.current = &Transition{
			Phase:       e.Phase,
			Destination: d.router.Destination(e.Phase),
			duration:    d.duration,
		}
		d.logger.Info().
			Str("phase", string(e.Phase)).
			Str("destination", d.current.Destination).
			Msg("scene transition started")
		if d.duration == 0 {
			d.arrive()
		}
	}
}

// Tick advances the active transition.
func (d *Director) Tick(elapsed time.Duration) {
	if d.current == nil || d.arrived {
		return
	}
	if d.current.Tick(elapsed) {
		d.arrive()
	}
}

// Transition returns the active or finished transition, if any.
func (d *Director) Transition() *Transition {
	return d.current
}

// Arrived reports whether the destination has been reached.
func (d *Director) Arrived() bool {
	return d.arrived
}

func (d *Director) arrive() {
	if d.arrived {
		return
	}
	d.arrived = true
	d.logger.Info().Str("destination", d.current.Destination).Msg("scene reached")
	if d.onArrive != nil {
		d.onArrive(Arrival{Completion: d.completion, Destination: d.current.Destination})
	}
}
