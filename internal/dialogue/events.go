package dialogue

import (
	"time"

	"github.com/survivalburger/storyteller/internal/models"
)

// Event reports a sequencer transition to subscribers.
type Event struct {
	Type      models.EventType
	RunID     string
	Phase     models.Phase
	Language  models.Language
	LineIndex int
	// Text is the visible buffer after the transition.
	Text string
	// Completion is set for sequence.completed events only.
	Completion *Completion
	Timestamp  time.Time
}

// Completion summarizes a finished run.
type Completion struct {
	RunID      string
	Phase      models.Phase
	Language   models.Language
	LinesShown int
	LinesTotal int
	Skipped    bool
	// Elapsed is the sum of ticked time during the run.
	Elapsed time.Duration
}

// Subscriber receives sequencer events. Calls happen synchronously on the
// goroutine driving the sequencer.
type Subscriber interface {
	OnDialogueEvent(Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Event)

// OnDialogueEvent implements Subscriber.
func (f SubscriberFunc) OnDialogueEvent(e Event) {
	f(e)
}

// CompletionFunc returns a Subscriber that only observes sequence.completed.
func CompletionFunc(fn func(Completion)) Subscriber {
	return SubscriberFunc(func(e Event) {
		if e.Type == models.EventTypeSequenceCompleted && e.Completion != nil {
			fn(*e.Completion)
		}
	})
}
