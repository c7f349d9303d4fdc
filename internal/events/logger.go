// Package events records storyteller runs in the event log.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/logging"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/scene"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// RunRepository is the minimal interface needed to write run records.
type RunRepository interface {
	Create(ctx context.Context, record *models.RunRecord) error
	SetDestination(ctx context.Context, runID, destination string) error
}

// LogSequenceCompleted records a sequence.completed event for a run.
func LogSequenceCompleted(ctx context.Context, repo Repository, c dialogue.Completion) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if c.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	payload, err := json.Marshal(models.SequenceCompletedPayload{
		Phase:      c.Phase,
		Language:   c.Language,
		LinesShown: c.LinesShown,
		LinesTotal: c.LinesTotal,
		Skipped:    c.Skipped,
		Duration:   c.Elapsed.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeSequenceCompleted,
		EntityType: models.EntityTypeRun,
		EntityID:   c.RunID,
		Payload:    payload,
	})
}

// LogSceneTransition records a scene.transition event for a run.
func LogSceneTransition(ctx context.Context, repo Repository, runID string, phase models.Phase, destination string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	payload, err := json.Marshal(models.SceneTransitionPayload{
		Phase:       phase,
		Destination: destination,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal transition payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeSceneTransition,
		EntityType: models.EntityTypeRun,
		EntityID:   runID,
		Payload:    payload,
	})
}

// Recorder persists run lifecycle events. It implements dialogue.Subscriber.
// Write failures are logged and never interrupt the run.
type Recorder struct {
	ctx    context.Context
	events Repository
	runs   RunRepository
	logger zerolog.Logger
}

// NewRecorder creates a Recorder. runs may be nil.
func NewRecorder(ctx context.Context, events Repository, runs RunRepository) *Recorder {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Recorder{
		ctx:    ctx,
		events: events,
		runs:   runs,
		logger: logging.Component("events"),
	}
}

// OnDialogueEvent implements dialogue.Subscriber.
func (r *Recorder) OnDialogueEvent(e dialogue.Event) {
	switch e.Type {
	case models.EventTypeRunStarted:
		if r.events == nil {
			return
		}
		err := r.events.Create(r.ctx, &models.Event{
			Timestamp:  e.Timestamp,
			Type:       models.EventTypeRunStarted,
			EntityType: models.EntityTypeRun,
			EntityID:   e.RunID,
			Metadata: map[string]string{
				"phase":    string(e.Phase),
				"language": string(e.Language),
			},
		})
		if err != nil {
			r.logger.Warn().Err(err).Str("run_id", e.RunID).Msg("failed to log run start")
		}

	case models.EventTypeSequenceCompleted:
		if e.Completion == nil {
			return
		}
		r.recordCompletion(*e.Completion)
	}
}

func (r *Recorder) recordCompletion(c dialogue.Completion) {
	if r.events != nil {
		if err := LogSequenceCompleted(r.ctx, r.events, c); err != nil {
			r.logger.Warn().Err(err).Str("run_id", c.RunID).Msg("failed to log sequence completion")
		}
	}
	if r.runs != nil {
		err := r.runs.Create(r.ctx, &models.RunRecord{
			RunID:      c.RunID,
			Phase:      c.Phase,
			Language:   c.Language,
			LinesShown: c.LinesShown,
			LinesTotal: c.LinesTotal,
			Skipped:    c.Skipped,
			Elapsed:    c.Elapsed,
		})
		if err != nil {
			r.logger.Warn().Err(err).Str("run_id", c.RunID).Msg("failed to record run")
		}
	}
}

// RecordArrival logs a finished scene transition.
func (r *Recorder) RecordArrival(a scene.Arrival) {
	if r.events != nil {
		if err := LogSceneTransition(r.ctx, r.events, a.Completion.RunID, a.Completion.Phase, a.Destination); err != nil {
			r.logger.Warn().Err(err).Str("run_id", a.Completion.RunID).Msg("failed to log scene transition")
		}
	}
	if r.runs != nil && a.Completion.RunID != "" {
		if err := r.runs.SetDestination(r.ctx, a.Completion.RunID, a.Destination); err != nil {
			r.logger.Warn().Err(err).Str("run_id", a.Completion.RunID).Msg("failed to record destination")
		}
	}
}
