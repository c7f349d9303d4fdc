package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/scene"
)

type fakeRepo struct {
	events []*models.Event
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRepo) last() *models.Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type fakeRuns struct {
	records      []*models.RunRecord
	destinations map[string]string
}

func (r *fakeRuns) Create(ctx context.Context, record *models.RunRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *fakeRuns) SetDestination(ctx context.Context, runID, destination string) error {
	if r.destinations == nil {
		r.destinations = map[string]string{}
	}
	r.destinations[runID] = destination
	return nil
}

type lines []string

func (l lines) LineSet(phase models.Phase, lang models.Language) (models.LineSet, error) {
	return models.LineSet{Phase: phase, Language: lang, Lines: l}, nil
}

func TestLogSequenceCompleted(t *testing.T) {
	repo := &fakeRepo{}

	err := LogSequenceCompleted(context.Background(), repo, dialogue.Completion{
		RunID:      "run-1",
		Phase:      models.PhaseEnd,
		Language:   models.LanguageEnglish,
		LinesShown: 4,
		LinesTotal: 4,
		Elapsed:    3 * time.Second,
	})
	if err != nil {
		t.Fatalf("LogSequenceCompleted failed: %v", err)
	}

	event := repo.last()
	if event == nil {
		t.Fatal("expected event to be created")
	}
	if event.Type != models.EventTypeSequenceCompleted {
		t.Fatalf("unexpected event type: %q", event.Type)
	}
	if event.EntityID != "run-1" {
		t.Fatalf("unexpected entity id: %q", event.EntityID)
	}

	var payload models.SequenceCompletedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Phase != models.PhaseEnd || payload.Duration != "3s" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestLogSequenceCompletedRequiresRunID(t *testing.T) {
	if err := LogSequenceCompleted(context.Background(), &fakeRepo{}, dialogue.Completion{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
	if err := LogSequenceCompleted(context.Background(), nil, dialogue.Completion{RunID: "x"}); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestRecorderRecordsRunLifecycle(t *testing.T) {
	repo := &fakeRepo{}
	runs := &fakeRuns{}
	recorder := NewRecorder(context.Background(), repo, runs)

	var arrival scene.Arrival
	director := scene.NewDirector(scene.NewRouter("", ""), 0, func(a scene.Arrival) {
		arrival = a
		recorder.RecordArrival(a)
	})

	seq := dialogue.New(lines{"a", "b"}, dialogue.DefaultConfig(),
		dialogue.WithSubscriber(recorder),
		dialogue.WithSubscriber(director),
		dialogue.WithLogger(zerolog.Nop()))

	seq.Start(models.PhaseStart, models.LanguageEnglish)
	seq.Continue()
	seq.Continue()

	if len(repo.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(repo.events))
	}
	wantTypes := []models.EventType{
		models.EventTypeRunStarted,
		models.EventTypeSequenceCompleted,
		models.EventTypeSceneTransition,
	}
	for i, want := range wantTypes {
		if repo.events[i].Type != want {
			t.Fatalf("event %d type = %q, want %q", i, repo.events[i].Type, want)
		}
	}

	if len(runs.records) != 1 {
		t.Fatalf("expected 1 run record, got %d", len(runs.records))
	}
	record := runs.records[0]
	if record.LinesShown != 2 || record.Skipped {
		t.Fatalf("unexpected run record %+v", record)
	}
	if runs.destinations[record.RunID] != scene.DestinationGame {
		t.Fatalf("destination = %q", runs.destinations[record.RunID])
	}
	if arrival.Completion.RunID != record.RunID {
		t.Fatalf("arrival run id mismatch")
	}
}
