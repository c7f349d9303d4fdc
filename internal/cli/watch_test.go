package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/survivalburger/storyteller/internal/db"
	"github.com/survivalburger/storyteller/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := database.MigrateUp(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return database
}

func createEvent(t *testing.T, repo *db.EventRepository, eventType models.EventType, runID string, ts time.Time) *models.Event {
	t.Helper()
	event := &models.Event{
		Timestamp:  ts,
		Type:       eventType,
		EntityType: models.EntityTypeRun,
		EntityID:   runID,
	}
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func TestEventStreamer_WriteEvent(t *testing.T) {
	var buf bytes.Buffer
	streamer := NewEventStreamer(nil, &buf, DefaultStreamConfig())

	event := &models.Event{
		ID:         "event-1",
		Timestamp:  time.Now().UTC(),
		Type:       models.EventTypeRunStarted,
		EntityType: models.EntityTypeRun,
		EntityID:   "run-1",
	}
	if err := streamer.writeEvent(event); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}

	var decoded models.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != "event-1" || decoded.Type != models.EventTypeRunStarted {
		t.Fatalf("unexpected event %+v", decoded)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatal("expected newline-terminated output")
	}
}

func TestEventStreamer_Poll(t *testing.T) {
	database := setupTestDB(t)
	repo := db.NewEventRepository(database)

	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		createEvent(t, repo, models.EventTypeRunStarted, "run-1", base.Add(time.Duration(i)*time.Second))
	}

	config := DefaultStreamConfig()
	config.BatchSize = 2
	streamer := NewEventStreamer(repo, &bytes.Buffer{}, config)

	past := base.Add(-time.Second)
	events, cursor, err := streamer.poll(context.Background(), "", &past)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if cursor != events[1].ID {
		t.Fatalf("cursor = %q, want last event id", cursor)
	}

	events, next, err := streamer.poll(context.Background(), cursor, &past)
	if err != nil {
		t.Fatalf("second poll failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 remaining event, got %d", len(events))
	}

	events, _, err = streamer.poll(context.Background(), next, &past)
	if err != nil {
		t.Fatalf("third poll failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestLatestEventsNewestFirst(t *testing.T) {
	database := setupTestDB(t)
	repo := db.NewEventRepository(database)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		createEvent(t, repo, models.EventTypeSequenceCompleted, "run-1", base.Add(time.Duration(i)*time.Second))
	}
	for i := 4; i < 8; i++ {
		createEvent(t, repo, models.EventTypeRunStarted, "run-2", base.Add(time.Duration(i)*time.Second))
	}
	createEvent(t, repo, models.EventTypeSceneTransition, "run-2", base.Add(8*time.Second))

	config := DefaultStreamConfig()
	config.Types = []models.EventType{models.EventTypeSequenceCompleted, models.EventTypeSceneTransition}
	events, err := latestEvents(context.Background(), repo, config, 3)
	if err != nil {
		t.Fatalf("latestEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != models.EventTypeSceneTransition {
		t.Fatalf("expected newest event first, got %s", events[0].Type)
	}
	if !events[1].Timestamp.After(events[2].Timestamp) {
		t.Fatal("expected descending timestamps")
	}
	if got := events[2].Timestamp.Sub(base); got != 2*time.Second {
		t.Fatalf("expected third event at +2s, got +%v", got)
	}
}

func TestEventStreamer_FilterByType(t *testing.T) {
	database := setupTestDB(t)
	repo := db.NewEventRepository(database)

	base := time.Now().UTC().Add(-time.Minute)
	createEvent(t, repo, models.EventTypeRunStarted, "run-1", base)
	createEvent(t, repo, models.EventTypeSequenceCompleted, "run-1", base.Add(time.Second))
	createEvent(t, repo, models.EventTypeSceneTransition, "run-1", base.Add(2*time.Second))
	createEvent(t, repo, models.EventTypeRunStarted, "run-2", base.Add(3*time.Second))

	past := base.Add(-time.Second)

	config := DefaultStreamConfig()
	config.Types = []models.EventType{models.EventTypeSequenceCompleted, models.EventTypeSceneTransition}
	events, _, err := NewEventStreamer(repo, &bytes.Buffer{}, config).poll(context.Background(), "", &past)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	config = DefaultStreamConfig()
	config.EntityID = "run-2"
	events, _, err = NewEventStreamer(repo, &bytes.Buffer{}, config).poll(context.Background(), "", &past)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(events) != 1 || events[0].EntityID != "run-2" {
		t.Fatalf("expected the run-2 event, got %+v", events)
	}
}

func TestEventStreamer_StreamWithCancellation(t *testing.T) {
	database := setupTestDB(t)
	repo := db.NewEventRepository(database)

	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond

	var buf bytes.Buffer
	streamer := NewEventStreamer(repo, &buf, config)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := streamer.Stream(ctx); err != nil {
		t.Fatalf("expected nil error on cancellation, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestStreamEventsWithReplay(t *testing.T) {
	database := setupTestDB(t)
	repo := db.NewEventRepository(database)

	beforeCreation := time.Now().UTC().Add(-time.Minute)
	createEvent(t, repo, models.EventTypeSequenceCompleted, "run-1", beforeCreation.Add(time.Second))

	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.Since = &beforeCreation
	config.IncludeExisting = true

	var buf bytes.Buffer
	streamer := NewEventStreamer(repo, &buf, config)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := streamer.Stream(ctx); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 replayed event, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"sequence.completed"`) {
		t.Fatalf("unexpected event line %q", lines[0])
	}
}

func TestDefaultStreamConfig(t *testing.T) {
	config := DefaultStreamConfig()

	if config.PollInterval != 500*time.Millisecond {
		t.Errorf("expected PollInterval 500ms, got %v", config.PollInterval)
	}
	if config.BatchSize != 100 {
		t.Errorf("expected BatchSize 100, got %d", config.BatchSize)
	}
	if config.IncludeExisting {
		t.Error("expected IncludeExisting false by default")
	}
}

func TestMustBeJSONLForWatch(t *testing.T) {
	origWatch := watchMode
	origJSONL := jsonlOutput
	defer func() {
		watchMode = origWatch
		jsonlOutput = origJSONL
	}()

	tests := []struct {
		name      string
		watch     bool
		jsonl     bool
		wantError bool
	}{
		{"watch without jsonl", true, false, true},
		{"watch with jsonl", true, true, false},
		{"no watch", false, false, false},
		{"no watch with jsonl", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			watchMode = tt.watch
			jsonlOutput = tt.jsonl

			err := MustBeJSONLForWatch()
			if tt.wantError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(*time.Time) bool
	}{
		{"empty string", "", false, func(t *time.Time) bool { return t == nil }},
		{"1 hour duration", "1h", false, ago(time.Hour)},
		{"whitespace trimmed", "  30m  ", false, ago(30 * time.Minute)},
		{"7 days duration", "7d", false, ago(7 * 24 * time.Hour)},
		{"RFC3339 timestamp", "2024-01-15T10:30:00Z", false, at(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{"RFC3339 with timezone", "2024-01-15T10:30:00-05:00", false, at(time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC))},
		{"simple date", "2024-01-15", false, at(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))},
		{"date with time no timezone", "2024-01-15T10:30:00", false, at(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{"invalid format", "not-a-time", true, nil},
		{"invalid duration", "abc123", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSince(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSince(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSince(%q) unexpected error: %v", tt.input, err)
			}
			if tt.check != nil && !tt.check(got) {
				t.Errorf("ParseSince(%q) = %v, did not pass validation", tt.input, got)
			}
		})
	}
}

func ago(d time.Duration) func(*time.Time) bool {
	return func(t *time.Time) bool {
		if t == nil {
			return false
		}
		diff := time.Since(*t)
		return diff >= d-time.Minute && diff <= d+time.Minute
	}
}

func at(want time.Time) func(*time.Time) bool {
	return func(t *time.Time) bool {
		return t != nil && t.Equal(want)
	}
}

func TestParseDurationWithDays(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"1d", 24 * time.Hour, false},
		{"0.5d", 12 * time.Hour, false},
		{"1h30m", 90 * time.Minute, false},
		{"-1d", 0, true},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDurationWithDays(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseDurationWithDays(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDurationWithDays(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseDurationWithDays(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseEventTypes(t *testing.T) {
	types, err := parseEventTypes([]string{"run.started,sequence.completed", " scene.transition "})
	if err != nil {
		t.Fatalf("parseEventTypes: %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("expected 3 types, got %v", types)
	}

	if _, err := parseEventTypes([]string{"agent.spawned"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestEventDetails(t *testing.T) {
	payload, _ := json.Marshal(models.SceneTransitionPayload{Phase: models.PhaseEnd, Destination: "main-menu"})
	got := eventDetails(&models.Event{Type: models.EventTypeSceneTransition, Payload: payload})
	if got != "end → main-menu" {
		t.Fatalf("eventDetails = %q", got)
	}

	got = eventDetails(&models.Event{
		Type:     models.EventTypeRunStarted,
		Metadata: map[string]string{"phase": "start", "language": "zh"},
	})
	if got != "start/zh" {
		t.Fatalf("eventDetails = %q", got)
	}
}
