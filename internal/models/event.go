package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the system.
type EventType string

const (
	// Run events
	EventTypeRunStarted        EventType = "run.started"
	EventTypeSequenceCompleted EventType = "sequence.completed"

	// Line events
	EventTypeLineStarted      EventType = "line.started"
	EventTypeLineProgress     EventType = "line.progress"
	EventTypeLineRevealed     EventType = "line.revealed"
	EventTypeLineAcknowledged EventType = "line.acknowledged"

	// Scene events
	EventTypeSceneTransition EventType = "scene.transition"

	// System events
	EventTypeError EventType = "error"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	EventTypeRunStarted,
	EventTypeSequenceCompleted,
	EventTypeLineStarted,
	EventTypeLineProgress,
	EventTypeLineRevealed,
	EventTypeLineAcknowledged,
	EventTypeSceneTransition,
	EventTypeError,
}

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeRun    EntityType = "run"
	EntityTypeScene  EntityType = "scene"
	EntityTypeSystem EntityType = "system"
)

// Event represents an append-only log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// SequenceCompletedPayload is the payload for sequence.completed events.
type SequenceCompletedPayload struct {
	Phase      Phase    `json:"phase"`
	Language   Language `json:"language"`
	LinesShown int      `json:"lines_shown"`
	LinesTotal int      `json:"lines_total"`
	Skipped    bool     `json:"skipped"`
	Duration   string   `json:"duration,omitempty"`
}

// SceneTransitionPayload is the payload for scene.transition events.
type SceneTransitionPayload struct {
	Phase       Phase  `json:"phase"`
	Destination string `json:"destination"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}
