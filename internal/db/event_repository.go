package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/survivalburger/storyteller/internal/models"
)

// Event repository errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("invalid event")
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const eventColumns = `id, timestamp, type, entity_type, entity_id, payload_json, metadata_json`

// EventRepository handles event persistence.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventQuery defines filters for querying events.
type EventQuery struct {
	Types      []models.EventType // Filter by any of these event types
	EntityType *models.EntityType // Filter by entity type
	EntityID   *string            // Filter by entity ID
	Since      *time.Time         // Events at or after this time (inclusive)
	Until      *time.Time         // Events before this time (exclusive)
	Cursor     string             // Pagination cursor (event ID)
	Limit      int                // Max results to return
	Descending bool               // Newest first; the cursor then walks backwards
}

// EventPage represents a page of query results.
type EventPage struct {
	Events     []*models.Event
	NextCursor string
}

// Create appends a new event to the event log.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}

	var payloadJSON *string
	if len(event.Payload) > 0 {
		s := string(event.Payload)
		payloadJSON = &s
	}

	var metadataJSON *string
	if event.Metadata != nil {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		s := string(data)
		metadataJSON = &s
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.Timestamp.Format(timeFormat),
		string(event.Type),
		string(event.EntityType),
		event.EntityID,
		payloadJSON,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Get retrieves an event by ID.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)

	event, err := r.scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return event, err
}

// Query retrieves events matching the given filters with cursor-based pagination.
func (r *EventRepository) Query(ctx context.Context, q EventQuery) (*EventPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	args := []any{}

	if len(q.Types) > 0 {
		query += ` AND type IN (?` + strings.Repeat(`, ?`, len(q.Types)-1) + `)`
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if q.EntityType != nil {
		query += ` AND entity_type = ?`
		args = append(args, string(*q.EntityType))
	}
	if q.EntityID != nil {
		query += ` AND entity_id = ?`
		args = append(args, *q.EntityID)
	}
	if q.Since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, q.Since.UTC().Format(timeFormat))
	}
	if q.Until != nil {
		query += ` AND timestamp < ?`
		args = append(args, q.Until.UTC().Format(timeFormat))
	}
	order, cmp := ``, `>`
	if q.Descending {
		order, cmp = ` DESC`, `<`
	}
	if q.Cursor != "" {
		query += ` AND (timestamp, id) ` + cmp + ` (SELECT timestamp, id FROM events WHERE id = ?)`
		args = append(args, q.Cursor)
	}

	query += ` ORDER BY timestamp` + order + `, id` + order + ` LIMIT ?`
	args = append(args, limit+1)

	events, err := r.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	page := &EventPage{}
	if len(events) > limit {
		page.Events = events[:limit]
		page.NextCursor = events[limit-1].ID
	} else {
		page.Events = events
	}

	return page, nil
}

// ListByEntity retrieves events for an entity, ordered by timestamp.
func (r *EventRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	return r.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY timestamp, id
		LIMIT ?
	`, string(entityType), entityID, limit)
}

// CountByType returns how many events of each type are logged.
func (r *EventRepository) CountByType(ctx context.Context) (map[models.EventType]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM events GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventType]int64)
	for rows.Next() {
		var eventType string
		var n int64
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[models.EventType(eventType)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}
	return counts, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EventRepository) scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	var timestamp, eventType, entityType string
	var payloadJSON sql.NullString
	var metadataJSON sql.NullString

	err := row.Scan(
		&event.ID,
		&timestamp,
		&eventType,
		&entityType,
		&event.EntityID,
		&payloadJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Type = models.EventType(eventType)
	event.EntityType = models.EntityType(entityType)

	if t, err := time.Parse(timeFormat, timestamp); err == nil {
		event.Timestamp = t
	}

	if payloadJSON.Valid {
		event.Payload = json.RawMessage(payloadJSON.String)
	}
	if metadataJSON.Valid {
		if err := json.Unmarshal([]byte(metadataJSON.String), &event.Metadata); err != nil {
			r.db.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to parse event metadata")
		}
	}

	return &event, nil
}
