package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/survivalburger/storyteller/internal/db"
	"github.com/survivalburger/storyteller/internal/logging"
	"github.com/survivalburger/storyteller/internal/models"
)

var (
	eventsSince string
	eventsTypes []string
	eventsRun   string
	eventsLimit int
	watchMode   bool
)

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "only events after this time (e.g. 30m, 1d, 2024-01-15T10:30:00Z)")
	eventsCmd.Flags().StringSliceVar(&eventsTypes, "type", nil, "filter by event type (repeatable)")
	eventsCmd.Flags().StringVar(&eventsRun, "run", "", "filter by run ID")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 50, "maximum events to list")
	eventsCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "stream new events as they are recorded (requires --jsonl)")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List or stream the event log",
	Long: `List events recorded by storyteller runs, newest first.

With --watch, new events are streamed as JSON lines until interrupted.`,
	Example: `  storyteller events --since 1d
  storyteller events --type sequence.completed --json
  storyteller events --watch --jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeJSONLForWatch(); err != nil {
			return err
		}

		since, err := ParseSince(eventsSince)
		if err != nil {
			return err
		}
		types, err := parseEventTypes(eventsTypes)
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		repo := db.NewEventRepository(database)

		config := DefaultStreamConfig()
		config.Since = since
		config.Types = types
		config.EntityID = eventsRun

		if watchMode {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			config.IncludeExisting = since != nil
			return NewEventStreamer(repo, os.Stdout, config).Stream(ctx)
		}

		items, err := latestEvents(context.Background(), repo, config, eventsLimit)
		if err != nil {
			return err
		}
		return writeEventList(items)
	},
}

// MustBeJSONLForWatch rejects --watch without --jsonl.
func MustBeJSONLForWatch() error {
	if watchMode && !IsJSONLOutput() {
		return &PreflightError{
			Message:  "--watch requires --jsonl output",
			NextStep: "storyteller events --watch --jsonl",
		}
	}
	return nil
}

// StreamConfig controls event streaming.
type StreamConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// Since bounds the first poll when IncludeExisting is set.
	Since           *time.Time
	IncludeExisting bool
	Types           []models.EventType
	EntityID        string
}

// DefaultStreamConfig returns the default streaming settings.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PollInterval: 500 * time.Millisecond,
		BatchSize:    100,
	}
}

type eventQuerier interface {
	Query(ctx context.Context, q db.EventQuery) (*db.EventPage, error)
}

// EventStreamer polls the event log and writes events as JSON lines.
type EventStreamer struct {
	repo   eventQuerier
	out    io.Writer
	config StreamConfig
	logger zerolog.Logger
}

// NewEventStreamer creates an EventStreamer.
func NewEventStreamer(repo eventQuerier, out io.Writer, config StreamConfig) *EventStreamer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultStreamConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultStreamConfig().BatchSize
	}
	return &EventStreamer{
		repo:   repo,
		out:    out,
		config: config,
		logger: logging.Component("events"),
	}
}

// Stream writes matching events until ctx is canceled.
func (s *EventStreamer) Stream(ctx context.Context) error {
	since := s.config.Since
	if !s.config.IncludeExisting || since == nil {
		now := time.Now().UTC()
		since = &now
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	cursor := ""
	for {
		items, next, err := s.poll(ctx, cursor, since)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, event := range items {
			if err := s.writeEvent(event); err != nil {
				return err
			}
		}
		cursor = next

		// Drain full batches before waiting.
		if len(items) >= s.config.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll returns the next batch after cursor and the cursor to resume from.
func (s *EventStreamer) poll(ctx context.Context, cursor string, since *time.Time) ([]*models.Event, string, error) {
	q := db.EventQuery{
		Since:  since,
		Cursor: cursor,
		Limit:  s.config.BatchSize,
	}
	if s.config.EntityID != "" {
		entityID := s.config.EntityID
		q.EntityID = &entityID
	}
	q.Types = s.config.Types

	page, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, cursor, fmt.Errorf("failed to query events: %w", err)
	}

	next := cursor
	if n := len(page.Events); n > 0 {
		next = page.Events[n-1].ID
	}

	return page.Events, next, nil
}

// latestEvents returns up to limit matching events, newest first.
func latestEvents(ctx context.Context, repo eventQuerier, config StreamConfig, limit int) ([]*models.Event, error) {
	q := db.EventQuery{
		Types:      config.Types,
		Since:      config.Since,
		Limit:      limit,
		Descending: true,
	}
	if config.EntityID != "" {
		entityID := config.EntityID
		q.EntityID = &entityID
	}

	page, err := repo.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return page.Events, nil
}

func (s *EventStreamer) writeEvent(event *models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintln(s.out, string(data)); err != nil {
		return err
	}
	s.logger.Debug().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("event streamed")
	return nil
}

func writeEventList(items []*models.Event) error {
	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(os.Stdout, items)
	}
	if len(items) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, e := range items {
		rows = append(rows, []string{
			formatTimestamp(e.Timestamp),
			string(e.Type),
			shortID(e.EntityID),
			eventDetails(e),
		})
	}
	return writeTable(os.Stdout, []string{"TIME", "TYPE", "RUN", "DETAILS"}, rows)
}

func eventDetails(e *models.Event) string {
	switch e.Type {
	case models.EventTypeSequenceCompleted:
		var p models.SequenceCompletedPayload
		if json.Unmarshal(e.Payload, &p) == nil {
			return fmt.Sprintf("%s/%s %d/%d lines skipped=%s", p.Phase, p.Language, p.LinesShown, p.LinesTotal, formatYesNo(p.Skipped))
		}
	case models.EventTypeSceneTransition:
		var p models.SceneTransitionPayload
		if json.Unmarshal(e.Payload, &p) == nil {
			return fmt.Sprintf("%s → %s", p.Phase, p.Destination)
		}
	}
	if len(e.Metadata) > 0 {
		return fmt.Sprintf("%s/%s", e.Metadata["phase"], e.Metadata["language"])
	}
	return ""
}

func parseEventTypes(values []string) ([]models.EventType, error) {
	known := map[models.EventType]bool{}
	for _, t := range models.EventTypes {
		known[t] = true
	}

	var out []models.EventType
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t := models.EventType(part)
			if !known[t] {
				return nil, fmt.Errorf("unknown event type %q", part)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// ParseSince parses a relative duration ("1h", "7d") or an absolute time
// into a UTC timestamp. An empty value returns nil.
func ParseSince(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if d, err := parseDurationWithDays(value); err == nil {
		t := time.Now().UTC().Add(-d)
		return &t, nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	// Values without a zone are read as UTC.
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("invalid --since value %q: use a duration (30m, 1h, 7d) or a timestamp", value)
}

func parseDurationWithDays(value string) (time.Duration, error) {
	if strings.HasSuffix(value, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(value, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", value)
		}
		if days < 0 {
			return 0, errors.New("duration must not be negative")
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(value)
}
