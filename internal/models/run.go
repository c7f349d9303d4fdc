package models

import "time"

// RunRecord is the persisted summary of one finished dialogue run.
type RunRecord struct {
	// ID is the unique identifier for the record.
	ID string `json:"id"`

	// RunID is the sequencer's run identifier.
	RunID string `json:"run_id"`

	Phase    Phase    `json:"phase"`
	Language Language `json:"language"`

	// LinesShown counts lines that started revealing.
	LinesShown int `json:"lines_shown"`

	// LinesTotal is the size of the line set.
	LinesTotal int `json:"lines_total"`

	// Skipped is true when the run ended through skip.
	Skipped bool `json:"skipped"`

	// Elapsed is the ticked duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Destination is where the run led, if known.
	Destination string `json:"destination,omitempty"`

	// CompletedAt is when the run finished.
	CompletedAt time.Time `json:"completed_at"`
}

// RunQuery filters run records.
type RunQuery struct {
	Phase    *Phase
	Language *Language
	Skipped  *bool
	Since    *time.Time
	Limit    int
}

// RunSummary aggregates run records.
type RunSummary struct {
	Phase        Phase         `json:"phase,omitempty"`
	Language     Language      `json:"language,omitempty"`
	Runs         int64         `json:"runs"`
	Skipped      int64         `json:"skipped"`
	LinesShown   int64         `json:"lines_shown"`
	TotalElapsed time.Duration `json:"total_elapsed"`
}
