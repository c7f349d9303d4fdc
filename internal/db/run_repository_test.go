package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/survivalburger/storyteller/internal/models"
)

func TestRunRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	record := &models.RunRecord{
		RunID:      "run-1",
		Phase:      models.PhaseStart,
		Language:   models.LanguageChinese,
		LinesShown: 2,
		LinesTotal: 6,
		Skipped:    true,
		Elapsed:    1500 * time.Millisecond,
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if record.ID == "" {
		t.Error("expected ID to be set")
	}

	if err := repo.SetDestination(ctx, "run-1", "game"); err != nil {
		t.Fatalf("SetDestination: %v", err)
	}

	got, err := repo.GetByRunID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if !got.Skipped || got.LinesShown != 2 || got.LinesTotal != 6 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Elapsed != 1500*time.Millisecond {
		t.Errorf("elapsed = %v", got.Elapsed)
	}
	if got.Destination != "game" {
		t.Errorf("destination = %q", got.Destination)
	}

	if _, err := repo.GetByRunID(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := repo.SetDestination(ctx, "missing", "game"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := repo.Create(ctx, &models.RunRecord{}); !errors.Is(err, ErrInvalidRun) {
		t.Errorf("expected ErrInvalidRun, got %v", err)
	}
}

func TestRunRepositoryQueryAndSummarize(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*models.RunRecord{
		{RunID: "a", Phase: models.PhaseStart, Language: models.LanguageEnglish, LinesShown: 6, LinesTotal: 6, Elapsed: time.Second},
		{RunID: "b", Phase: models.PhaseStart, Language: models.LanguageEnglish, LinesShown: 1, LinesTotal: 6, Skipped: true, Elapsed: time.Second},
		{RunID: "c", Phase: models.PhaseEnd, Language: models.LanguageEnglish, LinesShown: 4, LinesTotal: 4, Elapsed: 2 * time.Second},
	}
	for i, record := range records {
		record.CompletedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("Create %s: %v", record.RunID, err)
		}
	}

	all, err := repo.Query(ctx, models.RunQuery{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "c" {
		t.Fatalf("expected newest first, got %d records", len(all))
	}

	skipped := true
	onlySkipped, err := repo.Query(ctx, models.RunQuery{Skipped: &skipped})
	if err != nil {
		t.Fatalf("Query skipped: %v", err)
	}
	if len(onlySkipped) != 1 || onlySkipped[0].RunID != "b" {
		t.Fatalf("unexpected skipped records: %v", onlySkipped)
	}

	summaries, err := repo.Summarize(ctx, nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	// ordered by phase: "end" < "start"
	start := summaries[1]
	if start.Phase != models.PhaseStart || start.Runs != 2 || start.Skipped != 1 || start.LinesShown != 7 {
		t.Fatalf("unexpected start summary %+v", start)
	}
	if start.TotalElapsed != 2*time.Second {
		t.Fatalf("total elapsed = %v", start.TotalElapsed)
	}
}
