package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/survivalburger/storyteller/internal/db"
	"github.com/survivalburger/storyteller/internal/models"
	"github.com/survivalburger/storyteller/internal/tui/components"
	"github.com/survivalburger/storyteller/internal/tui/styles"
)

var (
	historyLimit   int
	historyPhase   string
	historyLang    string
	historySince   string
	historySkipped bool
	historySummary bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
	historyCmd.Flags().StringVar(&historyPhase, "phase", "", "filter by phase (start, end)")
	historyCmd.Flags().StringVar(&historyLang, "lang", "", "filter by language (en, zh)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only runs after this time (e.g. 1h, 7d, 2024-01-15)")
	historyCmd.Flags().BoolVar(&historySkipped, "skipped", false, "only runs the player skipped")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "aggregate runs per phase and language")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  "List finished story runs from the event log, newest first.",
	Example: `  storyteller history
  storyteller history --phase end --since 7d
  storyteller history --summary --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		query, err := buildRunQuery()
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		repo := db.NewRunRepository(database)

		if historySummary {
			summaries, err := repo.Summarize(ctx, query.Since)
			if err != nil {
				return err
			}
			return writeRunSummaries(summaries)
		}

		records, err := repo.Query(ctx, query)
		if err != nil {
			return err
		}
		return writeRunRecords(records)
	},
}

func buildRunQuery() (models.RunQuery, error) {
	query := models.RunQuery{Limit: historyLimit}

	if historyPhase != "" {
		phase, err := models.ParsePhase(historyPhase)
		if err != nil {
			return query, err
		}
		query.Phase = &phase
	}
	if historyLang != "" {
		lang, err := models.ParseLanguage(historyLang)
		if err != nil {
			return query, err
		}
		query.Language = &lang
	}
	if historySkipped {
		skipped := true
		query.Skipped = &skipped
	}

	since, err := ParseSince(historySince)
	if err != nil {
		return query, err
	}
	query.Since = since

	return query, nil
}

func writeRunRecords(records []*models.RunRecord) error {
	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(os.Stdout, records)
	}

	if len(records) == 0 {
		fmt.Println(components.EmptyHistory().Render(styles.DefaultStyles()))
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		destination := r.Destination
		if destination == "" {
			destination = "-"
		}
		rows = append(rows, []string{
			shortID(r.RunID),
			formatPhase(r.Phase),
			string(r.Language),
			fmt.Sprintf("%d/%d", r.LinesShown, r.LinesTotal),
			formatRunOutcome(r),
			formatDuration(r.Elapsed),
			destination,
			formatTimestamp(r.CompletedAt),
		})
	}
	return writeTable(os.Stdout, []string{"RUN", "PHASE", "LANG", "LINES", "OUTCOME", "ELAPSED", "DESTINATION", "COMPLETED"}, rows)
}

func writeRunSummaries(summaries []*models.RunSummary) error {
	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(os.Stdout, summaries)
	}

	if len(summaries) == 0 {
		fmt.Println(components.EmptyHistory().Render(styles.DefaultStyles()))
		return nil
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			formatPhase(s.Phase),
			string(s.Language),
			strconv.FormatInt(s.Runs, 10),
			strconv.FormatInt(s.Skipped, 10),
			strconv.FormatInt(s.LinesShown, 10),
			formatDuration(s.TotalElapsed),
		})
	}
	return writeTable(os.Stdout, []string{"PHASE", "LANG", "RUNS", "SKIPPED", "LINES", "TIME"}, rows)
}
