package cli

import (
	"context"
	"fmt"

	"github.com/survivalburger/storyteller/internal/db"
)

// openDatabase opens and migrates the event log named by the config.
func openDatabase() (*db.DB, error) {
	cfg := currentConfig()
	if cfg.Database.Disabled {
		return nil, &PreflightError{
			Message:  "event log is disabled",
			Hint:     "Set database.disabled to false in the config file",
			NextStep: "storyteller play",
		}
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := database.MigrateUp(context.Background()); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}
