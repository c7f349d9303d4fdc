package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/survivalburger/storyteller/internal/config"
	"github.com/survivalburger/storyteller/internal/db"
)

var initForce bool

// configDirFunc is overridden in tests.
var configDirFunc = config.DefaultConfigDir

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file, script directory and event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		results := []initResult{
			createConfigFile(),
			createScriptsDir(),
			initEventLog(),
		}

		if IsJSONOutput() || IsJSONLOutput() {
			payload := make([]map[string]string, 0, len(results))
			for _, r := range results {
				payload = append(payload, map[string]string{"step": r.name, "status": r.status, "message": r.message})
			}
			return WriteOutput(os.Stdout, payload)
		}

		failed := false
		for _, r := range results {
			fmt.Printf("%-14s %s  %s\n", r.name, formatInitStatus(r.status), r.message)
			if r.status == "failed" {
				failed = true
			}
		}
		if failed {
			return fmt.Errorf("init did not complete")
		}
		return nil
	},
}

type initResult struct {
	name    string
	status  string // done, skipped, failed
	message string
}

func formatInitStatus(status string) string {
	switch status {
	case "done":
		return colorize("done", colorGreen)
	case "skipped":
		return colorize("skipped", colorYellow)
	default:
		return colorize(status, colorRed)
	}
}

func createConfigFile() initResult {
	result := initResult{name: "Config file"}

	dir := configDirFunc()
	if dir == "" {
		result.status = "failed"
		result.message = "cannot determine config directory"
		return result
	}
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil && !initForce {
		result.status = "skipped"
		result.message = fmt.Sprintf("%s already exists (use --force to overwrite)", path)
		return result
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}

	result.status = "done"
	result.message = path
	return result
}

func createScriptsDir() initResult {
	result := initResult{name: "Scripts dir"}

	dir := configDirFunc()
	if dir == "" {
		result.status = "failed"
		result.message = "cannot determine config directory"
		return result
	}
	path := filepath.Join(dir, "scripts")

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		result.status = "skipped"
		result.message = path
		return result
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}

	result.status = "done"
	result.message = path
	return result
}

func initEventLog() initResult {
	result := initResult{name: "Event log"}

	cfg := currentConfig()
	if cfg.Database.Disabled {
		result.status = "skipped"
		result.message = "database.disabled is set"
		return result
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}
	defer database.Close()

	applied, err := database.MigrateUp(context.Background())
	if err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}
	if applied == 0 {
		result.status = "skipped"
		result.message = fmt.Sprintf("%s is up to date", database.Path())
		return result
	}

	result.status = "done"
	result.message = fmt.Sprintf("%s (%d migrations)", database.Path(), applied)
	return result
}

const configTemplate = `# Storyteller Configuration File
#
# Every value can be overridden with an environment variable prefixed with
# STORYTELLER_, e.g. STORYTELLER_DIALOGUE_ENGLISH_DELAY=40ms.

dialogue:
  # Default language (en, zh, or a locale such as zh_CN.UTF-8).
  # Empty resolves from LC_ALL, LC_MESSAGES and LANG.
  language: ""
  # Per-character reveal interval.
  english_delay: 30ms
  chinese_delay: 80ms
  # Pause after continue before the next line starts.
  ack_delay: 150ms

scene:
  start_destination: game
  end_destination: main-menu
  # 40 frames at 60fps.
  transition_duration: 667ms

scripts:
  # Directory searched before the default script paths.
  dir: ""
  # Values substituted into {{.name}} placeholders.
  vars: {}

database:
  path: ~/.local/share/storyteller/storyteller.db
  disabled: false

logging:
  level: info
  format: console
  # Logs go here while the terminal player is open. Empty discards them.
  file: ""

tui:
  theme: default
  frame_interval: 16ms
`
