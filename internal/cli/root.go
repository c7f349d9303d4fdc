// Package cli implements the storyteller command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/survivalburger/storyteller/internal/config"
	"github.com/survivalburger/storyteller/internal/logging"
)

var (
	cfgFile        string
	logLevel       string
	logFormat      string
	jsonOutput     bool
	jsonlOutput    bool
	noColor        bool
	nonInteractive bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "storyteller",
	Short: "Typewriter narration for story intros and endings",
	Long: `storyteller plays localized story line sets one character at a time.

Lines are revealed on a per-language cadence, wait for the player to continue,
and hand off to the next scene once the sequence completes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/storyteller/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.PersistentFlags().BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt or open the terminal player")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Run executes the CLI and exits the process on failure.
func Run() {
	if err := Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return appConfig
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	if cfg.Source != "" {
		logger := logging.Component("cli")
		logger.Debug().Str("path", cfg.Source).Msg("config loaded")
	}

	appConfig = cfg
	return nil
}
