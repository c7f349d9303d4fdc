// Package config loads storyteller configuration from file, environment, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/survivalburger/storyteller/internal/dialogue"
	"github.com/survivalburger/storyteller/internal/scene"
)

// EnvPrefix prefixes every environment override, e.g. STORYTELLER_DIALOGUE_ENGLISH_DELAY.
const EnvPrefix = "STORYTELLER"

// Config is the root configuration.
type Config struct {
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	Scene    SceneConfig    `mapstructure:"scene"`
	Scripts  ScriptsConfig  `mapstructure:"scripts"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	TUI      TUIConfig      `mapstructure:"tui"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-"`
}

// DialogueConfig controls reveal timing.
type DialogueConfig struct {
	// Language is the default language; empty resolves from LANG.
	Language string `mapstructure:"language"`

	// EnglishDelay is the per-character interval for English text.
	EnglishDelay time.Duration `mapstructure:"english_delay"`

	// ChineseDelay is the per-character interval for Chinese text.
	ChineseDelay time.Duration `mapstructure:"chinese_delay"`

	// AckDelay is how long the acknowledgment cue plays before the next line.
	AckDelay time.Duration `mapstructure:"ack_delay"`
}

// SceneConfig controls what happens after a sequence completes.
type SceneConfig struct {
	StartDestination   string        `mapstructure:"start_destination"`
	EndDestination     string        `mapstructure:"end_destination"`
	TransitionDuration time.Duration `mapstructure:"transition_duration"`
}

// ScriptsConfig locates line set documents.
type ScriptsConfig struct {
	// Dir takes precedence over the default search paths.
	Dir string `mapstructure:"dir"`

	// Vars are substituted into script lines.
	Vars map[string]string `mapstructure:"vars"`
}

// DatabaseConfig locates the event log.
type DatabaseConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives logs while the TUI is running. Empty discards them.
	File string `mapstructure:"file"`
}

// TUIConfig controls the terminal player.
type TUIConfig struct {
	Theme         string        `mapstructure:"theme"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Dialogue: DialogueConfig{
			EnglishDelay: dialogue.DefaultEnglishDelay,
			ChineseDelay: dialogue.DefaultChineseDelay,
			AckDelay:     150 * time.Millisecond,
		},
		Scene: SceneConfig{
			StartDestination:   scene.DestinationGame,
			EndDestination:     scene.DestinationMainMenu,
			TransitionDuration: scene.DefaultTransitionDuration,
		},
		Scripts: ScriptsConfig{
			Vars: map[string]string{},
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			Theme:         "default",
			FrameInterval: 16 * time.Millisecond,
		},
	}
}

// DefaultConfigDir returns ~/.config/storyteller.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "storyteller")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "storyteller.db"
	}
	return filepath.Join(home, ".local", "share", "storyteller", "storyteller.db")
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml in the default config dir or the working directory is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Scripts.Dir = expandHome(cfg.Scripts.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	if cfg.Scripts.Vars == nil {
		cfg.Scripts.Vars = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("dialogue.language", cfg.Dialogue.Language)
	v.SetDefault("dialogue.english_delay", cfg.Dialogue.EnglishDelay)
	v.SetDefault("dialogue.chinese_delay", cfg.Dialogue.ChineseDelay)
	v.SetDefault("dialogue.ack_delay", cfg.Dialogue.AckDelay)
	v.SetDefault("scene.start_destination", cfg.Scene.StartDestination)
	v.SetDefault("scene.end_destination", cfg.Scene.EndDestination)
	v.SetDefault("scene.transition_duration", cfg.Scene.TransitionDuration)
	v.SetDefault("scripts.dir", cfg.Scripts.Dir)
	v.SetDefault("scripts.vars", cfg.Scripts.Vars)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.disabled", cfg.Database.Disabled)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("tui.theme", cfg.TUI.Theme)
	v.SetDefault("tui.frame_interval", cfg.TUI.FrameInterval)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Dialogue.EnglishDelay <= 0 {
		return fmt.Errorf("dialogue.english_delay must be greater than 0")
	}
	if c.Dialogue.ChineseDelay <= 0 {
		return fmt.Errorf("dialogue.chinese_delay must be greater than 0")
	}
	if c.Dialogue.AckDelay < 0 {
		return fmt.Errorf("dialogue.ack_delay must not be negative")
	}
	if c.Scene.TransitionDuration < 0 {
		return fmt.Errorf("scene.transition_duration must not be negative")
	}
	if strings.TrimSpace(c.Scene.StartDestination) == "" || strings.TrimSpace(c.Scene.EndDestination) == "" {
		return fmt.Errorf("scene destinations are required")
	}
	if c.TUI.FrameInterval <= 0 {
		return fmt.Errorf("tui.frame_interval must be greater than 0")
	}
	if !c.Database.Disabled && strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required unless database.disabled is set")
	}
	return nil
}
